// Package resolver rewrites the field references of a query tree to the
// canonical paths of the target schema.
//
// RESOLUTION CHAIN:
//
// Every field-bearing node below the root is resolved through three ordered
// sources; the first that knows the field wins:
//
//  1. The mapping resolver (static schema). Authoritative and cheapest.
//  2. The session's runtime fields, matched case-insensitively.
//  3. The discovery callback, unless disabled. A discovered field is
//     appended to the session's runtime fields so later nodes, and later
//     sessions sharing the set, resolve it in step 2.
//
// When the canonical name differs byte-for-byte from what the user typed,
// the node's field is overwritten and the typed name is kept as its original
// field. A field no source knows is left untouched; that is not an error.
//
// TRAVERSAL:
//
// Nodes are visited depth-first in pre-order, so a group's own field (a
// nested scope) is resolved before its children. The tree root is structural
// and its own field is never resolved.
//
// ERRORS:
//
// A context without the required capabilities yields a *ConfigError. Errors
// from the mapping resolver or the discovery callback are returned as-is.
// Cancellation leaves already-rewritten nodes in place.
package resolver
