// Package mapping answers "does this field exist, and under what canonical
// path" for a target index schema.
//
// Resolution consults a Resolver; Schema is the in-memory implementation
// built from an Elasticsearch-style property tree loaded from YAML or CUE.
// Callers that front a remote schema service wrap it in a ResolverFunc.
package mapping
