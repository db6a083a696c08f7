// Package vectordb implements an in-memory vector search engine.
//
// Textual chunks are organized into a two-level hierarchy of libraries and
// documents. Each library owns exactly one pluggable approximate-nearest-
// neighbor index (see pkg/index), built lazily and rebuilt on structural
// change. pkg/core.Store is the thread-safe entry point; everything else in
// this module (internal/httpapi, cmd/vectordb) is a thin adapter around it.
package vectordb
