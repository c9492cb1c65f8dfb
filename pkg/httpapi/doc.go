// Package httpapi exposes the core as a gorilla/mux HTTP surface. It is
// deliberately thin: every handler validates input, resolves the
// authenticated user, and delegates to a store/engine/compiler method
// already built up by the other packages. No compilation, search
// evaluation, or artifact I/O happens in this package directly.
package httpapi
