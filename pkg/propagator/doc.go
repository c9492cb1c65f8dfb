// Package propagator keeps a Collection's denormalized association state
// in sync with the form[<id>] and collection[<id>]/collection(<id>)
// references embedded in its contents. Expand resolves those references
// transitively into a flat text plus id sets; OnFormDeleted and
// OnCollectionDeleted cascade edits into other collections when a
// referent disappears.
//
// The map-then-diff shape (build a lookup, walk it, emit one change per
// addition/removal) follows the diff analyzer this package is grounded
// on; the cycle-guard is a visited-set threaded through recursive
// expansion rather than a fixed-depth map walk, since collection nesting
// has no fixed depth.
package propagator
