// Package worker implements the background build pipeline's worker
// pool: two named, capacity-1 queues — FomaQueueName for compilation,
// LM estimation, and parser generation, and ExportQueueName for export
// bundling — each drained by a small fixed set of long-lived worker
// goroutines.
//
// Jobs carry a per-attempt nonce alongside their closure; a handler sets
// a fresh nonce on the resource (via the corresponding store's Bump*
// Attempt method) before enqueuing, and a worker re-checks that nonce
// still matches the resource's current value immediately before
// applying its result, so a superseding enqueue silently wins over an
// in-flight job's stale results without the pool needing to cancel
// anything in flight.
package worker
