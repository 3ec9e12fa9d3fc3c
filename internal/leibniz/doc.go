// Package leibniz implements the distributed Leibniz series computation of π.
//
// A run is split into contiguous Jobs (Split, Jobs), the Jobs are dispatched
// round-robin to a fixed Pool of worker goroutines, and every worker emits one
// partial sum per Job to a single Accumulator. The Accumulator owns the run
// state, counts the partial sums and completes exactly once when the last
// expected partial sum has been added.
//
// Delivery between workers and the Accumulator relies on Go channels: a lost
// or duplicated partial sum is neither detected nor compensated.
package leibniz
