// Package combinator expands declarative variable input into the concrete
// variable sets a run iterates over.
//
// Two combinators exist. Grid takes named variable lists and produces
// their full Cartesian product in row-major order, the last declared list
// varying fastest. Batch takes an explicit list of already paired variable
// sets and yields them unchanged.
//
// Sequences are finite, deterministic and restartable: calling Sequence()
// again re-derives the identical order with no cursor shared between
// iterators. Grid derives each combination directly from its index, so
// iteration allocates one map per set and nothing else.
package combinator
