// Package transformer rewrites the variable sets a combinator produces
// before they reach scheduling.
//
// A Transformer is a pure step from one variable set to a new one; a
// Chain runs transformers in declared order. Three transformers are
// built in: Rename moves variables to new names, Template derives
// variables by rendering {{ var }} templates, and Expr derives variables
// by evaluating expr-lang expressions.
//
// Expand drains a combinator through a chain. A transformer failure
// drops only the variable set being processed and is reported as a
// per-set error; all other combinations proceed.
package transformer
