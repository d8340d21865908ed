// Package config loads the YAML run document that declares a run: the
// variable matrix and combinator, the transformer chain, requirement
// layers, case filters, scheduler settings, platform priorities and the
// environment reuse policy.
//
// Documents are decoded strictly; unknown fields are errors so a typo
// cannot silently drop a constraint. Load applies defaults and validates
// cross-field consistency, and the Build* methods construct the
// configured pipeline pieces. Watcher re-validates a document on every
// save, debounced, for the validate --watch flow.
package config
