// Package events carries run lifecycle notifications. The scheduler
// and the environment pool publish typed events on a Bus; anything
// interested in progress, the CLI spinner or a verbose log, subscribes
// without the producers knowing about it.
package events
