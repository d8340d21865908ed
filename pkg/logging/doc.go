// Package logging provides the shared logging facade for convoke.
//
// All subsystems log through the package-level Debug, Info, Warn and Error
// functions, tagging each entry with a subsystem name (for example
// "Scheduler" or "EnvironmentPool"). Two output modes are supported:
//
//   - CLI mode: entries are written through a log/slog text handler to the
//     configured writer, filtered by level.
//   - Monitor mode: entries are streamed as LogEntry values over a buffered
//     channel so a live run monitor can display scheduling progress; the
//     monitor performs its own level filtering.
//
// The mode is chosen once at startup via InitForCLI or InitForMonitor.
package logging
