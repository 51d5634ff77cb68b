// Package version contains information on the current version of the
// program. It is split from the main program for easy use by both the CLI
// and the hover daemon.
package version

// Compiler is the string representing the current version of the compiler
// and its front-door CLI.
const Compiler = "0.1.0"

// Daemon is the string representing the current version of the hover
// daemon's HTTP API. It tracks the compiler version but is kept distinct
// since the daemon is additive and may ship fixes on its own cadence.
const Daemon = "0.1.0"
