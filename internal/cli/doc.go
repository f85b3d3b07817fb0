// Package cli implements the interactive Chatex command line: a REPL that
// maps short commands onto the library clients and prints every answer as
// indented JSON.
package cli
