// Package cmd implements the command-line interface for the concurrent
// data structure playground. It provides a hierarchical command
// structure for exercising each building block as a standalone process.
//
// The package is organized into several subpackages:
//
//   - store: Commands demonstrating the radix store (add, find, delete, dump)
//   - events: Commands demonstrating the event dispatch engine
//   - util: Shared utilities for command-line processing (internal use)
//
// See misc --help for a list of all commands.
package cmd
