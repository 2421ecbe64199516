// Package app wires application dependencies for the CLI.
//
// It loads Config through viper, builds the concrete stores, directory
// client and services from it (Wire), and exposes Client, the per-thread
// runtime that routes socket frames to the message service and the active
// call.
package app
