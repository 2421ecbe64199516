// Package commands defines the coastal CLI and wires dependencies for subcommands.
//
// Commands
//
//   - init         Create the local P-256 identity
//   - fingerprint  Print the identity fingerprint
//   - publish      Upload the public key to the key directory
//   - chat         Join a thread and exchange encrypted messages with a peer
//   - call         Start an audio or video call with one or more peers
//   - listen       Stay online on a thread and accept incoming calls
//
// # Implementation
//
// The root command loads the viper configuration, applies flag overrides,
// builds the logger and optional metrics endpoint, and constructs the
// dependency graph (stores, directory client, services) before any
// subcommand runs.
package commands
