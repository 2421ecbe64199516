// Package domain holds the identifiers, directory records and store or
// directory contracts shared by the chat, call and key packages. The types
// and interfaces live in subpackages and are re-exported here as aliases.
package domain
