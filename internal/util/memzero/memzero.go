// Package memzero wipes secret material held in byte slices.
package memzero

import "runtime"

// Zero overwrites every slice in bufs with zeros. Nil and empty slices are
// skipped.
func Zero(bufs ...[]byte) {
	for _, b := range bufs {
		clear(b)
		runtime.KeepAlive(b)
	}
}
