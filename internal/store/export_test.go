package store

// FastScrypt swaps in cheap scrypt parameters for the duration of a test.
func FastScrypt() (restore func()) {
	prev := scryptParams
	scryptParams = func() (N, r, p int) { return 1 << 10, 8, 1 }
	return func() { scryptParams = prev }
}
