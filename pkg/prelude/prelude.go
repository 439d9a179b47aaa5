package prelude

// Must panics if `err` is non-nil; otherwise it returns `t`. It's meant for
// package-level initialization (templates, fixtures) where an error is a
// program bug.
func Must[T any](t T, err error) T {
	if err != nil {
		panic(err.Error())
	}
	return t
}
