package internal

// PanicOnError panics with err unless it is nil.
// Only for failures that mean the binary itself is broken, such as an
// embedded template that does not parse.
func PanicOnError(err error) {
	if err != nil {
		panic(err)
	}
}
