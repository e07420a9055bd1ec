// Package assert holds preconditions checked by constructors, a failed
// check is a programming error and panics.
package assert

func NotNil(value any) {
	if value == nil {
		panic("expected value to be not nil")
	}
}
