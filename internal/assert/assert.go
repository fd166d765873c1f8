package assert

func NotNil(value any) {
	if value == nil {
		panic("expected value to be not nil")
	}
}

func NotEmptyStr(str string) {
	if str == "" {
		panic("expected string to be non-empty")
	}
}

// Positive panics if n is not greater than zero.
func Positive[T ~int | ~int64 | ~float64](n T) {
	if n <= 0 {
		panic("expected a positive number")
	}
}
