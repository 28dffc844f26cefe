package ekk

// Logger is the minimal logging seam the solver writes to: one line when
// a solve fails and one summary line (status and iteration count) when a
// solve finishes. Any type with a Print method works,
// so the standard library's log.Logger satisfies it directly.
type Logger interface {
	Print(v ...interface{})
}

type noopLogger struct{}

func (noopLogger) Print(v ...interface{}) {}
