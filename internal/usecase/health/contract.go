package health

import "context"

// Checker verifies one external dependency.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

// HealthCheck calls f.
func (f CheckerFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

// Corpus reports what the active index covers.
type Corpus interface {
	LoadedFiles() int
	Dir() string
}
