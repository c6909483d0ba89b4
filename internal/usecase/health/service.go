package health

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/docrag/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all checked components are operational.
	Healthy Status = "healthy"
	// Degraded indicates at least one dependency failed its check.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

const defaultCheckTimeout = 5 * time.Second

// Report aggregates health check results.
type Report struct {
	Status          Status
	Model           string
	DocumentsLoaded int
	DocumentsDir    string
	// Checks is empty unless a deep check was requested.
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	model    string
	corpus   Corpus
	checkers map[string]Checker
	timeout  time.Duration
}

// New creates a Service for the given primary model name.
func New(model string, corpus Corpus) *Service {
	return &Service{
		model:    model,
		corpus:   corpus,
		checkers: make(map[string]Checker),
		timeout:  defaultCheckTimeout,
	}
}

// WithChecker registers a named dependency checker run by deep checks. Nil checkers are ignored.
func (s *Service) WithChecker(name string, c Checker) *Service {
	if c != nil {
		s.checkers[name] = c
	}
	return s
}

// Check reports service status. Shallow checks never call external dependencies;
// deep checks call every registered dependency with a bounded timeout.
func (s *Service) Check(ctx context.Context, deep bool) Report {
	r := Report{
		Status:          Healthy,
		Model:           s.model,
		DocumentsLoaded: s.corpus.LoadedFiles(),
		DocumentsDir:    s.corpus.Dir(),
		Checks:          make(map[string]CheckResult),
	}
	if !deep {
		return r
	}

	names := make([]string, 0, len(s.checkers))
	for name := range s.checkers {
		names = append(names, name)
	}
	sort.Strings(names)

	logger := logpkg.FromContext(ctx)
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.checkers[name].HealthCheck(checkCtx)
		cancel()

		if err != nil {
			logger.Warn("Health check failed", zap.String("component", name), zap.Error(err))
			r.Checks[name] = CheckError
			r.Status = Degraded
			continue
		}
		r.Checks[name] = CheckOK
	}
	return r
}
