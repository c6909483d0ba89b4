package docrag

import "time"

// Answer is the response to a query.
type Answer struct {
	Text    string
	Sources []Source
	Model   string
	Intent  string
	Elapsed time.Duration
}

// Source attributes an answer to one retrieved passage.
type Source struct {
	// Name is the display name with the upload prefix stripped.
	Name     string
	FileName string
	// Page is empty for unpaged formats.
	Page    string
	Size    int64
	Preview string
	Score   float64
}

// ReindexResult describes a successful rebuild.
type ReindexResult struct {
	Documents int
	Chunks    int
	Files     []string
	Elapsed   time.Duration
}

// DocumentStatus reports whether the active index covers a file's current version.
type DocumentStatus struct {
	FileName string
	Path     string
	Size     int64
	Modified time.Time
	Indexed  bool
}

// HealthStatus is the aggregated client health.
type HealthStatus struct {
	// Status is "healthy" or "degraded".
	Status          string
	Model           string
	DocumentsLoaded int
	DocumentsDir    string
	// Checks maps component to "ok" or "error"; filled by deep checks only.
	Checks map[string]string
}
