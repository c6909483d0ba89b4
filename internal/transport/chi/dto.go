package chi

// queryRequest is the body of POST /query.
type queryRequest struct {
	Query     string `json:"query"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id,omitempty"`
}

type sourceAttribution struct {
	FileName         string  `json:"filename"`
	OriginalFileName string  `json:"original_filename"`
	Page             string  `json:"page,omitempty"`
	Size             int64   `json:"size"`
	Preview          string  `json:"preview"`
	RelevanceScore   float64 `json:"relevance_score"`
}

type queryResponse struct {
	Response       string              `json:"response"`
	Sources        []sourceAttribution `json:"sources"`
	ModelUsed      string              `json:"model_used"`
	ProcessingTime float64             `json:"processing_time"`
	Intent         string              `json:"intent"`
}

type reindexResponse struct {
	Success        bool     `json:"success"`
	Message        string   `json:"message"`
	DocumentsCount *int     `json:"documents_count,omitempty"`
	ProcessingTime *float64 `json:"processing_time,omitempty"`
	IndexedFiles   []string `json:"indexed_files,omitempty"`
}

type documentStatus struct {
	FileName string `json:"filename"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
	Status   string `json:"status"`
	Path     string `json:"path"`
}

type documentsStatusResponse struct {
	Success            bool             `json:"success"`
	Message            string           `json:"message,omitempty"`
	Documents          []documentStatus `json:"documents"`
	TotalCount         int              `json:"total_count"`
	DocumentsDirectory string           `json:"documents_directory"`
}

type healthResponse struct {
	Status             string            `json:"status"`
	Model              string            `json:"model"`
	DocumentsLoaded    int               `json:"documents_loaded"`
	DocumentsDirectory string            `json:"documents_directory"`
	Checks             map[string]string `json:"checks,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
