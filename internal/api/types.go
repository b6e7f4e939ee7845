package api

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// SuccessResponse acknowledges a mutating request.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse reports the role granted by a successful login.
type LoginResponse struct {
	Success bool   `json:"success"`
	Level   string `json:"level"`
}

// MeResponse describes the caller's current role.
type MeResponse struct {
	Authenticated bool   `json:"authenticated"`
	Level         string `json:"level"`
}

// FileResponse is one search result.
type FileResponse struct {
	ID        string   `json:"id"`
	Filename  string   `json:"filename"`
	Size      int64    `json:"size"`
	CreatedAt int64    `json:"created_at"`
	Tags      []string `json:"tags"`
}

// UploadResponse is returned by POST /api/upload.
type UploadResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// TagsRequest replaces the tag set of a file.
type TagsRequest struct {
	Tags []string `json:"tags"`
}

// TagsResponse carries the stored tag set after a replace.
type TagsResponse struct {
	Success bool     `json:"success"`
	Tags    []string `json:"tags"`
}

// InfoResponse summarizes the index.
type InfoResponse struct {
	SchemaVersion int   `json:"schema_version"`
	TotalFiles    int   `json:"total_files"`
	TotalTags     int   `json:"total_tags"`
	DistinctTags  int   `json:"distinct_tags"`
	TotalBytes    int64 `json:"total_bytes"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
