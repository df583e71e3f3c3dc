package models

// AnalyzeRequest represents a request to score one image by locator
type AnalyzeRequest struct {
	URL      string `json:"url" binding:"required"`
	Detailed bool   `json:"detailed,omitempty"`
}

// BatchRequest represents a request to score several images
type BatchRequest struct {
	URLs     []string `json:"urls" binding:"required,min=1"`
	Detailed bool     `json:"detailed,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Time    string `json:"time"`
}
