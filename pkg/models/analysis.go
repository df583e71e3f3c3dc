package models

import (
	"time"

	"github.com/anime-shed/image-quality-go/internal/quality"
	"github.com/anime-shed/image-quality-go/pkg/validation"
)

// QualityResponse is the scored result for one image plus the request
// bookkeeping around it.
type QualityResponse struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	// Digest is the xxhash64 of uploaded bytes in hex; empty for locators
	Digest            string                    `json:"digest,omitempty"`
	Quality           int                       `json:"quality"`
	Breakdown         quality.Breakdown         `json:"breakdown"`
	Accepted          bool                      `json:"accepted"`
	Issues            []validation.QualityIssue `json:"issues,omitempty"`
	Diagnostics       *quality.Diagnostics      `json:"diagnostics,omitempty"`
	Timestamp         time.Time                 `json:"timestamp"`
	ProcessingTimeSec float64                   `json:"processing_time_sec"`
}

// BatchItem is one entry of a batch response. Exactly one of Result and
// Error is set.
type BatchItem struct {
	URL    string           `json:"url"`
	Result *QualityResponse `json:"result,omitempty"`
	Error  *ErrorResponse   `json:"error,omitempty"`
}

// BatchResponse lists batch items in request order
type BatchResponse struct {
	Items     []BatchItem `json:"items"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}
