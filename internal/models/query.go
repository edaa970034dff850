package models

import "fmt"

// QueryRequest is a question against the indexed corpus. DocumentID and
// PageNumber are optional; when both are set and valid, content from that page
// is placed ahead of similarity-ranked chunks in the assembled context.
type QueryRequest struct {
	Question   string `json:"question"`
	DocumentID string `json:"document_id,omitempty"`
	PageNumber int    `json:"page_number,omitempty"`
}

// Validate checks the request for obvious problems. A missing or out-of-range
// page number is not an error here: the page-aware path degrades silently.
func (q *QueryRequest) Validate() error {
	if q.Question == "" {
		return fmt.Errorf("question is required")
	}
	if q.PageNumber < 0 {
		return fmt.Errorf("page_number must be positive, got %d", q.PageNumber)
	}
	return nil
}

// QueryResponse carries the generated answer plus the context it was grounded
// on and the estimated token cost of that context.
type QueryResponse struct {
	Answer          string `json:"answer"`
	Context         string `json:"context"`
	EstimatedTokens int    `json:"estimated_tokens"`
}

// KeywordHit is one result of the keyword search endpoint.
type KeywordHit struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Fragment   string  `json:"fragment,omitempty"`
	Score      float64 `json:"score"`
}
