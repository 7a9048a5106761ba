package models

import "time"

// Document is the registry record for an uploaded file.
type Document struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	StoredName  string    `json:"stored_name"`
	ContentType string    `json:"content_type,omitempty"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// QueryResult is the outcome of one query through the answer pipeline.
// It is created fresh per query and has no persistence beyond the call.
type QueryResult struct {
	Query          string    `json:"query"`
	Answer         string    `json:"answer"`
	RetrievedCount int       `json:"retrieved_count"`
	Sources        []string  `json:"sources"`
	Passages       []Passage `json:"passages,omitempty"`
}
