/*
Package storage provides data models for the search history store.
*/
package storage

import "time"

// SearchRecord represents one discovery request.
type SearchRecord struct {
	// SearchID is a unique identifier for this search (UUID).
	SearchID string `json:"search_id"`

	// QueryHash is the SHA256 hash of the search query for privacy.
	// Empty when the request had no query.
	QueryHash string `json:"query_hash"`

	// Categories are the requested category tags, if any.
	Categories []string `json:"categories,omitempty"`

	// Nested is true when actions and triggers were searched too.
	Nested bool `json:"nested"`

	// Timestamp is when the search was performed.
	Timestamp time.Time `json:"timestamp"`

	// ResultsCount is the number of pieces returned.
	ResultsCount int `json:"results_count"`
}

// SearchStats summarises recorded searches.
type SearchStats struct {
	Total       int     `json:"total"`
	Nested      int     `json:"nested"`
	ZeroResults int     `json:"zero_results"`
	AvgResults  float64 `json:"avg_results"`

	// Categories counts how often each category was requested.
	Categories map[string]int `json:"categories"`
}
