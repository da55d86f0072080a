/*
Package history records discovery requests in the background.

Events carry a hashed query, never the raw text, and are written to the
search history store in batches so a search is never slowed down by disk
I/O.
*/
package history

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/khanglvm/piece-hub/internal/search"
	"github.com/khanglvm/piece-hub/internal/storage"
)

// SearchEvent represents one discovery request and its outcome.
type SearchEvent struct {
	// SearchID identifies the request (UUID).
	SearchID string

	// QueryHash is the SHA256 hash of the trimmed query, empty for a
	// blank query.
	QueryHash string

	// Categories are the requested category tags.
	Categories []string

	// Nested is true when actions and triggers were searched.
	Nested bool

	// ResultsCount is the number of pieces returned.
	ResultsCount int

	// Timestamp is when the search ran.
	Timestamp time.Time
}

// NewSearchEvent builds an event for req with a fresh search ID.
func NewSearchEvent(req search.Request, resultsCount int) SearchEvent {
	categories := make([]string, len(req.Categories))
	for i, c := range req.Categories {
		categories[i] = string(c)
	}

	query := strings.TrimSpace(req.SearchQuery)

	return SearchEvent{
		SearchID:     uuid.NewString(),
		QueryHash:    hashQuery(query),
		Categories:   categories,
		Nested:       req.IncludeActionsAndTriggers && query != "",
		ResultsCount: resultsCount,
		Timestamp:    time.Now(),
	}
}

// ToStorage converts the event to the storage model.
func (e SearchEvent) ToStorage() storage.SearchRecord {
	return storage.SearchRecord{
		SearchID:     e.SearchID,
		QueryHash:    e.QueryHash,
		Categories:   e.Categories,
		Nested:       e.Nested,
		Timestamp:    e.Timestamp,
		ResultsCount: e.ResultsCount,
	}
}

func hashQuery(query string) string {
	if query == "" {
		return ""
	}
	return storage.HashQuery(query)
}
