package storage

import (
	"time"

	"github.com/rs/zerolog/log"
)

// RecordSearch records a discovery request.
func (s *SQLiteStorage) RecordSearch(search SearchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.db == nil {
		return nil
	}

	query := `
		INSERT INTO search_history (search_id, query_hash, categories, nested, timestamp, results_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		search.SearchID,
		search.QueryHash,
		categoriesToJSON(search.Categories),
		boolToInt(search.Nested),
		search.Timestamp.UTC().Format(timeLayout),
		search.ResultsCount,
	)

	if err != nil {
		log.Warn().Err(err).Str("search_id", search.SearchID).Msg("failed to record search")
	}

	return nil
}

// RecentSearches returns up to limit records, newest first.
func (s *SQLiteStorage) RecentSearches(limit int) ([]SearchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.db == nil {
		return []SearchRecord{}, nil
	}

	query := `
		SELECT search_id, query_hash, categories, nested, timestamp, results_count
		FROM search_history
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		log.Warn().Err(err).Msg("failed to query search history")
		return []SearchRecord{}, nil
	}
	defer rows.Close()

	records := []SearchRecord{}
	for rows.Next() {
		var (
			record        SearchRecord
			categoriesStr string
			nested        int
			timestampStr  string
		)

		if err := rows.Scan(
			&record.SearchID,
			&record.QueryHash,
			&categoriesStr,
			&nested,
			&timestampStr,
			&record.ResultsCount,
		); err != nil {
			log.Warn().Err(err).Msg("failed to scan search row")
			continue
		}

		record.Nested = nested == 1

		record.Categories, err = jsonToCategories(categoriesStr)
		if err != nil {
			log.Warn().Err(err).Str("search_id", record.SearchID).Msg("failed to parse categories")
		}

		record.Timestamp, err = time.Parse(timeLayout, timestampStr)
		if err != nil {
			log.Warn().Err(err).Str("search_id", record.SearchID).Msg("failed to parse timestamp")
			continue
		}

		records = append(records, record)
	}

	return records, rows.Err()
}

// Stats aggregates the searches recorded since a given time.
func (s *SQLiteStorage) Stats(since time.Time) (SearchStats, error) {
	stats := SearchStats{Categories: map[string]int{}}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.db == nil {
		return stats, nil
	}

	cutoff := since.UTC().Format(timeLayout)

	row := s.db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(nested), 0),
			COALESCE(SUM(CASE WHEN results_count = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(results_count), 0)
		FROM search_history
		WHERE timestamp >= ?
	`, cutoff)
	if err := row.Scan(&stats.Total, &stats.Nested, &stats.ZeroResults, &stats.AvgResults); err != nil {
		return stats, err
	}

	rows, err := s.db.Query(`SELECT categories FROM search_history WHERE timestamp >= ? AND categories != '[]'`, cutoff)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var categoriesStr string
		if err := rows.Scan(&categoriesStr); err != nil {
			log.Warn().Err(err).Msg("failed to scan categories row")
			continue
		}
		categories, err := jsonToCategories(categoriesStr)
		if err != nil {
			log.Warn().Err(err).Msg("failed to parse categories")
			continue
		}
		for _, c := range categories {
			stats.Categories[c]++
		}
	}

	return stats, rows.Err()
}

// Cleanup removes records older than the retention period.
func (s *SQLiteStorage) Cleanup(retention time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.db == nil {
		return nil
	}

	cutoff := time.Now().Add(-retention).UTC().Format(timeLayout)

	if _, err := s.db.Exec("DELETE FROM search_history WHERE timestamp < ?", cutoff); err != nil {
		log.Warn().Err(err).Msg("failed to cleanup search_history")
	}

	// Vacuum to reclaim space
	if _, err := s.db.Exec("VACUUM"); err != nil {
		log.Warn().Err(err).Msg("failed to vacuum database")
	}

	return nil
}
