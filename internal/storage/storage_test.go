/*
Package storage provides tests for the storage layer.
*/
package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	storage := &SQLiteStorage{
		dbPath:  filepath.Join(t.TempDir(), "test.db"),
		enabled: true,
	}
	if err := storage.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}

// TestNewStorage verifies default and explicit paths.
func TestNewStorage(t *testing.T) {
	storage := NewStorage("")
	if storage == nil {
		t.Fatal("NewStorage returned nil")
	}
	if storage.Path() != "" && filepath.Base(storage.Path()) != "history.db" {
		t.Errorf("unexpected default path %q", storage.Path())
	}

	custom := NewStorage("/tmp/custom.db")
	if custom.Path() != "/tmp/custom.db" {
		t.Errorf("expected custom path, got %q", custom.Path())
	}
}

// TestInit verifies database initialization and schema creation.
func TestInit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

	storage := &SQLiteStorage{
		dbPath:  dbPath,
		enabled: true,
	}

	if err := storage.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer storage.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file not created")
	}

	if !storage.Enabled() {
		t.Error("storage should be enabled after Init")
	}

	// Init is idempotent
	if err := storage.Init(); err != nil {
		t.Errorf("second Init failed: %v", err)
	}
}

// TestMigrationsAreRecorded verifies reopening does not rerun migrations.
func TestMigrationsAreRecorded(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	first := &SQLiteStorage{dbPath: dbPath, enabled: true}
	if err := first.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	first.Close()

	second := &SQLiteStorage{dbPath: dbPath, enabled: true}
	if err := second.Init(); err != nil {
		t.Fatalf("reopen Init failed: %v", err)
	}
	defer second.Close()

	version, err := second.getCurrentMigrationVersion()
	if err != nil {
		t.Fatalf("getCurrentMigrationVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("expected migration version 1, got %d", version)
	}
}

// TestRecordSearch verifies recording and listing searches.
func TestRecordSearch(t *testing.T) {
	storage := newTestStorage(t)
	now := time.Now()

	records := []SearchRecord{
		{SearchID: "a", QueryHash: HashQuery("slack"), Timestamp: now.Add(-2 * time.Minute), ResultsCount: 1},
		{SearchID: "b", QueryHash: HashQuery("create row"), Categories: []string{"PRODUCTIVITY"}, Nested: true, Timestamp: now.Add(-time.Minute), ResultsCount: 3},
		{SearchID: "c", Categories: []string{"COMMUNICATION", "PRODUCTIVITY"}, Timestamp: now, ResultsCount: 0},
	}
	for _, r := range records {
		if err := storage.RecordSearch(r); err != nil {
			t.Fatalf("RecordSearch failed: %v", err)
		}
	}

	recent, err := storage.RecentSearches(10)
	if err != nil {
		t.Fatalf("RecentSearches failed: %v", err)
	}

	if len(recent) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(recent))
	}

	if recent[0].SearchID != "c" || recent[2].SearchID != "a" {
		t.Errorf("expected newest first, got %s..%s", recent[0].SearchID, recent[2].SearchID)
	}

	if !recent[1].Nested {
		t.Error("expected record b to be nested")
	}

	if len(recent[1].Categories) != 1 || recent[1].Categories[0] != "PRODUCTIVITY" {
		t.Errorf("unexpected categories %v", recent[1].Categories)
	}

	if len(recent[2].Categories) != 0 {
		t.Errorf("expected no categories, got %v", recent[2].Categories)
	}

	if !recent[0].Timestamp.Equal(now.UTC().Truncate(time.Nanosecond)) {
		t.Errorf("timestamp round trip: got %v, want %v", recent[0].Timestamp, now)
	}

	limited, err := storage.RecentSearches(1)
	if err != nil {
		t.Fatalf("RecentSearches failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}
}

// TestStats verifies search aggregation.
func TestStats(t *testing.T) {
	storage := newTestStorage(t)
	now := time.Now()

	records := []SearchRecord{
		{SearchID: "old", Categories: []string{"SALES_AND_CRM"}, Timestamp: now.Add(-48 * time.Hour), ResultsCount: 9},
		{SearchID: "1", Categories: []string{"PRODUCTIVITY"}, Nested: true, Timestamp: now.Add(-time.Hour), ResultsCount: 4},
		{SearchID: "2", Categories: []string{"PRODUCTIVITY", "COMMUNICATION"}, Timestamp: now.Add(-time.Minute), ResultsCount: 0},
		{SearchID: "3", Timestamp: now, ResultsCount: 2},
	}
	for _, r := range records {
		storage.RecordSearch(r)
	}

	stats, err := storage.Stats(now.Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if stats.Total != 3 {
		t.Errorf("Expected 3 searches, got %d", stats.Total)
	}
	if stats.Nested != 1 {
		t.Errorf("Expected 1 nested search, got %d", stats.Nested)
	}
	if stats.ZeroResults != 1 {
		t.Errorf("Expected 1 zero-result search, got %d", stats.ZeroResults)
	}
	if stats.AvgResults != 2 {
		t.Errorf("Expected average 2, got %v", stats.AvgResults)
	}
	if stats.Categories["PRODUCTIVITY"] != 2 || stats.Categories["COMMUNICATION"] != 1 {
		t.Errorf("unexpected category counts %v", stats.Categories)
	}
	if _, ok := stats.Categories["SALES_AND_CRM"]; ok {
		t.Error("records before since should be excluded")
	}
}

// TestCleanup verifies retention pruning.
func TestCleanup(t *testing.T) {
	storage := newTestStorage(t)
	now := time.Now()

	storage.RecordSearch(SearchRecord{SearchID: "old", Timestamp: now.Add(-40 * 24 * time.Hour)})
	storage.RecordSearch(SearchRecord{SearchID: "new", Timestamp: now})

	if err := storage.Cleanup(30 * 24 * time.Hour); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}

	recent, err := storage.RecentSearches(10)
	if err != nil {
		t.Fatalf("RecentSearches failed: %v", err)
	}
	if len(recent) != 1 || recent[0].SearchID != "new" {
		t.Errorf("expected only the new record, got %v", recent)
	}
}

// TestHashQuery verifies query hashing consistency.
func TestHashQuery(t *testing.T) {
	query := "test query for hashing"

	hash1 := HashQuery(query)
	hash2 := HashQuery(query)

	if hash1 != hash2 {
		t.Error("HashQuery produced inconsistent results")
	}

	if len(hash1) != 64 { // SHA256 hex = 64 chars
		t.Errorf("Expected hash length 64, got %d", len(hash1))
	}

	if HashQuery("other") == hash1 {
		t.Error("different queries should hash differently")
	}
}

// TestGracefulDegradation verifies behavior when DB is unavailable.
func TestGracefulDegradation(t *testing.T) {
	// A regular file where a directory is expected fails even for root.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	storage := &SQLiteStorage{
		dbPath:  filepath.Join(blocker, "sub", "test.db"),
		enabled: true,
	}

	if err := storage.Init(); err == nil {
		t.Error("Init should report the failure")
	}

	if storage.Enabled() {
		t.Error("storage should be disabled after failed Init")
	}

	if err := storage.RecordSearch(SearchRecord{SearchID: "x", Timestamp: time.Now()}); err != nil {
		t.Errorf("RecordSearch should return nil on disabled storage, got: %v", err)
	}

	recent, err := storage.RecentSearches(5)
	if err != nil {
		t.Errorf("RecentSearches should not error on disabled storage, got: %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("Expected empty history on disabled storage, got %d records", len(recent))
	}

	if _, err := storage.Stats(time.Time{}); err != nil {
		t.Errorf("Stats should not error on disabled storage, got: %v", err)
	}

	if err := storage.Cleanup(time.Hour); err != nil {
		t.Errorf("Cleanup should not error on disabled storage, got: %v", err)
	}

	if err := storage.Close(); err != nil {
		t.Errorf("Close should not error on disabled storage, got: %v", err)
	}
}

func TestDisabled(t *testing.T) {
	storage := Disabled()
	if err := storage.Init(); err != nil {
		t.Errorf("Init on disabled storage: %v", err)
	}
	if storage.Enabled() {
		t.Error("Disabled() should not be enabled")
	}
}
