package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"caldera-hq/basalt/pkg/journal"
)

// TestMemoryStorage_StoreAndQuery tests storing and querying records.
func TestMemoryStorage_StoreAndQuery(t *testing.T) {
	store := NewMemoryStorage(0)
	ctx := context.Background()

	// Store a record
	now := time.Now()
	record := &journal.BuildRecord{
		ID:          "test-id-1",
		Machine:     "web01",
		StartedAt:   now,
		FinishedAt:  now.Add(2 * time.Second),
		RecordedAt:  now.Add(2 * time.Second),
		Environment: "production",
		Roles:       []string{"webgateway", "loghost"},
		Status:      "success",
		OptionCount: 42,
	}

	err := store.Store(ctx, record)
	if err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	// Query all records
	query := &journal.Query{}
	results, err := store.Query(ctx, query)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(results))
	}

	if results[0].ID != "test-id-1" {
		t.Errorf("Expected ID 'test-id-1', got '%s'", results[0].ID)
	}
	if len(results[0].Roles) != 2 {
		t.Errorf("Expected 2 roles, got %d", len(results[0].Roles))
	}
}

// TestMemoryStorage_QueryWithTimeRange tests time range filtering.
func TestMemoryStorage_QueryWithTimeRange(t *testing.T) {
	store := NewMemoryStorage(0)
	ctx := context.Background()

	// Store records with different timestamps
	now := time.Now()
	records := []*journal.BuildRecord{
		{
			ID:        "old-record",
			Machine:   "web01",
			StartedAt: now.Add(-2 * time.Hour),
			Status:    "success",
		},
		{
			ID:        "recent-record",
			Machine:   "web01",
			StartedAt: now.Add(-30 * time.Minute),
			Status:    "success",
		},
		{
			ID:        "new-record",
			Machine:   "web01",
			StartedAt: now,
			Status:    "success",
		},
	}

	for _, record := range records {
		if err := store.Store(ctx, record); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}

	// Query records from last hour
	startTime := now.Add(-1 * time.Hour)
	query := &journal.Query{
		StartTime: &startTime,
	}

	results, err := store.Query(ctx, query)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}

	// Should only get recent and new records
	if len(results) != 2 {
		t.Errorf("Expected 2 records, got %d", len(results))
	}

	// Verify old record is not included
	for _, r := range results {
		if r.ID == "old-record" {
			t.Error("Old record should not be in results")
		}
	}
}

// TestMemoryStorage_QueryWithFilters tests various filter combinations.
func TestMemoryStorage_QueryWithFilters(t *testing.T) {
	store := NewMemoryStorage(0)
	ctx := context.Background()

	// Store records with different attributes
	now := time.Now()
	records := []*journal.BuildRecord{
		{
			ID:          "record-1",
			Machine:     "web01",
			StartedAt:   now,
			Environment: "production",
			Roles:       []string{"webgateway", "loghost"},
			Status:      "success",
			OptionCount: 100,
		},
		{
			ID:          "record-2",
			Machine:     "db01",
			StartedAt:   now,
			Environment: "staging",
			Roles:       []string{"postgresql14"},
			Status:      "error",
			OptionCount: 20,
		},
		{
			ID:          "record-3",
			Machine:     "web01",
			StartedAt:   now,
			Environment: "production",
			Roles:       []string{"webgateway"},
			Status:      "success",
			OptionCount: 150,
		},
	}

	for _, record := range records {
		if err := store.Store(ctx, record); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}

	tests := []struct {
		name          string
		query         *journal.Query
		expectedCount int
		expectedIDs   []string
	}{
		{
			name: "filter by machine",
			query: &journal.Query{
				Machine: "web01",
			},
			expectedCount: 2,
			expectedIDs:   []string{"record-1", "record-3"},
		},
		{
			name: "filter by environment",
			query: &journal.Query{
				Environment: "staging",
			},
			expectedCount: 1,
			expectedIDs:   []string{"record-2"},
		},
		{
			name: "filter by role",
			query: &journal.Query{
				Role: "webgateway",
			},
			expectedCount: 2,
			expectedIDs:   []string{"record-1", "record-3"},
		},
		{
			name: "filter by status",
			query: &journal.Query{
				Status: "error",
			},
			expectedCount: 1,
			expectedIDs:   []string{"record-2"},
		},
		{
			name: "combined filters",
			query: &journal.Query{
				Machine:     "web01",
				Environment: "production",
				Role:        "loghost",
			},
			expectedCount: 1,
			expectedIDs:   []string{"record-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := store.Query(ctx, tt.query)
			if err != nil {
				t.Fatalf("Query() failed: %v", err)
			}

			if len(results) != tt.expectedCount {
				t.Errorf("Expected %d records, got %d", tt.expectedCount, len(results))
			}

			// Verify expected IDs are present
			foundIDs := make(map[string]bool)
			for _, r := range results {
				foundIDs[r.ID] = true
			}

			for _, expectedID := range tt.expectedIDs {
				if !foundIDs[expectedID] {
					t.Errorf("Expected to find record %s", expectedID)
				}
			}
		})
	}
}

// TestMemoryStorage_QueryWithOptionThresholds tests option count filtering.
func TestMemoryStorage_QueryWithOptionThresholds(t *testing.T) {
	store := NewMemoryStorage(0)
	ctx := context.Background()

	// Store records with different option counts
	now := time.Now()
	records := []*journal.BuildRecord{
		{ID: "small", Machine: "web01", StartedAt: now, OptionCount: 10},
		{ID: "medium", Machine: "web01", StartedAt: now, OptionCount: 100},
		{ID: "large", Machine: "web01", StartedAt: now, OptionCount: 1000},
	}

	for _, record := range records {
		if err := store.Store(ctx, record); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}

	// Query with min options
	minOptions := 50
	query := &journal.Query{
		MinOptions: &minOptions,
	}

	results, err := store.Query(ctx, query)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}

	// Should get medium and large
	if len(results) != 2 {
		t.Errorf("Expected 2 records, got %d", len(results))
	}

	// Query with max options
	maxOptions := 500
	query = &journal.Query{
		MaxOptions: &maxOptions,
	}

	results, err = store.Query(ctx, query)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}

	// Should get small and medium
	if len(results) != 2 {
		t.Errorf("Expected 2 records, got %d", len(results))
	}

	// Query with both min and max
	minOptions = 50
	maxOptions = 500
	query = &journal.Query{
		MinOptions: &minOptions,
		MaxOptions: &maxOptions,
	}

	results, err = store.Query(ctx, query)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}

	// Should only get medium
	if len(results) != 1 {
		t.Errorf("Expected 1 record, got %d", len(results))
	}
	if results[0].ID != "medium" {
		t.Errorf("Expected 'medium' record, got '%s'", results[0].ID)
	}
}

// TestMemoryStorage_Pagination tests limit and offset.
func TestMemoryStorage_Pagination(t *testing.T) {
	store := NewMemoryStorage(0)
	ctx := context.Background()

	// Store 10 records
	now := time.Now()
	for i := 0; i < 10; i++ {
		record := &journal.BuildRecord{
			ID:        fmt.Sprintf("record-%d", i),
			Machine:   "web01",
			StartedAt: now.Add(time.Duration(i) * time.Minute),
			Status:    "success",
		}
		if err := store.Store(ctx, record); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}

	// First page
	query := &journal.Query{Limit: 3}
	results, err := store.Query(ctx, query)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("Expected 3 records on first page, got %d", len(results))
	}

	// Second page
	query = &journal.Query{Limit: 3, Offset: 3}
	results, err = store.Query(ctx, query)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("Expected 3 records on second page, got %d", len(results))
	}

	// Offset beyond the result set
	query = &journal.Query{Limit: 3, Offset: 100}
	results, err = store.Query(ctx, query)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected 0 records beyond the end, got %d", len(results))
	}
}

// TestMemoryStorage_MaxRecords tests oldest-first eviction at the cap.
func TestMemoryStorage_MaxRecords(t *testing.T) {
	store := NewMemoryStorage(3)
	ctx := context.Background()

	// Store 5 records into a cap of 3
	now := time.Now()
	for i := 0; i < 5; i++ {
		record := &journal.BuildRecord{
			ID:        fmt.Sprintf("record-%d", i),
			Machine:   "web01",
			StartedAt: now.Add(time.Duration(i) * time.Minute),
			Status:    "success",
		}
		if err := store.Store(ctx, record); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}

	if store.Size() != 3 {
		t.Fatalf("Expected 3 records after eviction, got %d", store.Size())
	}

	// The two oldest records should be gone
	if store.GetByID("record-0") != nil {
		t.Error("record-0 should have been evicted")
	}
	if store.GetByID("record-1") != nil {
		t.Error("record-1 should have been evicted")
	}

	// The three newest should remain
	for i := 2; i < 5; i++ {
		id := fmt.Sprintf("record-%d", i)
		if store.GetByID(id) == nil {
			t.Errorf("%s should still be stored", id)
		}
	}
}

// TestMemoryStorage_Count tests counting records.
func TestMemoryStorage_Count(t *testing.T) {
	store := NewMemoryStorage(0)
	ctx := context.Background()

	now := time.Now()
	for i := 0; i < 5; i++ {
		status := "success"
		if i%2 == 1 {
			status = "error"
		}
		record := &journal.BuildRecord{
			ID:        fmt.Sprintf("record-%d", i),
			Machine:   "web01",
			StartedAt: now,
			Status:    status,
		}
		if err := store.Store(ctx, record); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}

	count, err := store.Count(ctx, &journal.Query{})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected count 5, got %d", count)
	}

	count, err = store.Count(ctx, &journal.Query{Status: "error"})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 error records, got %d", count)
	}
}

// TestMemoryStorage_Delete tests deleting records.
func TestMemoryStorage_Delete(t *testing.T) {
	store := NewMemoryStorage(0)
	ctx := context.Background()

	now := time.Now()
	records := []*journal.BuildRecord{
		{ID: "keep-1", Machine: "web01", StartedAt: now, Status: "success"},
		{ID: "delete-1", Machine: "db01", StartedAt: now, Status: "success"},
		{ID: "keep-2", Machine: "web01", StartedAt: now, Status: "success"},
	}

	for _, record := range records {
		if err := store.Store(ctx, record); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}

	// Delete db01 records
	deleted, err := store.Delete(ctx, &journal.Query{Machine: "db01"})
	if err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted record, got %d", deleted)
	}

	if store.Size() != 2 {
		t.Errorf("Expected 2 remaining records, got %d", store.Size())
	}
	if store.GetByID("delete-1") != nil {
		t.Error("delete-1 should have been deleted")
	}

	// Query order must stay intact after deletion
	results, err := store.Query(ctx, &journal.Query{})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(results))
	}
	if results[0].ID != "keep-1" || results[1].ID != "keep-2" {
		t.Errorf("Expected insertion order keep-1, keep-2, got %s, %s", results[0].ID, results[1].ID)
	}
}

// TestMemoryStorage_QueryStream tests streaming query results.
func TestMemoryStorage_QueryStream(t *testing.T) {
	store := NewMemoryStorage(0)
	ctx := context.Background()

	now := time.Now()
	for i := 0; i < 5; i++ {
		record := &journal.BuildRecord{
			ID:        fmt.Sprintf("record-%d", i),
			Machine:   "web01",
			StartedAt: now,
			Status:    "success",
		}
		if err := store.Store(ctx, record); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}

	recordsCh, errCh, err := store.QueryStream(ctx, &journal.Query{})
	if err != nil {
		t.Fatalf("QueryStream() failed: %v", err)
	}

	received := 0
	for range recordsCh {
		received++
	}

	if err := <-errCh; err != nil {
		t.Fatalf("QueryStream() error: %v", err)
	}

	if received != 5 {
		t.Errorf("Expected 5 streamed records, got %d", received)
	}
}

// TestMemoryStorage_QueryStreamCancellation tests context cancellation during streaming.
func TestMemoryStorage_QueryStreamCancellation(t *testing.T) {
	store := NewMemoryStorage(0)
	ctx := context.Background()

	now := time.Now()
	for i := 0; i < 500; i++ {
		record := &journal.BuildRecord{
			ID:        fmt.Sprintf("record-%d", i),
			Machine:   "web01",
			StartedAt: now,
			Status:    "success",
		}
		if err := store.Store(ctx, record); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}

	streamCtx, cancel := context.WithCancel(ctx)

	recordsCh, errCh, err := store.QueryStream(streamCtx, &journal.Query{})
	if err != nil {
		t.Fatalf("QueryStream() failed: %v", err)
	}

	// Read one record, then cancel
	<-recordsCh
	cancel()

	// Drain until close
	for range recordsCh {
	}

	// The stream either finished before cancellation took effect or
	// reported the cancellation.
	if err := <-errCh; err != nil && err != context.Canceled {
		t.Errorf("Expected context.Canceled or nil, got %v", err)
	}
}

// TestMemoryStorage_CopyOnStore verifies records cannot be mutated
// through the caller's pointer after storing.
func TestMemoryStorage_CopyOnStore(t *testing.T) {
	store := NewMemoryStorage(0)
	ctx := context.Background()

	record := &journal.BuildRecord{
		ID:      "mutable",
		Machine: "web01",
		Status:  "success",
	}
	if err := store.Store(ctx, record); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	// Mutate the caller's copy
	record.Status = "error"

	stored := store.GetByID("mutable")
	if stored == nil {
		t.Fatal("record not found")
	}
	if stored.Status != "success" {
		t.Errorf("stored record was mutated, status = %s", stored.Status)
	}
}

// TestMemoryStorage_ConcurrentAccess tests concurrent stores and queries.
func TestMemoryStorage_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStorage(0)
	ctx := context.Background()

	var wg sync.WaitGroup
	now := time.Now()

	// 10 goroutines storing 20 records each
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				record := &journal.BuildRecord{
					ID:        fmt.Sprintf("record-%d-%d", g, i),
					Machine:   "web01",
					StartedAt: now,
					Status:    "success",
				}
				if err := store.Store(ctx, record); err != nil {
					t.Errorf("Store() failed: %v", err)
				}
			}
		}(g)
	}

	// Concurrent queries
	for g := 0; g < 5; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				if _, err := store.Query(ctx, &journal.Query{}); err != nil {
					t.Errorf("Query() failed: %v", err)
				}
			}
		}()
	}

	wg.Wait()

	if store.Size() != 200 {
		t.Errorf("Expected 200 records, got %d", store.Size())
	}
}

// TestMemoryStorage_Close tests that Close clears storage.
func TestMemoryStorage_Close(t *testing.T) {
	store := NewMemoryStorage(0)
	ctx := context.Background()

	record := &journal.BuildRecord{ID: "r1", Machine: "web01", Status: "success"}
	if err := store.Store(ctx, record); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	if store.Size() != 0 {
		t.Errorf("Expected empty storage after Close, got %d records", store.Size())
	}
}
