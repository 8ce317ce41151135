package storage

import (
	"context"
	"sync"

	"caldera-hq/basalt/pkg/journal"
)

// MemoryStorage implements the Storage interface using an in-memory map.
// It keeps at most maxRecords records, dropping the oldest when the cap is
// reached. Intended for tests and ephemeral machines without persistent
// state.
type MemoryStorage struct {
	records    map[string]*journal.BuildRecord
	order      []string // record IDs in insertion order, oldest first
	maxRecords int
	mu         sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
// A maxRecords of zero or less means unbounded.
func NewMemoryStorage(maxRecords int) *MemoryStorage {
	return &MemoryStorage{
		records:    make(map[string]*journal.BuildRecord),
		maxRecords: maxRecords,
	}
}

// Store persists a build record to memory. When the record cap is reached
// the oldest record is evicted first.
func (s *MemoryStorage) Store(ctx context.Context, record *journal.BuildRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Evict oldest records until there is room
	if s.maxRecords > 0 {
		for len(s.order) >= s.maxRecords {
			oldest := s.order[0]
			s.order = s.order[1:]
			delete(s.records, oldest)
		}
	}

	// Create a copy to avoid mutation
	recordCopy := *record
	if _, exists := s.records[record.ID]; !exists {
		s.order = append(s.order, record.ID)
	}
	s.records[record.ID] = &recordCopy

	return nil
}

// Query retrieves build records matching the query filters.
func (s *MemoryStorage) Query(ctx context.Context, query *journal.Query) ([]*journal.BuildRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*journal.BuildRecord

	// Walk in insertion order so pagination is stable
	for _, id := range s.order {
		record := s.records[id]
		if s.matchesQuery(record, query) {
			// Create a copy to avoid mutation
			recordCopy := *record
			results = append(results, &recordCopy)
		}
	}

	// Apply pagination
	start := query.Offset
	if start > len(results) {
		return []*journal.BuildRecord{}, nil
	}

	end := start + query.Limit
	if end > len(results) {
		end = len(results)
	}

	if query.Limit > 0 {
		results = results[start:end]
	}

	return results, nil
}

// QueryStream returns a channel of build records for memory-efficient streaming.
// Use this for large result sets to avoid loading everything in memory.
// The channels will be closed when the query completes or errors.
func (s *MemoryStorage) QueryStream(ctx context.Context, query *journal.Query) (<-chan *journal.BuildRecord, <-chan error, error) {
	recordsCh := make(chan *journal.BuildRecord, 100) // Buffer 100 records
	errCh := make(chan error, 1)

	// Start goroutine to stream results
	go func() {
		defer close(recordsCh)
		defer close(errCh)

		s.mu.RLock()
		defer s.mu.RUnlock()

		// Stream filtered records in insertion order
		count := 0
		for _, id := range s.order {
			// Check for context cancellation
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			default:
			}

			record := s.records[id]

			// Check if record matches query
			if !s.matchesQuery(record, query) {
				continue
			}

			// Apply offset
			if count < query.Offset {
				count++
				continue
			}

			// Apply limit
			if query.Limit > 0 && count >= query.Offset+query.Limit {
				break
			}

			// Create a copy to avoid mutation
			recordCopy := *record

			// Send record to channel
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case recordsCh <- &recordCopy:
				count++
			}
		}
	}()

	return recordsCh, errCh, nil
}

// Count returns the number of build records matching the query filters.
func (s *MemoryStorage) Count(ctx context.Context, query *journal.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64

	for _, record := range s.records {
		if s.matchesQuery(record, query) {
			count++
		}
	}

	return count, nil
}

// Delete removes build records matching the query filters.
func (s *MemoryStorage) Delete(ctx context.Context, query *journal.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64

	// Find records to delete
	toDelete := map[string]bool{}
	for id, record := range s.records {
		if s.matchesQuery(record, query) {
			toDelete[id] = true
		}
	}

	// Delete records, keeping the order slice consistent
	remaining := s.order[:0]
	for _, id := range s.order {
		if toDelete[id] {
			delete(s.records, id)
			deleted++
			continue
		}
		remaining = append(remaining, id)
	}
	s.order = remaining

	return deleted, nil
}

// Close releases resources held by the storage backend.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*journal.BuildRecord)
	s.order = nil
	return nil
}

// matchesQuery checks if a record matches the query filters.
func (s *MemoryStorage) matchesQuery(record *journal.BuildRecord, query *journal.Query) bool {
	// Time range filter
	if query.StartTime != nil && record.StartedAt.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && record.StartedAt.After(*query.EndTime) {
		return false
	}

	// Machine/environment filter
	if query.Machine != "" && record.Machine != query.Machine {
		return false
	}
	if query.Environment != "" && record.Environment != query.Environment {
		return false
	}

	// Role filter
	if query.Role != "" {
		found := false
		for _, role := range record.Roles {
			if role == query.Role {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	// Status filter
	if query.Status != "" && record.Status != query.Status {
		return false
	}

	// Option count thresholds
	if query.MinOptions != nil && record.OptionCount < *query.MinOptions {
		return false
	}
	if query.MaxOptions != nil && record.OptionCount > *query.MaxOptions {
		return false
	}

	return true
}

// Clear removes all records from storage (for testing).
func (s *MemoryStorage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*journal.BuildRecord)
	s.order = nil
}

// GetByID retrieves a single build record by ID (for testing).
func (s *MemoryStorage) GetByID(id string) *journal.BuildRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil
	}

	// Return a copy
	recordCopy := *record
	return &recordCopy
}

// Size returns the number of records in storage (for testing).
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}
