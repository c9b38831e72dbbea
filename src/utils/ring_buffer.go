package utils

import (
	"sync"

	"energy-forecast/src/models"
)

const defaultHistoryCapacity = 100

// -----------------------------------------------------------------------------
// RunHistory is a fixed-size circular buffer of recent pipeline runs.
// True ring buffer - no resizing allowed!
// -----------------------------------------------------------------------------

type RunHistory struct {
	mu       sync.RWMutex
	data     []models.MRunRecord
	capacity int
	index    int // Next write position
	size     int // Current number of elements
}

// -----------------------------------------------------------------------------

// NewRunHistory creates a new buffer with fixed capacity
func NewRunHistory(capacity int) *RunHistory {
	if capacity <= 0 {
		capacity = defaultHistoryCapacity
	}

	return &RunHistory{
		data:     make([]models.MRunRecord, capacity),
		capacity: capacity,
	}
}

// -----------------------------------------------------------------------------

// Append records a run, overwriting the oldest once full.
func (rh *RunHistory) Append(record models.MRunRecord) {
	rh.mu.Lock()
	defer rh.mu.Unlock()

	rh.data[rh.index] = record
	rh.index = (rh.index + 1) % rh.capacity

	// Update size (never exceeds capacity)
	if rh.size < rh.capacity {
		rh.size++
	}
}

// -----------------------------------------------------------------------------

// GetLatest returns up to n latest records, oldest first.
func (rh *RunHistory) GetLatest(n int) []models.MRunRecord {
	rh.mu.RLock()
	defer rh.mu.RUnlock()

	if rh.size == 0 || n <= 0 {
		return []models.MRunRecord{}
	}

	count := n
	if n > rh.size {
		count = rh.size
	}

	result := make([]models.MRunRecord, count)

	// Latest record is at index-1
	startIdx := (rh.index - count + rh.capacity) % rh.capacity
	for i := 0; i < count; i++ {
		result[i] = rh.data[(startIdx+i)%rh.capacity]
	}
	return result
}

// GetAll returns all records in insertion order (oldest to newest)
func (rh *RunHistory) GetAll() []models.MRunRecord {
	return rh.GetLatest(rh.capacity)
}

// -----------------------------------------------------------------------------

func (rh *RunHistory) Size() int {
	rh.mu.RLock()
	defer rh.mu.RUnlock()
	return rh.size
}

func (rh *RunHistory) Capacity() int {
	return rh.capacity
}
