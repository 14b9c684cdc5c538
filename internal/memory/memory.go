// Package memory implements a bounded associative working set for
// retrieved passages. Repeated observations consolidate into summaries;
// the coldest keys are evicted when the set outgrows its capacity.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/avoronov/kbase/internal/fingerprint"
)

// DefaultCapacity bounds the number of distinct content keys held live.
const DefaultCapacity = 1000

type occurrence struct {
	content   string
	metadata  map[string]string
	timestamp time.Time
}

// ConsolidatedEntry is the summarized form of a repeatedly observed
// content key. It survives eviction of its live entries.
type ConsolidatedEntry struct {
	Content     string // unique contents, " | "-joined
	Frequency   int
	LastUpdated time.Time
}

// Memory is the process-wide consolidating store. All methods are safe
// for concurrent use; consolidation rewrites the consolidated map, so
// mutation is serialized on one mutex.
type Memory struct {
	mu       sync.Mutex
	capacity int

	live map[string][]occurrence

	consolidated map[string]ConsolidatedEntry
	order        []string // consolidated-map insertion order, for deterministic summaries

	now func() time.Time
}

// New creates a Memory with the given capacity (DefaultCapacity when
// non-positive).
func New(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{
		capacity:     capacity,
		live:         make(map[string][]occurrence),
		consolidated: make(map[string]ConsolidatedEntry),
		now:          time.Now,
	}
}

// Record registers one observation of content. When the number of
// distinct keys exceeds capacity, a consolidation pass runs and the
// coldest keys are evicted.
func (m *Memory) Record(content string, metadata map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := fingerprint.Text(content)
	m.live[key] = append(m.live[key], occurrence{
		content:   content,
		metadata:  metadata,
		timestamp: m.now(),
	})

	if len(m.live) > m.capacity {
		m.consolidate()
	}
}

// consolidate recomputes a ConsolidatedEntry for every key with at least
// two occurrences (a full recompute each pass, not incremental), then
// evicts the oldest keys until the live count is back at capacity.
// Evicted keys keep their consolidated summaries. A key with a single
// occurrence never consolidates; evicting it forgets it entirely.
func (m *Memory) consolidate() {
	for key, items := range m.live {
		if len(items) < 2 {
			continue
		}
		if _, ok := m.consolidated[key]; !ok {
			m.order = append(m.order, key)
		}
		m.consolidated[key] = ConsolidatedEntry{
			Content:     mergeContents(items),
			Frequency:   len(items),
			LastUpdated: maxTimestamp(items),
		}
	}

	excess := len(m.live) - m.capacity
	if excess <= 0 {
		return
	}

	keys := make([]string, 0, len(m.live))
	for key := range m.live {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return minTimestamp(m.live[keys[i]]).Before(minTimestamp(m.live[keys[j]]))
	})

	for _, key := range keys[:excess] {
		delete(m.live, key)
	}
}

// Summary space-joins every consolidated entry's merged content in
// insertion order.
func (m *Memory) Summary() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	parts := make([]string, 0, len(m.order))
	for _, key := range m.order {
		parts = append(parts, m.consolidated[key].Content)
	}
	return strings.Join(parts, " ")
}

// Consolidated returns the consolidated entry for a content string, if
// one exists.
func (m *Memory) Consolidated(content string) (ConsolidatedEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.consolidated[fingerprint.Text(content)]
	return entry, ok
}

// Len returns the number of distinct live keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// mergeContents joins the unique content strings of a key's occurrences,
// preserving first-seen order.
func mergeContents(items []occurrence) string {
	seen := make(map[string]bool, len(items))
	var unique []string
	for _, item := range items {
		if seen[item.content] {
			continue
		}
		seen[item.content] = true
		unique = append(unique, item.content)
	}
	return strings.Join(unique, " | ")
}

func minTimestamp(items []occurrence) time.Time {
	min := items[0].timestamp
	for _, item := range items[1:] {
		if item.timestamp.Before(min) {
			min = item.timestamp
		}
	}
	return min
}

func maxTimestamp(items []occurrence) time.Time {
	max := items[0].timestamp
	for _, item := range items[1:] {
		if item.timestamp.After(max) {
			max = item.timestamp
		}
	}
	return max
}
