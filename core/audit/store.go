// Package audit keeps a history of the recommendations the planner produced.
package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/cleancharge/core/model"
)

// Modes of a recorded search.
const (
	ModeOptimal = "optimal"
	ModeAbove   = "above"
)

// Record captures one planning request and its outcome.
type Record struct {
	ID           string                        `json:"id"`
	CreatedAt    time.Time                     `json:"created_at"`
	Mode         string                        `json:"mode"`
	Provider     string                        `json:"provider"`
	Region       string                        `json:"region"`
	From         time.Time                     `json:"from"`
	To           time.Time                     `json:"to"`
	Requested    time.Duration                 `json:"requested"`
	Threshold    float64                       `json:"threshold,omitempty"`
	TieBreak     string                        `json:"tie_break"`
	PartialEdges bool                          `json:"partial_edges"`
	Samples      int                           `json:"samples"`
	Windows      []model.OptimalChargingWindow `json:"windows"`
}

// Query filters records. Zero fields match everything.
type Query struct {
	Start  time.Time
	End    time.Time
	Region string
	Mode   string
	Limit  int
}

// Match reports whether r passes the filters other than Limit.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.CreatedAt.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.CreatedAt.After(q.End) {
		return false
	}
	if q.Region != "" && r.Region != q.Region {
		return false
	}
	if q.Mode != "" && r.Mode != q.Mode {
		return false
	}
	return true
}

// Store persists Records and supports querying. Query returns records in
// creation order, keeping the newest Limit entries when Limit is set.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Finalize sorts matches by creation time and applies q.Limit.
func Finalize(recs []Record, q Query) []Record {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].CreatedAt.Before(recs[j].CreatedAt) })
	if q.Limit > 0 && len(recs) > q.Limit {
		recs = recs[len(recs)-q.Limit:]
	}
	return recs
}

// MemoryStore keeps records in memory.
type MemoryStore struct {
	mu   sync.RWMutex
	recs []Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return nil
}

func (s *MemoryStore) Query(_ context.Context, q Query) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, r := range s.recs {
		if q.Match(r) {
			out = append(out, r)
		}
	}
	return Finalize(out, q), nil
}

func (s *MemoryStore) Close() error { return nil }

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
