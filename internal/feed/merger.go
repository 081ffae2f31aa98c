// Package feed implements the DataFeed Merger (spec §4.4): a k-way merge
// of per-subscription, individually time-ordered streams into a single
// lazy sequence of Slices with strictly non-decreasing time, each
// containing all data whose endTime equals that instant.
//
// Grounded on the teacher's work-queue draining pattern (internal/work):
// several producer streams feeding one consumer loop, generalized from a
// priority worklist to a min-heap merge keyed by next endTime.
package feed

import (
	"container/heap"
	"fmt"

	"github.com/aristath/tradesim/internal/marketdata"
)

// Source is one subscription's lazy, individually time-ordered stream.
// Next returns the next sample and true, or the zero value and false when
// the stream is exhausted.
type Source interface {
	Symbol() marketdata.Symbol
	InsertionOrder() int
	Next() (marketdata.BaseData, bool)
}

type heapEntry struct {
	source  Source
	pending marketdata.BaseData
	symHash string
}

type sourceHeap []*heapEntry

func (h sourceHeap) Len() int { return len(h) }
func (h sourceHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if !a.pending.EndTime.Equal(b.pending.EndTime) {
		return a.pending.EndTime.Before(b.pending.EndTime)
	}
	// Tie-break: stable by subscription insertion order, then symbol hash,
	// to guarantee replay determinism (spec §4.4).
	if a.source.InsertionOrder() != b.source.InsertionOrder() {
		return a.source.InsertionOrder() < b.source.InsertionOrder()
	}
	return a.symHash < b.symHash
}
func (h sourceHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *sourceHeap) Push(x interface{}) {
	*h = append(*h, x.(*heapEntry))
}
func (h *sourceHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Merger performs the k-way merge across every registered Source.
type Merger struct {
	h        sourceHeap
	strict   bool
	sessionSamples map[string]bool // which subscriptions produced ≥1 sample this run
}

// NewMerger creates a Merger over sources. strict, when true, causes Next
// to return an error if the feed as a whole produces zero events over the
// whole run (spec §4.4 fatal failure mode); false treats every silent
// subscription as merely empty.
func NewMerger(sources []Source, strict bool) *Merger {
	m := &Merger{strict: strict, sessionSamples: make(map[string]bool)}
	for _, s := range sources {
		if d, ok := s.Next(); ok {
			entry := &heapEntry{source: s, pending: d, symHash: s.Symbol().ID.String()}
			m.h = append(m.h, entry)
		}
	}
	heap.Init(&m.h)
	return m
}

// Next pops every heap entry whose pending endTime equals the current
// minimum, advances each of those sources, and returns the merged Slice.
// Returns (nil, nil) when every source is exhausted, or (nil, error) in
// strict mode when no source produced any sample.
func (m *Merger) Next() (*marketdata.Slice, error) {
	if m.h.Len() == 0 {
		if m.strict && len(m.sessionSamples) == 0 {
			return nil, fmt.Errorf("feed: strict mode requires at least one sample, produced none")
		}
		return nil, nil
	}

	minTime := m.h[0].pending.EndTime
	slice := marketdata.NewSlice(minTime)

	for m.h.Len() > 0 && m.h[0].pending.EndTime.Equal(minTime) {
		entry := heap.Pop(&m.h).(*heapEntry)
		slice.Add(entry.pending)
		m.sessionSamples[entry.symHash] = true

		if next, ok := entry.source.Next(); ok {
			entry.pending = next
			heap.Push(&m.h, entry)
		}
	}

	return slice, nil
}
