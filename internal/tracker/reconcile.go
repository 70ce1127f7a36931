package tracker

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/raphaelgruber/ragdex/internal/models"
)

// Reconcile replaces the held listing with docs and removes every completed
// registry entry whose document is now visible in it. Listing fetches are
// not ordered with respect to each other; whichever resolves last wins, so
// the listing is always replaced wholesale.
//
// Only success entries are eligible for removal: a processing entry's
// document may not exist upstream yet, and a failed one never will.
func (t *Tracker) Reconcile(docs []models.Document) {
	t.mu.Lock()
	t.docs = docs
	t.haveDocs = true

	names := listingNames(docs)
	var removed []string
	for id, op := range t.ops {
		if op.Status != StatusSuccess {
			continue
		}
		if matchesListing(names, op) {
			delete(t.ops, id)
			t.releaseLocked(id)
			removed = append(removed, id)
		}
	}

	t.recomputeStepLocked()
	t.cond.Broadcast()
	cb := t.onChange
	t.mu.Unlock()

	for _, id := range removed {
		t.unpersist(id)
		slog.Debug("operation superseded by listing", "operation", id)
	}
	if cb != nil {
		cb()
	}
}

// listingNames builds the match structure over a listing: both the stable
// name and the display name of every document.
func listingNames(docs []models.Document) map[string]struct{} {
	names := make(map[string]struct{}, 2*len(docs))
	for _, d := range docs {
		if d.Name != "" {
			names[d.Name] = struct{}{}
		}
		if d.DisplayName != "" {
			names[d.DisplayName] = struct{}{}
		}
	}
	return names
}

// matchesListing reports whether an operation corresponds to a listed
// document. Comparison is exact-string; documentPath is checked first,
// then the display and friendly names.
func matchesListing(names map[string]struct{}, op *Operation) bool {
	for _, key := range []string{op.DocumentPath, op.DisplayName, op.FriendlyName} {
		if key == "" {
			continue
		}
		if _, ok := names[key]; ok {
			return true
		}
	}
	return false
}

// Row is one line of the merged document view.
type Row struct {
	Name        string
	DisplayName string
	State       models.DocumentState
	Detail      string // error message for failed operations
	ChunkCount  int64
	SizeBytes   int64
	UpdateTime  string
	Provisional bool // backed by a registry entry, not the listing
}

// MergedView combines the authoritative listing with provisional rows for
// registry entries the listing does not cover yet. A non-empty registry
// with an empty listing therefore still yields rows, never an empty view.
func (t *Tracker) MergedView() []Row {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows := make([]Row, 0, len(t.docs)+len(t.ops))
	for _, d := range t.docs {
		rows = append(rows, Row{
			Name:        d.Name,
			DisplayName: d.Label(),
			State:       d.State,
			ChunkCount:  d.ChunkCount,
			SizeBytes:   d.SizeBytes,
			UpdateTime:  d.UpdateTime,
		})
	}

	names := listingNames(t.docs)
	var provisional []Row
	for _, op := range t.ops {
		if matchesListing(names, op) {
			// Already represented by a listing row; a second row would
			// show the same document twice.
			continue
		}
		row := Row{
			Name:        op.DocumentPath,
			DisplayName: op.Label(),
			Provisional: true,
		}
		switch op.Status {
		case StatusError:
			row.State = models.StateFailed
			row.Detail = op.Error
		default:
			// Success entries the listing has not caught up with are
			// still "indexing" from the user's point of view.
			row.State = models.StateProcessing
		}
		provisional = append(provisional, row)
	}
	slices.SortFunc(provisional, func(a, b Row) int {
		return strings.Compare(a.DisplayName, b.DisplayName)
	})

	return append(rows, provisional...)
}
