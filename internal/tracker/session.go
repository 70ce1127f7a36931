package tracker

import (
	"context"
	"log/slog"

	"github.com/raphaelgruber/ragdex/internal/client"
)

// ActiveStore returns the store id the tracker is currently scoped to.
func (t *Tracker) ActiveStore() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.storeID
}

// SelectStore makes storeID the active store and persists the selection.
//
// Switching to a different store without preserve cancels all polling,
// clears the registry (persisted rows of the old store included) and
// resets the progress step. With preserve (used
// when restoring a previously selected store on startup) the clear is
// skipped and persisted unfinished operations are resumed instead, so jobs
// started by an earlier invocation keep polling. Both paths end with a
// fresh listing fetch.
func (t *Tracker) SelectStore(ctx context.Context, storeID string, preserve bool) error {
	t.mu.Lock()
	prev := t.storeID
	changed := storeID != t.storeID
	t.storeID = storeID
	if changed && !preserve {
		t.clearLocked()
	}
	t.mu.Unlock()

	if changed && !preserve {
		// The abandoned operations are gone from memory; drop their
		// persisted rows too so a later re-selection starts clean.
		if t.store != nil && prev != "" {
			if err := t.store.ClearOperations(ctx, prev); err != nil {
				slog.Warn("failed to clear persisted operations", "store", prev, "error", err)
			}
		}
		t.notify()
	}

	if t.store != nil {
		if err := t.store.SetActiveStore(ctx, storeID); err != nil {
			slog.Warn("failed to persist store selection", "store", storeID, "error", err)
		}
	}

	if preserve {
		t.resume(ctx)
	}

	return t.RefreshListing(ctx)
}

// resume reloads persisted operations for the active store and restarts
// polling for the unfinished ones. Terminal entries are reloaded too:
// errors stay visible as badges and completed entries are removed by the
// next reconciliation once the listing shows their document.
func (t *Tracker) resume(ctx context.Context) {
	if t.store == nil {
		return
	}

	t.mu.Lock()
	storeID := t.storeID
	t.mu.Unlock()

	saved, err := t.store.Operations(ctx, storeID)
	if err != nil {
		slog.Warn("failed to load persisted operations", "store", storeID, "error", err)
		return
	}
	if len(saved) == 0 {
		return
	}

	resumed := 0
	t.mu.Lock()
	for _, rec := range saved {
		if _, exists := t.ops[rec.ID]; exists {
			continue
		}
		op := &Operation{
			ID:           rec.ID,
			DisplayName:  rec.DisplayName,
			FriendlyName: rec.FriendlyName,
			Status:       Status(rec.Status),
			Error:        rec.Error,
			DocumentPath: rec.DocumentPath,
		}
		t.ops[op.ID] = op
		t.uploaded = true
		if op.Status == StatusProcessing {
			loopCtx, cancel := context.WithCancel(context.Background())
			t.cancels[op.ID] = cancel
			go t.pollLoop(loopCtx, op.ID)
			resumed++
		}
	}
	t.recomputeStepLocked()
	t.mu.Unlock()

	slog.Info("restored tracked operations", "store", storeID, "loaded", len(saved), "polling", resumed)
	t.notify()
}

// Restore re-selects the persisted active store, preserving state. It is
// the startup path; returns the restored store id ("" if none was saved).
func (t *Tracker) Restore(ctx context.Context) (string, error) {
	if t.store == nil {
		return "", nil
	}
	storeID, err := t.store.ActiveStore(ctx)
	if err != nil || storeID == "" {
		return "", err
	}
	if err := t.SelectStore(ctx, storeID, true); err != nil {
		return storeID, err
	}
	return storeID, nil
}

// TrackAll inserts every descriptor from an ingestion response, pairing it
// with the matching friendly name when one is supplied.
func (t *Tracker) TrackAll(descs []client.OperationDescriptor, friendlyNames []string) {
	for i, desc := range descs {
		friendly := ""
		if i < len(friendlyNames) {
			friendly = friendlyNames[i]
		}
		t.Track(desc, friendly)
	}
}
