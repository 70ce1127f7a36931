// Package tracker maintains the registry of in-flight indexing operations,
// polls their status, and reconciles them against the authoritative
// document listing of the active store.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/raphaelgruber/ragdex/internal/client"
	"github.com/raphaelgruber/ragdex/internal/models"
	"github.com/raphaelgruber/ragdex/internal/state"
)

// PollInterval is the fixed delay between successive status polls of the
// same operation. Matches the service contract; deliberately no backoff.
const PollInterval = 4 * time.Second

// Status is the state of a tracked operation.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// Operation is one in-flight or resolved indexing job.
type Operation struct {
	ID           string
	DisplayName  string
	FriendlyName string
	Status       Status
	Error        string
	DocumentPath string
}

// Label returns the preferred display name: the friendly name supplied by
// the initiating action wins over server metadata.
func (o Operation) Label() string {
	if o.FriendlyName != "" {
		return o.FriendlyName
	}
	if o.DisplayName != "" {
		return o.DisplayName
	}
	return o.ID
}

// API is the slice of the service client the tracker depends on.
type API interface {
	GetOperationStatus(ctx context.Context, name string) (*client.OperationStatus, error)
	ListDocuments(ctx context.Context, storeID string) ([]models.Document, error)
}

// Options configures a Tracker.
type Options struct {
	// Interval overrides the poll interval. For tests only; the service
	// contract is PollInterval.
	Interval time.Duration
	// OnChange is invoked after every registry or listing mutation.
	OnChange func()
}

// Tracker owns the operation registry. All registry access is serialized
// behind a single mutex; poll loops, reconciliation and readers never
// touch the maps directly.
type Tracker struct {
	api      API
	store    *state.DB // optional persistence, may be nil
	interval time.Duration

	mu       sync.Mutex
	cond     *sync.Cond
	storeID  string
	ops      map[string]*Operation
	cancels  map[string]context.CancelFunc
	docs     []models.Document
	haveDocs bool
	uploaded bool
	step     Step
	onChange func()
}

// New creates a tracker backed by the given service client and optional
// state database.
func New(svc API, store *state.DB, opts Options) *Tracker {
	interval := opts.Interval
	if interval <= 0 {
		interval = PollInterval
	}
	t := &Tracker{
		api:      svc,
		store:    store,
		interval: interval,
		ops:      make(map[string]*Operation),
		cancels:  make(map[string]context.CancelFunc),
		step:     StepSelect,
		onChange: opts.OnChange,
	}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// SetOnChange replaces the change callback. Used by the TUI, which is
// constructed after the tracker.
func (t *Tracker) SetOnChange(fn func()) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// Track inserts a new operation from an ingestion descriptor and, unless the
// descriptor already reports completion, starts polling it. friendlyName is
// the caller-supplied label (typically the original upload filename).
func (t *Tracker) Track(desc client.OperationDescriptor, friendlyName string) {
	if desc.Operation == "" {
		// Descriptors without an operation id are synchronous results;
		// there is nothing to track.
		return
	}

	op := &Operation{
		ID:           desc.Operation,
		DisplayName:  desc.DisplayName,
		FriendlyName: friendlyName,
		DocumentPath: desc.DocumentName,
		Status:       StatusProcessing,
	}
	switch {
	case desc.Done && desc.Error != nil && *desc.Error != "":
		op.Status = StatusError
		op.Error = *desc.Error
	case desc.Done:
		op.Status = StatusSuccess
	}

	t.mu.Lock()
	t.uploaded = true
	t.ops[op.ID] = op
	if op.Status == StatusProcessing {
		ctx, cancel := context.WithCancel(context.Background())
		t.cancels[op.ID] = cancel
		go t.pollLoop(ctx, op.ID)
	}
	t.recomputeStepLocked()
	snap := *op
	t.mu.Unlock()

	t.persist(snap)
	slog.Info("tracking operation", "operation", op.ID, "name", snap.Label(), "status", snap.Status)
	t.notify()
}

// pollLoop polls one operation until it resolves, its registry entry
// disappears, or its context is cancelled. Polls are strictly sequential:
// the next one is scheduled only after the previous snapshot resolved.
func (t *Tracker) pollLoop(ctx context.Context, id string) {
	timer := time.NewTimer(t.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		// A scheduled poll whose entry is gone is a silent no-op.
		t.mu.Lock()
		op, ok := t.ops[id]
		if !ok || op.Status != StatusProcessing {
			t.mu.Unlock()
			return
		}
		t.mu.Unlock()

		st, err := t.api.GetOperationStatus(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Transport failures are terminal for this operation only.
			t.fail(id, err.Error())
			return
		}

		if st.Done {
			if st.Error != nil && *st.Error != "" {
				t.fail(id, *st.Error)
				return
			}
			t.succeed(id, st)
			// Completion makes the document eligible to appear in the
			// authoritative listing; fetch it so the registry entry can
			// be reconciled away.
			if err := t.RefreshListing(context.Background()); err != nil {
				slog.Warn("listing refresh after completion failed", "operation", id, "error", err)
			}
			return
		}

		timer.Reset(t.interval)
	}
}

// fail marks an operation as terminally failed.
func (t *Tracker) fail(id, msg string) {
	t.mu.Lock()
	op, ok := t.ops[id]
	if !ok {
		t.mu.Unlock()
		return
	}
	op.Status = StatusError
	op.Error = msg
	t.releaseLocked(id)
	t.recomputeStepLocked()
	snap := *op
	t.mu.Unlock()

	t.persist(snap)
	slog.Warn("operation failed", "operation", id, "error", msg)
	t.notify()
}

// succeed marks an operation as completed and records the resulting
// document path when the snapshot reports one.
func (t *Tracker) succeed(id string, st *client.OperationStatus) {
	t.mu.Lock()
	op, ok := t.ops[id]
	if !ok {
		t.mu.Unlock()
		return
	}
	op.Status = StatusSuccess
	if st.DocumentName != "" {
		op.DocumentPath = st.DocumentName
	}
	if op.DisplayName == "" {
		op.DisplayName = st.DisplayName
	}
	t.releaseLocked(id)
	t.recomputeStepLocked()
	snap := *op
	t.mu.Unlock()

	t.persist(snap)
	slog.Info("operation completed", "operation", id, "document", snap.DocumentPath)
	t.notify()
}

// releaseLocked cancels and forgets the poll context for id, if any.
// Caller must hold t.mu.
func (t *Tracker) releaseLocked(id string) {
	if cancel, ok := t.cancels[id]; ok {
		cancel()
		delete(t.cancels, id)
	}
}

// clearLocked empties the registry and resets all derived state.
// Caller must hold t.mu.
func (t *Tracker) clearLocked() {
	for id, cancel := range t.cancels {
		cancel()
		delete(t.cancels, id)
	}
	t.ops = make(map[string]*Operation)
	t.docs = nil
	t.haveDocs = false
	t.uploaded = false
	t.step = StepSelect
}

// persist saves an operation snapshot to the state database, if configured.
func (t *Tracker) persist(op Operation) {
	if t.store == nil {
		return
	}
	t.mu.Lock()
	storeID := t.storeID
	t.mu.Unlock()

	err := t.store.SaveOperation(context.Background(), state.Operation{
		ID:           op.ID,
		StoreID:      storeID,
		DisplayName:  op.DisplayName,
		FriendlyName: op.FriendlyName,
		Status:       string(op.Status),
		Error:        op.Error,
		DocumentPath: op.DocumentPath,
	})
	if err != nil {
		slog.Warn("failed to persist operation", "operation", op.ID, "error", err)
	}
}

// unpersist deletes an operation from the state database, if configured.
func (t *Tracker) unpersist(id string) {
	if t.store == nil {
		return
	}
	if err := t.store.DeleteOperation(context.Background(), id); err != nil {
		slog.Warn("failed to delete persisted operation", "operation", id, "error", err)
	}
}

// notify wakes Wait callers and fires the change callback.
func (t *Tracker) notify() {
	t.mu.Lock()
	t.cond.Broadcast()
	cb := t.onChange
	t.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Operations returns a snapshot of the registry, ordered by label then id.
func (t *Tracker) Operations() []Operation {
	t.mu.Lock()
	defer t.mu.Unlock()

	ops := make([]Operation, 0, len(t.ops))
	for _, op := range t.ops {
		ops = append(ops, *op)
	}
	slices.SortFunc(ops, func(a, b Operation) int {
		if c := strings.Compare(a.Label(), b.Label()); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return ops
}

// Operation returns a snapshot of one registry entry, or false.
func (t *Tracker) Operation(id string) (Operation, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	op, ok := t.ops[id]
	if !ok {
		return Operation{}, false
	}
	return *op, true
}

// Processing returns the number of operations still being polled.
func (t *Tracker) Processing() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.processingLocked()
}

func (t *Tracker) processingLocked() int {
	n := 0
	for _, op := range t.ops {
		if op.Status == StatusProcessing {
			n++
		}
	}
	return n
}

// Documents returns the last reconciled listing snapshot.
func (t *Tracker) Documents() []models.Document {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.docs)
}

// Wait blocks until no tracked operation is still processing, or until ctx
// is cancelled.
func (t *Tracker) Wait(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		t.mu.Lock()
		t.cond.Broadcast()
		t.mu.Unlock()
	})
	defer stop()

	t.mu.Lock()
	defer t.mu.Unlock()
	for t.processingLocked() > 0 && ctx.Err() == nil {
		t.cond.Wait()
	}
	return ctx.Err()
}

// RefreshListing fetches the authoritative listing for the active store and
// reconciles the registry against it. On failure the previous listing and
// registry state are left intact.
func (t *Tracker) RefreshListing(ctx context.Context) error {
	t.mu.Lock()
	storeID := t.storeID
	t.mu.Unlock()

	docs, err := t.api.ListDocuments(ctx, storeID)
	if err != nil {
		return fmt.Errorf("fetch listing: %w", err)
	}
	t.Reconcile(docs)
	return nil
}
