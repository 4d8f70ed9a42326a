// ABOUTME: Runs one guarded submit of an appointment to Timeline
// ABOUTME: Validates, saves properties, gathers, normalizes, sends and records the result
package sync

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/harperreed/timeline/db"
	"github.com/harperreed/timeline/form"
	"github.com/harperreed/timeline/logging"
	"github.com/harperreed/timeline/mailitem"
	"github.com/harperreed/timeline/models"
)

// SavePropertiesFailedMessage is shown when the item's properties cannot be saved.
const SavePropertiesFailedMessage = "Failed to save properties"

var (
	// ErrSyncInProgress is returned when a submit is already running.
	ErrSyncInProgress = errors.New("sync already in progress")
	// ErrFormIncomplete is returned when the submit gate is closed.
	ErrFormIncomplete = errors.New("form is incomplete")

	errSaveProperties = errors.New("failed to save properties")
)

// Recorder keeps bookkeeping for submits. Failures are logged, never surfaced.
type Recorder interface {
	Begin() error
	Complete(sub db.Submission) error
	Fail(message string) error
}

// SyncRequest is one submit of the form for an item.
type SyncRequest struct {
	Item  mailitem.Item
	Store mailitem.PropertyStore
	State models.FormState
}

// Syncer submits appointments. At most one submit runs at a time.
type Syncer struct {
	transport Transport
	profile   mailitem.UserProfile
	recorder  Recorder
	normalize []NormalizeOption
	inFlight  atomic.Bool
}

// SyncerOption configures a Syncer.
type SyncerOption func(*Syncer)

// WithRecorder records submit progress.
func WithRecorder(r Recorder) SyncerOption {
	return func(s *Syncer) { s.recorder = r }
}

// WithNormalizeOptions passes options through to Normalize.
func WithNormalizeOptions(opts ...NormalizeOption) SyncerOption {
	return func(s *Syncer) { s.normalize = append(s.normalize, opts...) }
}

// NewSyncer creates a Syncer sending through transport on behalf of profile.
func NewSyncer(transport Transport, profile mailitem.UserProfile, opts ...SyncerOption) *Syncer {
	s := &Syncer{transport: transport, profile: profile}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InFlight reports whether a submit is running.
func (s *Syncer) InFlight() bool {
	return s.inFlight.Load()
}

// Sync runs the full submit sequence and returns the message to show.
// It halts at the first failure.
func (s *Syncer) Sync(ctx context.Context, req SyncRequest) models.Status {
	status, err := s.Submit(ctx, req)
	if err != nil {
		return StatusFromError(err)
	}
	return status
}

// StatusFromError renders a submit error as a user-facing status.
func StatusFromError(err error) models.Status {
	if errors.Is(err, errSaveProperties) {
		return models.ErrorStatus(SavePropertiesFailedMessage)
	}
	return models.ErrorStatus("Error: " + err.Error())
}

// Submit is Sync with the failure returned as an error. A non-2xx response
// is a status, not an error.
func (s *Syncer) Submit(ctx context.Context, req SyncRequest) (models.Status, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return models.Status{}, ErrSyncInProgress
	}
	defer s.inFlight.Store(false)

	log := logging.Default().With("item", req.Item.Key())

	decision := form.Validate(req.State)
	if !decision.SubmitEnabled {
		return models.Status{}, ErrFormIncomplete
	}
	state := decision.Apply(req.State)

	if err := form.Save(ctx, req.Store, state); err != nil {
		log.Error("property save failed", "err", err)
		return models.Status{}, fmt.Errorf("%w: %w", errSaveProperties, err)
	}

	s.record(func(r Recorder) error { return r.Begin() })

	status, sub, err := s.send(ctx, req)
	if err != nil {
		s.record(func(r Recorder) error { return r.Fail(err.Error()) })
		log.Error("sync failed", "err", err)
		return models.Status{}, err
	}

	if status.OK() {
		sub.Response = status.Message
		s.record(func(r Recorder) error { return r.Complete(sub) })
		log.Info("appointment submitted", "entry_id", sub.EntryID, "global_id", sub.GlobalID)
	} else {
		s.record(func(r Recorder) error { return r.Fail(status.Message) })
		log.Warn("timeline rejected appointment", "status", status.Message)
	}
	return status, nil
}

func (s *Syncer) send(ctx context.Context, req SyncRequest) (models.Status, db.Submission, error) {
	payload, err := s.build(ctx, req.Item, req.Store, true)
	if err != nil {
		return models.Status{}, db.Submission{}, err
	}

	body, err := Marshal(payload)
	if err != nil {
		return models.Status{}, db.Submission{}, err
	}

	status, err := s.transport.Send(ctx, body)
	if err != nil {
		return models.Status{}, db.Submission{}, err
	}

	return status, db.Submission{
		ItemKey:      req.Item.Key(),
		EntryID:      payload.EntryID,
		GlobalID:     payload.GlobalID,
		ActivityType: payload.ActivityType,
	}, nil
}

// Preview builds the payload a submit would send without saving anything.
// The entry ID is only present if the item already has one.
func (s *Syncer) Preview(ctx context.Context, req SyncRequest) (models.OutboundPayload, error) {
	decision := form.Validate(req.State)
	if !decision.SubmitEnabled {
		return models.OutboundPayload{}, ErrFormIncomplete
	}

	overlay := mailitem.NewMemoryProperties(nil)
	if err := form.Save(ctx, overlay, decision.Apply(req.State)); err != nil {
		return models.OutboundPayload{}, err
	}
	return s.build(ctx, req.Item, overlay, false)
}

func (s *Syncer) build(ctx context.Context, item mailitem.Item, store mailitem.PropertyStore, saveItem bool) (models.OutboundPayload, error) {
	record, err := GatherAppointment(ctx, item, store)
	if err != nil {
		return models.OutboundPayload{}, err
	}

	if saveItem {
		record.EntryID = ResolveEntryID(ctx, item)
	} else {
		record.EntryID = item.ItemID()
	}
	record.GlobalID = ResolveGlobalID(ctx, item, record.EntryID)

	owner, err := s.profile.EmailAddress(ctx)
	if err != nil {
		return models.OutboundPayload{}, fmt.Errorf("failed to read owner email: %w", err)
	}

	return Normalize(record, owner, s.normalize...), nil
}

func (s *Syncer) record(fn func(Recorder) error) {
	if s.recorder == nil {
		return
	}
	if err := fn(s.recorder); err != nil {
		logging.Default().Warn("failed to record sync state", "err", err)
	}
}
