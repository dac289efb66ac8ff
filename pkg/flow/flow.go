package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mechanicalh600-lang/CheckList/models"
	"github.com/mechanicalh600-lang/CheckList/pkg/checklist"
)

// Phase is the current step of a capture workflow.
type Phase string

const (
	PhaseIdle              Phase = "IDLE"
	PhaseScanning          Phase = "SCANNING"
	PhaseSearching         Phase = "SEARCHING"
	PhaseSelectingActivity Phase = "SELECTING_ACTIVITY"
	PhaseFillingChecklist  Phase = "FILLING_CHECKLIST"
	PhaseSubmitting        Phase = "SUBMITTING"
	PhaseSuccess           Phase = "SUCCESS"
)

var (
	ErrInvalidTransition   = errors.New("action not allowed in the current phase")
	ErrChecklistIncomplete = errors.New("چک‌لیست کامل نشده است")
	ErrUnknownItem         = errors.New("unknown checklist item")
)

// Snapshot is the immutable view of a flow handed to the submission pipeline.
type Snapshot struct {
	EquipmentID   string
	EquipmentName string
	ActivityName  string
	InspectorName string
	InspectorCode string
	Timestamp     time.Time
	Items         []checklist.Item
}

// SubmitFunc persists a snapshot and returns the allocated tracking code.
type SubmitFunc func(ctx context.Context, snap Snapshot) (trackingCode string, err error)

// Flow is one inspector's capture workflow from equipment identification to
// submission. The phase plus the populated fields form the whole state; a
// failed submission is PhaseSubmitting with SubmitError set, not a phase of
// its own.
type Flow struct {
	mu sync.Mutex

	ID            uuid.UUID `json:"id"`
	InspectorName string    `json:"inspectorName"`
	InspectorCode string    `json:"inspectorCode"`

	Phase      Phase            `json:"phase"`
	Equipment  *Equipment       `json:"equipment,omitempty"`
	Activities []Activity       `json:"activities,omitempty"`
	Activity   *Activity        `json:"activity,omitempty"`
	Items      []checklist.Item `json:"items"`

	SubmitError  string    `json:"submitError,omitempty"`
	TrackingCode string    `json:"trackingCode,omitempty"`
	SubmittedAt  time.Time `json:"submittedAt,omitempty"`

	touched time.Time
}

func newFlow(inspectorName, inspectorCode string) *Flow {
	return &Flow{
		ID:            uuid.New(),
		InspectorName: inspectorName,
		InspectorCode: inspectorCode,
		Phase:         PhaseIdle,
		touched:       time.Now(),
	}
}

// BeginIdentify moves an idle flow into scanning or searching.
func (f *Flow) BeginIdentify(phase Phase) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	if phase != PhaseScanning && phase != PhaseSearching {
		return fmt.Errorf("%w: cannot begin identification as %s", ErrInvalidTransition, phase)
	}
	if f.Phase != PhaseIdle && f.Phase != PhaseScanning && f.Phase != PhaseSearching {
		return fmt.Errorf("%w: identify from %s", ErrInvalidTransition, f.Phase)
	}
	f.Phase = phase
	return nil
}

// Identify resolves the scanned/searched code. On success the flow moves to
// activity selection; a resolution failure returns the flow to idle and
// surfaces the error to the user.
func (f *Flow) Identify(ctx context.Context, resolver *Resolver, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	if f.Phase != PhaseScanning && f.Phase != PhaseSearching {
		return fmt.Errorf("%w: identify from %s", ErrInvalidTransition, f.Phase)
	}

	equipment, activities, err := resolver.Resolve(ctx, code)
	if err != nil {
		f.Phase = PhaseIdle
		f.Equipment = nil
		f.Activities = nil
		return err
	}

	f.Equipment = equipment
	f.Activities = activities
	f.Phase = PhaseSelectingActivity
	return nil
}

// ChooseActivity picks a scheduled activity by code, or a general inspection
// when code is empty, and provisions the checklist.
func (f *Flow) ChooseActivity(ctx context.Context, provisioner *checklist.Provisioner, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	if f.Phase != PhaseSelectingActivity {
		return fmt.Errorf("%w: choose activity from %s", ErrInvalidTransition, f.Phase)
	}

	var activity *Activity
	if code != "" {
		for i := range f.Activities {
			if f.Activities[i].Code == code {
				activity = &f.Activities[i]
				break
			}
		}
		if activity == nil {
			return fmt.Errorf("activity %q is not scheduled for this equipment", code)
		}
	}

	f.Activity = activity
	f.Phase = PhaseFillingChecklist

	activityName, activityCode := "", ""
	if activity != nil {
		activityName, activityCode = activity.Name, activity.Code
	}
	f.Items = provisioner.Provision(ctx, f.Equipment.Name, activityName, activityCode)
	return nil
}

// UpdateItem replaces the status/comment of a live item.
func (f *Flow) UpdateItem(itemID, status, comment string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	if f.Phase != PhaseFillingChecklist {
		return fmt.Errorf("%w: update item from %s", ErrInvalidTransition, f.Phase)
	}
	switch status {
	case models.StatusPending, models.StatusPass, models.StatusFail, models.StatusNA:
	default:
		return fmt.Errorf("invalid item status %q", status)
	}

	for i := range f.Items {
		if f.Items[i].ID == itemID {
			f.Items[i].Status = status
			f.Items[i].Comment = comment
			return nil
		}
	}
	return ErrUnknownItem
}

// AttachMedia stores a photo or video on a live item.
func (f *Flow) AttachMedia(itemID, kind string, media *checklist.Media) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	if f.Phase != PhaseFillingChecklist {
		return fmt.Errorf("%w: attach media from %s", ErrInvalidTransition, f.Phase)
	}
	for i := range f.Items {
		if f.Items[i].ID != itemID {
			continue
		}
		switch kind {
		case "photo":
			f.Items[i].Photo = media
		case "video":
			f.Items[i].Video = media
		default:
			return fmt.Errorf("invalid media kind %q", kind)
		}
		return nil
	}
	return ErrUnknownItem
}

// Progress returns the completion percentage of the live item set.
func (f *Flow) Progress() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return checklist.Progress(f.Items)
}

// IncompleteCount returns the number of items still blocking submission.
func (f *Flow) IncompleteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return checklist.IncompleteCount(f.Items)
}

// Submit runs the submission pipeline. The only gate into SUBMITTING is a
// fully complete checklist; a failed submission stays in SUBMITTING with the
// error populated so the inspector can retry with the same item state.
func (f *Flow) Submit(ctx context.Context, submit SubmitFunc) (string, error) {
	f.mu.Lock()
	f.touch()

	retrying := f.Phase == PhaseSubmitting && f.SubmitError != ""
	if f.Phase != PhaseFillingChecklist && !retrying {
		f.mu.Unlock()
		return "", fmt.Errorf("%w: submit from %s", ErrInvalidTransition, f.Phase)
	}
	if checklist.Progress(f.Items) != 100 {
		f.mu.Unlock()
		return "", ErrChecklistIncomplete
	}

	f.Phase = PhaseSubmitting
	f.SubmitError = ""
	now := time.Now()
	snap := Snapshot{
		EquipmentID:   f.Equipment.ID,
		EquipmentName: f.Equipment.Name,
		InspectorName: f.InspectorName,
		InspectorCode: f.InspectorCode,
		Timestamp:     now,
		Items:         append([]checklist.Item(nil), f.Items...),
	}
	if f.Activity != nil {
		snap.ActivityName = f.Activity.Name
	}
	// Release the lock during the pipeline; stores and uploads are slow.
	f.mu.Unlock()

	code, err := submit(ctx, snap)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.SubmitError = err.Error()
		return "", err
	}
	f.TrackingCode = code
	f.SubmittedAt = now
	f.Phase = PhaseSuccess
	return code, nil
}

// Back cancels the current step. Leaving activity selection or the checklist
// discards all in-memory item state; leaving submission is only allowed from
// the failed sub-state and keeps the items for another attempt.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	switch f.Phase {
	case PhaseScanning, PhaseSearching:
		f.Phase = PhaseIdle
	case PhaseSelectingActivity, PhaseFillingChecklist:
		f.reset()
	case PhaseSubmitting:
		if f.SubmitError == "" {
			return fmt.Errorf("%w: submission in progress", ErrInvalidTransition)
		}
		f.SubmitError = ""
		f.Phase = PhaseFillingChecklist
	default:
		return fmt.Errorf("%w: back from %s", ErrInvalidTransition, f.Phase)
	}
	return nil
}

// Dismiss leaves the success screen and returns the flow to idle.
func (f *Flow) Dismiss() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	if f.Phase != PhaseSuccess {
		return fmt.Errorf("%w: dismiss from %s", ErrInvalidTransition, f.Phase)
	}
	f.reset()
	return nil
}

func (f *Flow) reset() {
	f.Phase = PhaseIdle
	f.Equipment = nil
	f.Activities = nil
	f.Activity = nil
	f.Items = nil
	f.SubmitError = ""
	f.TrackingCode = ""
	f.SubmittedAt = time.Time{}
}

// flowView is the serialized shape of a Flow. Encoding goes through a copy
// taken under the lock so handlers can marshal a flow that another request is
// mutating.
type flowView struct {
	ID            uuid.UUID `json:"id"`
	InspectorName string    `json:"inspectorName"`
	InspectorCode string    `json:"inspectorCode"`

	Phase      Phase            `json:"phase"`
	Equipment  *Equipment       `json:"equipment,omitempty"`
	Activities []Activity       `json:"activities,omitempty"`
	Activity   *Activity        `json:"activity,omitempty"`
	Items      []checklist.Item `json:"items"`

	SubmitError  string    `json:"submitError,omitempty"`
	TrackingCode string    `json:"trackingCode,omitempty"`
	SubmittedAt  time.Time `json:"submittedAt,omitempty"`
}

func (f *Flow) MarshalJSON() ([]byte, error) {
	f.mu.Lock()
	view := flowView{
		ID:            f.ID,
		InspectorName: f.InspectorName,
		InspectorCode: f.InspectorCode,
		Phase:         f.Phase,
		Equipment:     f.Equipment,
		Activities:    f.Activities,
		Activity:      f.Activity,
		Items:         append([]checklist.Item(nil), f.Items...),
		SubmitError:   f.SubmitError,
		TrackingCode:  f.TrackingCode,
		SubmittedAt:   f.SubmittedAt,
	}
	f.mu.Unlock()
	return json.Marshal(view)
}

func (f *Flow) touch() { f.touched = time.Now() }

func (f *Flow) lastTouched() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touched
}

// Manager owns the live flows, one per client session.
type Manager struct {
	mu    sync.Mutex
	flows map[uuid.UUID]*Flow
}

const staleFlowAge = 24 * time.Hour

func NewManager() *Manager {
	return &Manager{flows: make(map[uuid.UUID]*Flow)}
}

// Start creates a new idle flow for an inspector and evicts abandoned ones.
func (m *Manager) Start(inspectorName, inspectorCode string) *Flow {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-staleFlowAge)
	for id, fl := range m.flows {
		if fl.lastTouched().Before(cutoff) {
			delete(m.flows, id)
		}
	}

	f := newFlow(inspectorName, inspectorCode)
	m.flows[f.ID] = f
	return f
}

// Get returns the flow with the given id, or nil.
func (m *Manager) Get(id uuid.UUID) *Flow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flows[id]
}

// Drop removes a flow entirely.
func (m *Manager) Drop(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.flows, id)
}
