package flow

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mechanicalh600-lang/CheckList/models"
	"github.com/mechanicalh600-lang/CheckList/pkg/checklist"
)

// testFlow returns a flow advanced to FILLING_CHECKLIST with a three-item
// checklist, backed by the fake master store.
func testFlow(t *testing.T) *Flow {
	t.Helper()

	store := &fakeMasterStore{
		assets: map[string]*models.AssetMaster{
			"EQ-01": {Code: "EQ-01", Name: "پمپ سانتریفیوژ", Description: "پمپ خط اصلی"},
		},
		schedules: map[string][]models.AssetSchedule{
			"EQ-01": {
				{AssetNumber: "EQ-01", JobCardCode: "INSPECTION", JobCardName: "بازرسی هفتگی"},
			},
		},
	}

	f := NewManager().Start("علی رضایی", "1001")
	if err := f.BeginIdentify(PhaseScanning); err != nil {
		t.Fatalf("BeginIdentify: %v", err)
	}
	if err := f.Identify(context.Background(), NewResolver(store), "EQ-01"); err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if err := f.ChooseActivity(context.Background(), checklist.NewProvisioner(nil, nil), "INSPECTION"); err != nil {
		t.Fatalf("ChooseActivity: %v", err)
	}
	return f
}

func completeAll(t *testing.T, f *Flow) {
	t.Helper()
	for _, item := range f.Items {
		if err := f.UpdateItem(item.ID, models.StatusPass, ""); err != nil {
			t.Fatalf("UpdateItem(%s): %v", item.ID, err)
		}
	}
}

func TestBeginIdentifyTransitions(t *testing.T) {
	f := NewManager().Start("x", "1")

	if err := f.BeginIdentify(PhaseFillingChecklist); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("begin with bad target phase: got %v", err)
	}
	if err := f.BeginIdentify(PhaseScanning); err != nil {
		t.Fatalf("idle -> scanning: %v", err)
	}
	// Switching between scan and search without going back is allowed.
	if err := f.BeginIdentify(PhaseSearching); err != nil {
		t.Fatalf("scanning -> searching: %v", err)
	}
	if f.Phase != PhaseSearching {
		t.Errorf("phase = %s, expected SEARCHING", f.Phase)
	}
}

func TestIdentifyFailureReturnsToIdle(t *testing.T) {
	store := &fakeMasterStore{assets: map[string]*models.AssetMaster{}}
	f := NewManager().Start("x", "1")
	if err := f.BeginIdentify(PhaseScanning); err != nil {
		t.Fatalf("BeginIdentify: %v", err)
	}

	err := f.Identify(context.Background(), NewResolver(store), "EQ-404")
	if !errors.Is(err, ErrEquipmentNotFound) {
		t.Fatalf("expected ErrEquipmentNotFound, got %v", err)
	}
	if f.Phase != PhaseIdle {
		t.Errorf("phase after failed identify = %s, expected IDLE", f.Phase)
	}
	if f.Equipment != nil || f.Activities != nil {
		t.Errorf("failed identify must not leave equipment state behind")
	}
}

func TestChooseActivity(t *testing.T) {
	t.Run("unknown activity code rejected", func(t *testing.T) {
		store := &fakeMasterStore{
			assets: map[string]*models.AssetMaster{
				"EQ-01": {Code: "EQ-01", Name: "پمپ"},
			},
			schedules: map[string][]models.AssetSchedule{
				"EQ-01": {{AssetNumber: "EQ-01", JobCardCode: "INSPECTION", JobCardName: "بازرسی"}},
			},
		}
		f := NewManager().Start("x", "1")
		f.BeginIdentify(PhaseScanning)
		if err := f.Identify(context.Background(), NewResolver(store), "EQ-01"); err != nil {
			t.Fatalf("Identify: %v", err)
		}
		if err := f.ChooseActivity(context.Background(), checklist.NewProvisioner(nil, nil), "NOPE"); err == nil {
			t.Fatal("unscheduled activity code accepted")
		}
		if f.Phase != PhaseSelectingActivity {
			t.Errorf("rejection must keep the selection phase, got %s", f.Phase)
		}
	})

	t.Run("empty code starts a general inspection", func(t *testing.T) {
		store := &fakeMasterStore{
			assets: map[string]*models.AssetMaster{
				"EQ-01": {Code: "EQ-01", Name: "پمپ"},
			},
			schedules: map[string][]models.AssetSchedule{
				"EQ-01": {{AssetNumber: "EQ-01", JobCardCode: "PM", JobCardName: "سرویس"}},
			},
		}
		f := NewManager().Start("x", "1")
		f.BeginIdentify(PhaseSearching)
		if err := f.Identify(context.Background(), NewResolver(store), "EQ-01"); err != nil {
			t.Fatalf("Identify: %v", err)
		}
		if err := f.ChooseActivity(context.Background(), checklist.NewProvisioner(nil, nil), ""); err != nil {
			t.Fatalf("ChooseActivity: %v", err)
		}
		if f.Activity != nil {
			t.Errorf("general inspection must not pin an activity")
		}
		if f.Phase != PhaseFillingChecklist || len(f.Items) == 0 {
			t.Errorf("expected provisioned checklist, phase=%s items=%d", f.Phase, len(f.Items))
		}
	})
}

func TestUpdateItem(t *testing.T) {
	f := testFlow(t)

	if err := f.UpdateItem(f.Items[0].ID, "BROKEN", ""); err == nil {
		t.Error("invalid status accepted")
	}
	if err := f.UpdateItem("item-99", models.StatusPass, ""); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("unknown item: got %v", err)
	}
	if err := f.UpdateItem(f.Items[0].ID, models.StatusFail, "لرزش زیاد"); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if f.Items[0].Status != models.StatusFail || f.Items[0].Comment != "لرزش زیاد" {
		t.Errorf("item not updated: %+v", f.Items[0])
	}
}

func TestSubmitGate(t *testing.T) {
	f := testFlow(t)

	submit := func(ctx context.Context, snap Snapshot) (string, error) {
		return "404060001", nil
	}

	if _, err := f.Submit(context.Background(), submit); !errors.Is(err, ErrChecklistIncomplete) {
		t.Fatalf("incomplete checklist must block submission, got %v", err)
	}

	completeAll(t, f)
	code, err := f.Submit(context.Background(), submit)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if code != "404060001" || f.TrackingCode != code {
		t.Errorf("tracking code = %q / flow %q", code, f.TrackingCode)
	}
	if f.Phase != PhaseSuccess {
		t.Errorf("phase = %s, expected SUCCESS", f.Phase)
	}
}

func TestSubmitFailureAllowsRetry(t *testing.T) {
	f := testFlow(t)
	completeAll(t, f)

	calls := 0
	submit := func(ctx context.Context, snap Snapshot) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("network unreachable")
		}
		return "404060002", nil
	}

	if _, err := f.Submit(context.Background(), submit); err == nil {
		t.Fatal("expected first submission to fail")
	}
	if f.Phase != PhaseSubmitting || f.SubmitError == "" {
		t.Fatalf("failed submission should stay in SUBMITTING with the error, phase=%s err=%q", f.Phase, f.SubmitError)
	}

	// Retry directly from the failed sub-state.
	code, err := f.Submit(context.Background(), submit)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if code != "404060002" || f.Phase != PhaseSuccess {
		t.Errorf("retry result code=%q phase=%s", code, f.Phase)
	}
}

func TestBack(t *testing.T) {
	t.Run("from scanning", func(t *testing.T) {
		f := NewManager().Start("x", "1")
		f.BeginIdentify(PhaseScanning)
		if err := f.Back(); err != nil {
			t.Fatalf("Back: %v", err)
		}
		if f.Phase != PhaseIdle {
			t.Errorf("phase = %s, expected IDLE", f.Phase)
		}
	})

	t.Run("from checklist discards items", func(t *testing.T) {
		f := testFlow(t)
		if err := f.Back(); err != nil {
			t.Fatalf("Back: %v", err)
		}
		if f.Phase != PhaseIdle || f.Items != nil || f.Equipment != nil {
			t.Errorf("back from checklist must reset the flow: %+v", f)
		}
	})

	t.Run("submission in progress cannot be cancelled", func(t *testing.T) {
		f := testFlow(t)
		completeAll(t, f)
		f.Submit(context.Background(), func(ctx context.Context, snap Snapshot) (string, error) {
			return "", errors.New("timeout")
		})

		if err := f.Back(); err != nil {
			t.Fatalf("back from failed submission: %v", err)
		}
		if f.Phase != PhaseFillingChecklist || len(f.Items) == 0 {
			t.Errorf("failed submission back must keep items, phase=%s items=%d", f.Phase, len(f.Items))
		}
	})
}

func TestDismiss(t *testing.T) {
	f := testFlow(t)

	if err := f.Dismiss(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("dismiss outside SUCCESS: got %v", err)
	}

	completeAll(t, f)
	if _, err := f.Submit(context.Background(), func(ctx context.Context, snap Snapshot) (string, error) {
		return "404060003", nil
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := f.Dismiss(); err != nil {
		t.Fatalf("Dismiss: %v", err)
	}
	if f.Phase != PhaseIdle || f.TrackingCode != "" {
		t.Errorf("dismiss must reset the flow, phase=%s code=%q", f.Phase, f.TrackingCode)
	}
}

func TestMarshalJSONConcurrentWithUpdates(t *testing.T) {
	f := testFlow(t)

	// Encode while another goroutine rewrites item state; the race detector
	// flags any unlocked access to the live struct.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			for _, item := range f.Items {
				f.UpdateItem(item.ID, models.StatusPass, "")
				f.UpdateItem(item.ID, models.StatusFail, "لرزش")
			}
		}
	}()
	for i := 0; i < 200; i++ {
		if _, err := json.Marshal(f); err != nil {
			t.Fatalf("Marshal: %v", err)
		}
	}
	<-done

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded struct {
		Phase string           `json:"phase"`
		Items []checklist.Item `json:"items"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Phase != string(PhaseFillingChecklist) {
		t.Errorf("phase = %q, expected FILLING_CHECKLIST", decoded.Phase)
	}
	if len(decoded.Items) != len(f.Items) {
		t.Errorf("encoded %d items, expected %d", len(decoded.Items), len(f.Items))
	}
}

func TestManager(t *testing.T) {
	m := NewManager()
	f := m.Start("x", "1")

	if got := m.Get(f.ID); got != f {
		t.Errorf("Get returned %v, expected the started flow", got)
	}
	m.Drop(f.ID)
	if got := m.Get(f.ID); got != nil {
		t.Errorf("Get after Drop returned %v, expected nil", got)
	}
}
