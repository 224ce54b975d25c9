package timeradapter_test

import (
	"testing"
	"time"

	"github.com/saitolume/hqmcast/timeradapter"
)

type fakeHandle struct{ id int }

func newHarness(t *testing.T) (*timeradapter.Adapter, *int, *int, func() []string) {
	t.Helper()
	var lossFires, ackFires int
	var log []string
	nextID := 0
	cb := timeradapter.Callbacks{
		SetTimer: func(at time.Time, fire func()) timeradapter.Handle {
			nextID++
			log = append(log, "set")
			return &fakeHandle{id: nextID}
		},
		ResetTimer: func(h timeradapter.Handle, at time.Time) {
			log = append(log, "reset")
		},
		CancelTimer: func(h timeradapter.Handle) {
			log = append(log, "cancel")
		},
	}
	a := timeradapter.New(cb,
		func() error { lossFires++; return nil },
		func() error { ackFires++; return nil },
	)
	return a, &lossFires, &ackFires, func() []string { return log }
}

func TestReconcileArmsAndResets(t *testing.T) {
	a, _, _, log := newHarness(t)
	now := time.Unix(1000, 0)

	if err := a.Reconcile(timeradapter.KindLossDetection, now.Add(time.Second), now); err != nil {
		t.Fatalf("arm: %v", err)
	}
	if err := a.Reconcile(timeradapter.KindLossDetection, now.Add(2*time.Second), now); err != nil {
		t.Fatalf("reset: %v", err)
	}
	got := log()
	if len(got) != 2 || got[0] != "set" || got[1] != "reset" {
		t.Fatalf("log = %v, want [set reset]", got)
	}
}

func TestReconcileSameDeadlineNoOp(t *testing.T) {
	a, _, _, log := newHarness(t)
	now := time.Unix(1000, 0)
	deadline := now.Add(time.Second)

	if err := a.Reconcile(timeradapter.KindAckDelay, deadline, now); err != nil {
		t.Fatalf("arm: %v", err)
	}
	if err := a.Reconcile(timeradapter.KindAckDelay, deadline, now); err != nil {
		t.Fatalf("no-op: %v", err)
	}
	got := log()
	if len(got) != 1 {
		t.Fatalf("log = %v, want one set call", got)
	}
}

func TestReconcileNeverCancels(t *testing.T) {
	a, _, _, log := newHarness(t)
	now := time.Unix(1000, 0)

	if err := a.Reconcile(timeradapter.KindLossDetection, now.Add(time.Second), now); err != nil {
		t.Fatalf("arm: %v", err)
	}
	if err := a.Reconcile(timeradapter.KindLossDetection, time.Time{}, now); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	got := log()
	if len(got) != 2 || got[1] != "cancel" {
		t.Fatalf("log = %v, want [set cancel]", got)
	}
}

func TestReconcilePastFiresInline(t *testing.T) {
	a, lossFires, _, _ := newHarness(t)
	now := time.Unix(1000, 0)

	if err := a.Reconcile(timeradapter.KindLossDetection, now.Add(-time.Second), now); err != nil {
		t.Fatalf("fire: %v", err)
	}
	if *lossFires != 1 {
		t.Fatalf("lossFires = %d, want 1", *lossFires)
	}
}

func TestReconcileSynchronousFireDuringSet(t *testing.T) {
	var fires int
	cb := timeradapter.Callbacks{
		SetTimer: func(at time.Time, fire func()) timeradapter.Handle {
			fire() // simulate a host whose SetTimer fires inline
			return nil
		},
		ResetTimer:  func(h timeradapter.Handle, at time.Time) {},
		CancelTimer: func(h timeradapter.Handle) {},
	}
	a := timeradapter.New(cb, func() error { fires++; return nil }, func() error { return nil })
	now := time.Unix(1000, 0)
	if err := a.Reconcile(timeradapter.KindLossDetection, now.Add(time.Second), now); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if fires != 1 {
		t.Fatalf("fires = %d, want 1", fires)
	}
	// A subsequent reconcile must treat the timer as unarmed (it already
	// fired), not as still-armed-at-the-old-deadline.
	if err := a.Reconcile(timeradapter.KindLossDetection, now.Add(2*time.Second), now); err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	// Unarmed means SetTimer runs again (and fires inline again) rather
	// than ResetTimer being called on a stale handle.
	if fires != 2 {
		t.Fatalf("fires after second reconcile = %d, want 2", fires)
	}
}

func TestCancelAll(t *testing.T) {
	a, _, _, log := newHarness(t)
	now := time.Unix(1000, 0)
	_ = a.Reconcile(timeradapter.KindLossDetection, now.Add(time.Second), now)
	_ = a.Reconcile(timeradapter.KindAckDelay, now.Add(time.Second), now)
	a.CancelAll()
	got := log()
	cancels := 0
	for _, e := range got {
		if e == "cancel" {
			cancels++
		}
	}
	if cancels != 2 {
		t.Fatalf("cancels = %d, want 2", cancels)
	}
}
