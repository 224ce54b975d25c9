// Package timeradapter maps the QUIC transport's two expiry timestamps
// (loss detection, ack delay) onto user-provided timer callbacks
// (spec §4.6).
package timeradapter

import "time"

// Kind names one of the transport's two timers.
type Kind int

const (
	KindLossDetection Kind = iota
	KindAckDelay
)

// Handle is the opaque timer handle a host's set_timer/reset_timer/
// cancel_timer implementation returns. It is never inspected by the
// adapter itself; it is only threaded back through Reset/Cancel.
type Handle any

// Callbacks are the three host-provided timer primitives named in spec
// §6: set_timer, reset_timer, cancel_timer. SetTimer is documented as
// allowed to invoke its fire callback synchronously before returning
// (spec §5 callback contract) — the adapter accounts for that explicitly
// rather than relying on re-entrant mutation of the handle (spec §9
// design note).
type Callbacks struct {
	SetTimer   func(at time.Time, fire func()) Handle
	ResetTimer func(h Handle, at time.Time)
	CancelTimer func(h Handle)
}

// timer tracks one of the two armed-or-not timers.
type timer struct {
	armed    bool
	deadline time.Time
	handle   Handle
}

// Adapter reconciles both of the transport's expiry timestamps against
// their currently-armed deadlines after every read_pkt (spec §4.6).
type Adapter struct {
	cb      Callbacks
	timers  [2]timer
	onFire  [2]func() error
}

// New constructs an Adapter. onLossDetectionTimer and onAckTimeout are the
// transport-level handlers spec §4.6 names: "ack_timeout calls write_pkt
// (likely producing a stand-alone ACK); loss_timeout calls
// on_loss_detection_timer".
func New(cb Callbacks, onLossDetectionTimer, onAckTimeout func() error) *Adapter {
	a := &Adapter{cb: cb}
	a.onFire[KindLossDetection] = onLossDetectionTimer
	a.onFire[KindAckDelay] = onAckTimeout
	return a
}

// Reconcile applies the four-way branch from spec §4.6 for one of the two
// timers:
//
//   - equal to the stored deadline: do nothing.
//   - "never" (zero time.Time): cancel any outstanding timer.
//   - in the past: dispatch the callback inline and clear the timer.
//   - otherwise: reset the armed timer, or create one.
func (a *Adapter) Reconcile(kind Kind, newDeadline time.Time, now time.Time) error {
	t := &a.timers[kind]

	if t.armed && t.deadline.Equal(newDeadline) {
		return nil
	}

	if newDeadline.IsZero() {
		if t.armed {
			a.cb.CancelTimer(t.handle)
			*t = timer{}
		}
		return nil
	}

	if !newDeadline.After(now) {
		if t.armed {
			a.cb.CancelTimer(t.handle)
		}
		*t = timer{}
		return a.onFire[kind]()
	}

	if t.armed {
		t.deadline = newDeadline
		a.cb.ResetTimer(t.handle, newDeadline)
		return nil
	}

	// SetTimer may fire synchronously before returning (spec §5); capture
	// that as an explicit post-return action instead of mutating the
	// handle field from inside the fire callback re-entrantly (spec §9
	// design note).
	fired := false
	var fireErr error
	h := a.cb.SetTimer(newDeadline, func() {
		fired = true
		fireErr = a.onFire[kind]()
	})
	if fired {
		*t = timer{}
		return fireErr
	}
	t.armed = true
	t.deadline = newDeadline
	t.handle = h
	return nil
}

// CancelAll clears both timers, used on session close.
func (a *Adapter) CancelAll() {
	for k := range a.timers {
		t := &a.timers[k]
		if t.armed {
			a.cb.CancelTimer(t.handle)
			*t = timer{}
		}
	}
}
