package mutation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/phillip-england/cineadmin/internal/records"
)

// DefaultDismissDelay is how long a success message stays on a confirmation
// modal before it closes itself.
const DefaultDismissDelay = 1500 * time.Millisecond

var (
	ErrDialogClosed = errors.New("dialog is not open")
	ErrDialogBusy   = errors.New("dialog has a request in flight or is closing")
)

// Target is a record a modal can act on.
type Target interface {
	Identity() records.ID
	DisplayName() string
}

// Action performs the modal's request against target.
type Action[R Target, In any] func(ctx context.Context, target R, input In) (string, error)

type DialogState[R Target, In any] struct {
	Open    bool
	Target  R
	Message Message
	// Input is the last value passed to Confirm for this opening; HasInput
	// is false until the first confirm.
	Input    In
	HasInput bool
	// Submitting is set while the action request is in flight.
	Submitting bool
	// Pending is set while a success message waits for the auto-dismiss.
	Pending bool
}

// ControlsDisabled reports whether confirm and cancel must be greyed out.
func (s DialogState[R, In]) ControlsDisabled() bool { return s.Pending || s.Submitting }

// Dialog is a confirmation modal bound to one selected record.
type Dialog[R Target, In any] struct {
	action Action[R, In]
	reload Reloader
	delay  time.Duration
	after  func(time.Duration, func()) func() bool

	mu    sync.Mutex
	state DialogState[R, In]
	// gen invalidates a dismiss timer left over from an earlier opening.
	gen  uint64
	stop func() bool
}

type DialogOption func(*dialogOptions)

type dialogOptions struct {
	delay time.Duration
	after func(time.Duration, func()) func() bool
}

func WithDismissDelay(d time.Duration) DialogOption {
	return func(o *dialogOptions) { o.delay = d }
}

// WithAfterFunc replaces time.AfterFunc for scheduling the auto-dismiss. The
// callback must not be run synchronously from after.
func WithAfterFunc(after func(time.Duration, func()) func() bool) DialogOption {
	return func(o *dialogOptions) { o.after = after }
}

func NewDialog[R Target, In any](action Action[R, In], reload Reloader, opts ...DialogOption) *Dialog[R, In] {
	o := dialogOptions{
		delay: DefaultDismissDelay,
		after: func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Dialog[R, In]{action: action, reload: reload, delay: o.delay, after: o.after}
}

// NewDeleteDialog deletes the selected record's user.
func NewDeleteDialog[R Target](svc UserService, reload Reloader, opts ...DialogOption) *Dialog[R, struct{}] {
	return NewDialog(func(ctx context.Context, target R, _ struct{}) (string, error) {
		return svc.DeleteUser(ctx, target.Identity())
	}, reload, opts...)
}

// NewUpdateDialog sends the mutable subset for the selected record.
func NewUpdateDialog[R Target](svc UserService, reload Reloader, opts ...DialogOption) *Dialog[R, records.UserUpdate] {
	return NewDialog(func(ctx context.Context, target R, update records.UserUpdate) (string, error) {
		return svc.UpdateUser(ctx, target.Identity(), update)
	}, reload, opts...)
}

func (d *Dialog[R, In]) State() DialogState[R, In] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Open selects target and shows the modal. A dismiss still pending from an
// earlier success is cancelled.
func (d *Dialog[R, In]) Open(target R) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelTimerLocked()
	d.gen++
	d.state = DialogState[R, In]{Open: true, Target: target}
}

// Close hides the modal and clears the selection.
func (d *Dialog[R, In]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelTimerLocked()
	d.gen++
	d.state = DialogState[R, In]{}
}

// Confirm runs the action for the selected record. On success the table is
// reloaded and the modal closes itself after the dismiss delay; on failure it
// stays open showing the error, with input kept for correction.
func (d *Dialog[R, In]) Confirm(ctx context.Context, input In) (Message, error) {
	d.mu.Lock()
	if !d.state.Open {
		d.mu.Unlock()
		return Message{}, ErrDialogClosed
	}
	if d.state.ControlsDisabled() {
		d.mu.Unlock()
		return Message{}, ErrDialogBusy
	}
	target := d.state.Target
	gen := d.gen
	d.state.Message = Message{}
	d.state.Submitting = true
	d.state.Input = input
	d.state.HasInput = true
	d.mu.Unlock()

	text, err := d.action(ctx, target, input)

	if err != nil {
		msg := errorMessage(err)
		d.mu.Lock()
		if d.gen == gen {
			d.state.Message = msg
			d.state.Submitting = false
		}
		d.mu.Unlock()
		return msg, nil
	}

	msg := successMessage(text)
	d.mu.Lock()
	if d.gen == gen {
		d.state.Message = msg
		d.state.Submitting = false
		d.state.Pending = true
		d.stop = d.after(d.delay, func() { d.dismiss(gen) })
	}
	d.mu.Unlock()

	if d.reload != nil {
		d.reload(ctx)
	}
	return msg, nil
}

func (d *Dialog[R, In]) dismiss(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gen != gen {
		return
	}
	d.stop = nil
	d.gen++
	d.state = DialogState[R, In]{}
}

func (d *Dialog[R, In]) cancelTimerLocked() {
	if d.stop != nil {
		d.stop()
		d.stop = nil
	}
}
