// Package mutation runs the create, update and delete flows behind the admin
// forms and modals. Every successful mutation reloads the table from the API
// instead of patching rows locally.
package mutation

import (
	"context"
	"strings"
	"sync"

	"github.com/phillip-england/cineadmin/internal/apiclient"
	"github.com/phillip-england/cineadmin/internal/records"
)

const fallbackMessage = "Something went wrong"

// UserService is the subset of apiclient.Client the flows need.
type UserService interface {
	CreateUser(ctx context.Context, user records.User) (string, error)
	UpdateUser(ctx context.Context, id records.ID, update records.UserUpdate) (string, error)
	DeleteUser(ctx context.Context, id records.ID) (string, error)
}

// Reloader re-fetches the table a mutation affected.
type Reloader func(ctx context.Context)

type MessageKind string

const (
	MessageNone    MessageKind = ""
	MessageSuccess MessageKind = "success"
	MessageError   MessageKind = "error"
)

type Message struct {
	Kind MessageKind
	Text string
}

func (m Message) Empty() bool { return m.Text == "" }

func successMessage(text string) Message {
	return Message{Kind: MessageSuccess, Text: text}
}

func errorMessage(err error) Message {
	return Message{Kind: MessageError, Text: apiclient.UserMessage(err, fallbackMessage)}
}

type Mode int

const (
	ModeAdd Mode = iota
	ModeEdit
)

// Form is the pending input of the user form card.
type Form struct {
	Mode   Mode
	Values records.User
}

func (f Form) Editing() bool { return f.Mode == ModeEdit }

// DefaultUser is the blank add-mode input.
func DefaultUser() records.User {
	return records.User{Gender: "Male"}
}

// Editor drives the add/edit form card.
type Editor struct {
	svc    UserService
	reload Reloader

	mu      sync.Mutex
	form    Form
	message Message
}

func NewEditor(svc UserService, reload Reloader) *Editor {
	return &Editor{
		svc:    svc,
		reload: reload,
		form:   Form{Mode: ModeAdd, Values: DefaultUser()},
	}
}

func (e *Editor) Form() Form {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.form
}

func (e *Editor) Message() Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.message
}

// BeginEdit loads user into the form. The password is blanked so a new one
// has to be typed, and the birthday is cut to its date.
func (e *Editor) BeginEdit(user records.User) {
	user.Password = ""
	if i := strings.Index(user.Birthday, "T"); i >= 0 {
		user.Birthday = user.Birthday[:i]
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.form = Form{Mode: ModeEdit, Values: user}
	e.message = Message{}
}

// Cancel drops back to an empty add form.
func (e *Editor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.form = Form{Mode: ModeAdd, Values: DefaultUser()}
	e.message = Message{}
}

// Submit sends input. In edit mode only email, phone and password are taken
// from input; the identity, names and birthday stay as loaded. On failure the
// input is kept so it can be corrected and resubmitted.
func (e *Editor) Submit(ctx context.Context, input records.User) Message {
	e.mu.Lock()
	form := e.form
	if form.Editing() {
		form.Values.Email = input.Email
		form.Values.Phone = input.Phone
		form.Values.Password = input.Password
	} else {
		form.Values = input
	}
	e.form = form
	e.message = Message{}
	e.mu.Unlock()

	var (
		text string
		err  error
	)
	if form.Editing() {
		text, err = e.svc.UpdateUser(ctx, form.Values.UserID, records.UserUpdate{
			NewEmail:    form.Values.Email,
			NewPhone:    form.Values.Phone,
			NewPassword: form.Values.Password,
		})
	} else {
		text, err = e.svc.CreateUser(ctx, form.Values)
	}

	if err != nil {
		msg := errorMessage(err)
		e.mu.Lock()
		e.message = msg
		e.mu.Unlock()
		return msg
	}

	msg := successMessage(text)
	e.mu.Lock()
	e.form = Form{Mode: ModeAdd, Values: DefaultUser()}
	e.message = msg
	e.mu.Unlock()
	if e.reload != nil {
		e.reload(ctx)
	}
	return msg
}
