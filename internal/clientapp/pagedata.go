package clientapp

import (
	"html/template"
	"strings"
	"sync"

	"github.com/phillip-england/cineadmin/internal/currency"
	"github.com/phillip-england/cineadmin/internal/mutation"
	"github.com/phillip-england/cineadmin/internal/records"
	"github.com/phillip-england/cineadmin/internal/spreadsheet"
	"github.com/phillip-england/cineadmin/internal/tablesort"
)

type pageData struct {
	Title  string
	Nav    string
	Path   string
	ViewID string

	Loading bool
	Empty   bool
	Error   string
	Columns int
	Headers []headerView

	RefreshSeconds int
	RefreshURL     string

	Customers []customerRowView
	Users     []userRowView
	Movies    []movieRowView

	Keyword    string
	MaxBooking string
	Search     string

	Form          formView
	FormMessage   messageView
	ImportMessage messageView

	EditDialog   dialogView
	DeleteDialog dialogView

	TotalRevenue float64
	Detail       detailView
}

type headerView struct {
	Key       string
	Label     string
	Indicator string
	AriaSort  string
	Active    bool
	Align     string
}

type messageView struct {
	Kind string
	Text string
}

type dialogView struct {
	Open       bool
	Disabled   bool
	TargetID   string
	TargetName string
	Email      string
	Phone      string
	Message    messageView
}

type formView struct {
	Editing bool
	Values  records.User
}

type customerRowView struct {
	ID       string
	Name     string
	Email    string
	Bookings int
	Spent    string
}

type userRowView struct {
	ID       string
	Name     string
	Email    string
	Phone    string
	Birthday string
}

type movieRowView struct {
	ID      string
	Title   string
	Revenue float64
}

type detailView struct {
	Selected bool
	MovieID  string
	Title    string
	Loading  bool
	Error    string
	Text     string
}

var templateFuncs = template.FuncMap{
	"vnd": currency.FormatVND,
}

type column[K ~string] struct {
	Key   K
	Label string
	Align string
}

func headersFor[K ~string](state tablesort.State[K], cols []column[K]) []headerView {
	out := make([]headerView, 0, len(cols))
	for _, c := range cols {
		out = append(out, headerView{
			Key:       string(c.Key),
			Label:     c.Label,
			Indicator: state.Indicator(c.Key),
			AriaSort:  state.AriaSort(c.Key),
			Active:    state.Active() && state.Key == c.Key,
			Align:     c.Align,
		})
	}
	return out
}

func toMessageView(m mutation.Message) messageView {
	return messageView{Kind: string(m.Kind), Text: m.Text}
}

func toDialogView[R mutation.Target, In any](state mutation.DialogState[R, In]) dialogView {
	if !state.Open {
		return dialogView{}
	}
	return dialogView{
		Open:       true,
		Disabled:   state.ControlsDisabled(),
		TargetID:   state.Target.Identity().String(),
		TargetName: state.Target.DisplayName(),
		Message:    toMessageView(state.Message),
	}
}

func findByID[R mutation.Target](rows []R, id string) (R, bool) {
	id = strings.TrimSpace(id)
	for _, row := range rows {
		if row.Identity().String() == id {
			return row, true
		}
	}
	var zero R
	return zero, false
}

// formatBirthdayDisplay renders a birthday the way vi-VN dates read, e.g.
// "12/4/1995". Unparseable values are shown as sent.
func formatBirthdayDisplay(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if parsed, ok := spreadsheet.ParseDate(trimmed); ok {
		return parsed.Format("2/1/2006")
	}
	return trimmed
}

// pollSeconds is the meta refresh interval while something on the page is
// still settling: a refresh in flight or a modal waiting to dismiss.
func pollSeconds(loading, dismissing bool) int {
	switch {
	case loading:
		return 1
	case dismissing:
		return 2
	default:
		return 0
	}
}

// messageSlot is a mutex-guarded banner set by one request and read by later
// renders of the same view.
type messageSlot struct {
	mu  sync.Mutex
	msg messageView
}

func (m *messageSlot) set(msg messageView) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msg = msg
}

func (m *messageSlot) get() messageView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.msg
}
