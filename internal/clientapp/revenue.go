package clientapp

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/phillip-england/cineadmin/internal/apiclient"
	"github.com/phillip-england/cineadmin/internal/records"
	"github.com/phillip-england/cineadmin/internal/tableview"
)

const revenuePath = "/admin/revenue"

var movieColumns = []column[records.MovieField]{
	{Key: records.MovieFieldID, Label: "ID"},
	{Key: records.MovieFieldTitle, Label: "Title"},
	{Key: records.MovieFieldRevenue, Label: "Total revenue", Align: "right"},
}

type revenueView struct {
	table  *tableview.Table[records.Movie, records.MovieField, struct{}]
	detail detailPanel
}

// detailPanel shows the revenue breakdown for the selected movie. Only the
// answer for the latest selection is kept.
type detailPanel struct {
	mu       sync.Mutex
	seq      uint64
	selected records.Movie
	open     bool
	loading  bool
	err      error
	text     string
}

func (p *detailPanel) begin(m records.Movie) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	p.selected = m
	p.open = true
	p.loading = true
	p.err = nil
	p.text = ""
	return p.seq
}

func (p *detailPanel) finish(seq uint64, text string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if seq != p.seq {
		return
	}
	p.loading = false
	p.text = text
	p.err = err
}

func (p *detailPanel) view() detailView {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return detailView{}
	}
	v := detailView{
		Selected: true,
		MovieID:  p.selected.ID.String(),
		Title:    p.selected.Title,
		Loading:  p.loading,
		Text:     p.text,
	}
	if p.err != nil {
		v.Error = apiclient.UserMessage(p.err, "Unable to load revenue detail")
	}
	return v
}

func (s *server) newRevenueView() (*revenueView, string) {
	fetch := func(ctx context.Context, _ struct{}) ([]records.Movie, error) {
		return s.api.ListMovies(ctx)
	}
	store := tableview.NewStore[records.Movie, struct{}](fetch, s.storeOptions("movies")...)
	v := &revenueView{table: tableview.NewTable[records.Movie, records.MovieField](store)}
	return v, s.views.add(v)
}

func (s *server) revenuePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	viewID := r.URL.Query().Get("view")
	v, ok := lookupView[*revenueView](s.views, viewID)
	if !ok {
		v, viewID = s.newRevenueView()
		s.refreshAsync(v.table.Begin(struct{}{}))
	}
	s.render(w, s.revenueTmpl, s.revenuePageData(v, viewID))
}

func (s *server) revenuePageData(v *revenueView, viewID string) pageData {
	view := v.table.View()
	loading := view.Loading || !view.Fetched
	detail := v.detail.view()

	rows := make([]movieRowView, 0, len(view.Rows))
	for _, m := range view.Rows {
		rows = append(rows, movieRowView{
			ID:      m.ID.String(),
			Title:   m.Title,
			Revenue: m.TotalRevenue,
		})
	}

	data := pageData{
		Title:          "Revenue",
		Nav:            "revenue",
		Path:           revenuePath,
		ViewID:         viewID,
		Loading:        loading,
		Empty:          view.Empty && view.Fetched,
		Columns:        len(movieColumns) + 1,
		Headers:        headersFor(view.Sort, movieColumns),
		Movies:         rows,
		TotalRevenue:   records.TotalRevenue(view.Rows),
		Detail:         detail,
		RefreshSeconds: pollSeconds(loading || detail.Loading, false),
		RefreshURL:     revenuePath + "?view=" + viewID,
	}
	if view.Err != nil {
		data.Error = apiclient.UserMessage(view.Err, "Unable to load movies")
	}
	return data
}

func (s *server) revenueRoutes(w http.ResponseWriter, r *http.Request) {
	action := strings.Trim(strings.TrimPrefix(r.URL.Path, revenuePath+"/"), "/")
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	viewID := r.FormValue("view")
	v, ok := lookupView[*revenueView](s.views, viewID)
	if !ok {
		http.Redirect(w, r, revenuePath, http.StatusSeeOther)
		return
	}

	switch action {
	case "sort":
		if key := records.ParseMovieField(r.FormValue("key")); key != "" {
			v.table.ToggleSort(key)
		}
	case "refresh":
		s.refreshAsync(v.table.BeginReload())
	case "detail":
		m, ok := findByID(v.table.View().Rows, r.FormValue("id"))
		if !ok {
			break
		}
		seq := v.detail.begin(m)
		s.refreshAsync(func(ctx context.Context) {
			text, err := s.api.MovieRevenueDetail(ctx, m.ID)
			if err != nil {
				s.log.Warn("revenue detail failed", "movie", m.ID, "err", err)
			}
			v.detail.finish(seq, text, err)
		})
	default:
		http.NotFound(w, r)
		return
	}
	redirectToView(w, r, revenuePath, viewID)
}
