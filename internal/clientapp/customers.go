package clientapp

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/phillip-england/cineadmin/internal/apiclient"
	"github.com/phillip-england/cineadmin/internal/mutation"
	"github.com/phillip-england/cineadmin/internal/records"
	"github.com/phillip-england/cineadmin/internal/spreadsheet"
	"github.com/phillip-england/cineadmin/internal/tableview"
)

const customersPath = "/admin/customers"

var customerColumns = []column[records.CustomerField]{
	{Key: records.CustomerFieldID, Label: "ID"},
	{Key: records.CustomerFieldName, Label: "Full name"},
	{Key: records.CustomerFieldEmail, Label: "Email"},
	{Key: records.CustomerFieldBookings, Label: "Bookings", Align: "center"},
	{Key: records.CustomerFieldSpent, Label: "Total spent", Align: "right"},
}

type customersView struct {
	table *tableview.Table[records.Customer, records.CustomerField, apiclient.CustomerFilter]
	edit  *mutation.Dialog[records.Customer, records.UserUpdate]
	del   *mutation.Dialog[records.Customer, struct{}]
}

func (s *server) newCustomersView() (*customersView, string) {
	store := tableview.NewStore[records.Customer, apiclient.CustomerFilter](s.api.FilterCustomers, s.storeOptions("customers")...)
	table := tableview.NewTable[records.Customer, records.CustomerField](store)
	reload := func(ctx context.Context) { table.Reload(ctx) }
	v := &customersView{
		table: table,
		edit:  mutation.NewUpdateDialog[records.Customer](s.api, reload, s.dialogOptions()...),
		del:   mutation.NewDeleteDialog[records.Customer](s.api, reload, s.dialogOptions()...),
	}
	return v, s.views.add(v)
}

func (s *server) customersPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	viewID := r.URL.Query().Get("view")
	v, ok := lookupView[*customersView](s.views, viewID)
	if !ok {
		v, viewID = s.newCustomersView()
		s.refreshAsync(v.table.Begin(apiclient.CustomerFilter{}))
	}
	s.render(w, s.customersTmpl, s.customersPageData(v, viewID))
}

func (s *server) customersPageData(v *customersView, viewID string) pageData {
	view := v.table.View()
	filter, _ := v.table.Store().Params()
	loading := view.Loading || !view.Fetched

	rows := make([]customerRowView, 0, len(view.Rows))
	for _, c := range view.Rows {
		rows = append(rows, customerRowView{
			ID:       c.ID.String(),
			Name:     c.Name,
			Email:    c.Email,
			Bookings: c.Bookings,
			Spent:    c.Spent,
		})
	}

	editState := v.edit.State()
	edit := toDialogView(editState)
	switch {
	case editState.HasInput:
		edit.Email = editState.Input.NewEmail
		edit.Phone = editState.Input.NewPhone
	case editState.Open:
		edit.Email = editState.Target.Email
		edit.Phone = editState.Target.Phone
	}
	del := toDialogView(v.del.State())

	data := pageData{
		Title:          "Customer filter",
		Nav:            "customers",
		Path:           customersPath,
		ViewID:         viewID,
		Loading:        loading,
		Empty:          view.Empty && view.Fetched,
		Columns:        len(customerColumns) + 1,
		Headers:        headersFor(view.Sort, customerColumns),
		Customers:      rows,
		Keyword:        filter.Keyword,
		MaxBooking:     filter.MaxBookings,
		EditDialog:     edit,
		DeleteDialog:   del,
		RefreshSeconds: pollSeconds(loading, edit.Disabled || del.Disabled),
		RefreshURL:     customersPath + "?view=" + viewID,
	}
	if view.Err != nil {
		data.Error = apiclient.UserMessage(view.Err, "Unable to load customers")
	}
	return data
}

func (s *server) customersRoutes(w http.ResponseWriter, r *http.Request) {
	action := strings.Trim(strings.TrimPrefix(r.URL.Path, customersPath+"/"), "/")
	if action == "export.xlsx" {
		s.exportCustomers(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	viewID := r.FormValue("view")
	v, ok := lookupView[*customersView](s.views, viewID)
	if !ok {
		http.Redirect(w, r, customersPath, http.StatusSeeOther)
		return
	}

	switch action {
	case "filter":
		filter := apiclient.CustomerFilter{
			Keyword:     r.FormValue("q"),
			MaxBookings: strings.TrimSpace(r.FormValue("max")),
		}
		s.refreshAsync(v.table.Begin(filter))
	case "sort":
		if key := records.ParseCustomerField(r.FormValue("key")); key != "" {
			v.table.ToggleSort(key)
		}
	case "edit":
		if c, ok := findByID(v.table.View().Rows, r.FormValue("id")); ok {
			v.del.Close()
			v.edit.Open(c)
		}
	case "edit-confirm":
		update := records.UserUpdate{
			NewEmail:    r.FormValue("email"),
			NewPhone:    r.FormValue("phone"),
			NewPassword: r.FormValue("password"),
		}
		if _, err := v.edit.Confirm(r.Context(), update); err != nil {
			s.logDialogRejection("customer edit", err)
		}
	case "delete":
		if c, ok := findByID(v.table.View().Rows, r.FormValue("id")); ok {
			v.edit.Close()
			v.del.Open(c)
		}
	case "delete-confirm":
		if _, err := v.del.Confirm(r.Context(), struct{}{}); err != nil {
			s.logDialogRejection("customer delete", err)
		}
	case "close":
		v.edit.Close()
		v.del.Close()
	default:
		http.NotFound(w, r)
		return
	}
	redirectToView(w, r, customersPath, viewID)
}

func (s *server) exportCustomers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	v, ok := lookupView[*customersView](s.views, r.URL.Query().Get("view"))
	if !ok {
		http.Redirect(w, r, customersPath, http.StatusFound)
		return
	}
	view := v.table.View()
	sheet := spreadsheet.Sheet{Name: "Customers"}
	for _, c := range customerColumns {
		sheet.Headers = append(sheet.Headers, c.Label)
	}
	for _, c := range view.Rows {
		sheet.Rows = append(sheet.Rows, []any{c.ID.String(), c.Name, c.Email, c.Bookings, c.Spent})
	}
	writeWorkbook(w, s, "customers.xlsx", sheet)
}

func writeWorkbook(w http.ResponseWriter, s *server, filename string, sheet spreadsheet.Sheet) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(filename))
	if err := spreadsheet.WriteXLSX(w, sheet); err != nil {
		s.log.Error("export workbook failed", "file", filename, "err", err)
	}
}

func (s *server) logDialogRejection(dialog string, err error) {
	if errors.Is(err, mutation.ErrDialogBusy) || errors.Is(err, mutation.ErrDialogClosed) {
		s.log.Debug("dialog confirm ignored", "dialog", dialog, "reason", err)
		return
	}
	s.log.Warn("dialog confirm failed", "dialog", dialog, "err", err)
}
