package clientapp

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/phillip-england/cineadmin/internal/apiclient"
	"github.com/phillip-england/cineadmin/internal/mutation"
	"github.com/phillip-england/cineadmin/internal/records"
	"github.com/phillip-england/cineadmin/internal/spreadsheet"
	"github.com/phillip-england/cineadmin/internal/tableview"
)

const (
	usersPath       = "/admin/users"
	maxImportUpload = 10 << 20
)

var userColumns = []column[records.UserField]{
	{Key: records.UserFieldID, Label: "ID"},
	{Key: records.UserFieldName, Label: "Full name"},
	{Key: records.UserFieldEmail, Label: "Email"},
	{Key: records.UserFieldPhone, Label: "Phone"},
	{Key: records.UserFieldBirthday, Label: "Birthday"},
}

// userQuery selects between the full list and the search endpoint.
type userQuery struct {
	Search string
}

type usersView struct {
	table  *tableview.Table[records.User, records.UserField, userQuery]
	editor *mutation.Editor
	del    *mutation.Dialog[records.User, struct{}]

	importMsg messageSlot
}

func (s *server) fetchUsers(ctx context.Context, q userQuery) ([]records.User, error) {
	if strings.TrimSpace(q.Search) == "" {
		return s.api.ListUsers(ctx)
	}
	return s.api.SearchUsers(ctx, strings.TrimSpace(q.Search))
}

func (s *server) newUsersView() (*usersView, string) {
	store := tableview.NewStore[records.User, userQuery](s.fetchUsers, s.storeOptions("users")...)
	table := tableview.NewTable[records.User, records.UserField](store)
	reload := func(ctx context.Context) { table.Reload(ctx) }
	v := &usersView{
		table:  table,
		editor: mutation.NewEditor(s.api, reload),
		del:    mutation.NewDeleteDialog[records.User](s.api, reload, s.dialogOptions()...),
	}
	return v, s.views.add(v)
}

func (s *server) usersPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	viewID := r.URL.Query().Get("view")
	v, ok := lookupView[*usersView](s.views, viewID)
	if !ok {
		v, viewID = s.newUsersView()
		s.refreshAsync(v.table.Begin(userQuery{}))
	}
	s.render(w, s.usersTmpl, s.usersPageData(v, viewID))
}

func (s *server) usersPageData(v *usersView, viewID string) pageData {
	view := v.table.View()
	query, _ := v.table.Store().Params()
	loading := view.Loading || !view.Fetched

	rows := make([]userRowView, 0, len(view.Rows))
	for _, u := range view.Rows {
		rows = append(rows, userRowView{
			ID:       u.UserID.String(),
			Name:     u.DisplayName(),
			Email:    u.Email,
			Phone:    u.Phone,
			Birthday: formatBirthdayDisplay(u.Birthday),
		})
	}

	form := v.editor.Form()
	del := toDialogView(v.del.State())

	data := pageData{
		Title:          "User management",
		Nav:            "users",
		Path:           usersPath,
		ViewID:         viewID,
		Loading:        loading,
		Empty:          view.Empty && view.Fetched,
		Columns:        len(userColumns) + 1,
		Headers:        headersFor(view.Sort, userColumns),
		Users:          rows,
		Search:         query.Search,
		Form:           formView{Editing: form.Editing(), Values: form.Values},
		FormMessage:    toMessageView(v.editor.Message()),
		ImportMessage:  v.importMsg.get(),
		DeleteDialog:   del,
		RefreshSeconds: pollSeconds(loading, del.Disabled),
		RefreshURL:     usersPath + "?view=" + viewID,
	}
	if view.Err != nil {
		data.Error = apiclient.UserMessage(view.Err, "Unable to load users")
	}
	return data
}

func (s *server) usersRoutes(w http.ResponseWriter, r *http.Request) {
	action := strings.Trim(strings.TrimPrefix(r.URL.Path, usersPath+"/"), "/")
	if action == "export.xlsx" {
		s.exportUsers(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if action == "import" {
		s.importUsers(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	viewID := r.FormValue("view")
	v, ok := lookupView[*usersView](s.views, viewID)
	if !ok {
		http.Redirect(w, r, usersPath, http.StatusSeeOther)
		return
	}

	switch action {
	case "submit":
		v.editor.Submit(r.Context(), userFromForm(r))
	case "edit":
		if u, ok := findByID(v.table.View().Rows, r.FormValue("id")); ok {
			v.editor.BeginEdit(u)
		}
	case "cancel":
		v.editor.Cancel()
	case "search":
		query := userQuery{Search: strings.TrimSpace(r.FormValue("search"))}
		s.refreshAsync(v.table.Begin(query))
	case "sort":
		if key := records.ParseUserField(r.FormValue("key")); key != "" {
			v.table.ToggleSort(key)
		}
	case "delete":
		if u, ok := findByID(v.table.View().Rows, r.FormValue("id")); ok {
			v.del.Open(u)
		}
	case "delete-confirm":
		if _, err := v.del.Confirm(r.Context(), struct{}{}); err != nil {
			s.logDialogRejection("user delete", err)
		}
	case "close":
		v.del.Close()
	default:
		http.NotFound(w, r)
		return
	}
	redirectToView(w, r, usersPath, viewID)
}

func userFromForm(r *http.Request) records.User {
	return records.User{
		UserID:    records.TextID(strings.TrimSpace(r.FormValue("user_id"))),
		FirstName: strings.TrimSpace(r.FormValue("first_name")),
		LastName:  strings.TrimSpace(r.FormValue("last_name")),
		Email:     strings.TrimSpace(r.FormValue("email")),
		Phone:     strings.TrimSpace(r.FormValue("phone")),
		Password:  r.FormValue("password"),
		Birthday:  strings.TrimSpace(r.FormValue("birthday")),
		Gender:    strings.TrimSpace(r.FormValue("gender")),
	}
}

func (s *server) importUsers(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportUpload)
	if err := r.ParseMultipartForm(maxImportUpload); err != nil {
		http.Error(w, "invalid upload", http.StatusBadRequest)
		return
	}
	viewID := r.FormValue("view")
	v, ok := lookupView[*usersView](s.views, viewID)
	if !ok {
		http.Redirect(w, r, usersPath, http.StatusSeeOther)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		v.importMsg.set(messageView{Kind: string(mutation.MessageError), Text: "Choose a spreadsheet to import"})
		redirectToView(w, r, usersPath, viewID)
		return
	}
	defer file.Close()

	rows, err := spreadsheet.ReadRows(file, header.Filename)
	if err != nil {
		s.log.Warn("user import unreadable", "file", header.Filename, "err", err)
		v.importMsg.set(messageView{Kind: string(mutation.MessageError), Text: "Unable to read spreadsheet: " + err.Error()})
		redirectToView(w, r, usersPath, viewID)
		return
	}

	users, skipped := usersFromRows(rows)
	created, failed := 0, 0
	for _, u := range users {
		if _, err := s.api.CreateUser(r.Context(), u); err != nil {
			failed++
			s.log.Warn("user import row failed", "user_id", u.UserID, "err", err)
			continue
		}
		created++
	}
	failed += skipped

	kind := mutation.MessageSuccess
	if failed > 0 {
		kind = mutation.MessageError
	}
	v.importMsg.set(messageView{Kind: string(kind), Text: fmt.Sprintf("Imported %d users, %d failed", created, failed)})
	s.log.Info("user import finished", "file", header.Filename, "created", created, "failed", failed)
	if created > 0 {
		v.table.Reload(r.Context())
	}
	redirectToView(w, r, usersPath, viewID)
}

// usersFromRows maps a header row plus data rows onto users. Rows without a
// user id are counted as skipped. Blank rows are ignored.
func usersFromRows(rows [][]string) ([]records.User, int) {
	if len(rows) == 0 {
		return nil, 0
	}
	headers := rows[0]
	idx := struct{ id, first, last, email, phone, password, birthday, gender int }{
		id:       spreadsheet.Header(headers, "userid", "user id", "id"),
		first:    spreadsheet.Header(headers, "firstname", "first name"),
		last:     spreadsheet.Header(headers, "lastname", "last name"),
		email:    spreadsheet.Header(headers, "email"),
		phone:    spreadsheet.Header(headers, "phone"),
		password: spreadsheet.Header(headers, "password"),
		birthday: spreadsheet.Header(headers, "birthday", "dob", "date of birth"),
		gender:   spreadsheet.Header(headers, "gender"),
	}

	var (
		users   []records.User
		skipped int
	)
	for _, row := range rows[1:] {
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		id := spreadsheet.Cell(row, idx.id)
		if id == "" {
			skipped++
			continue
		}
		birthday := spreadsheet.Cell(row, idx.birthday)
		if normalized, ok := spreadsheet.NormalizeDate(birthday); ok {
			birthday = normalized
		}
		gender := spreadsheet.Cell(row, idx.gender)
		if gender == "" {
			gender = mutation.DefaultUser().Gender
		}
		users = append(users, records.User{
			UserID:    records.TextID(id),
			FirstName: spreadsheet.Cell(row, idx.first),
			LastName:  spreadsheet.Cell(row, idx.last),
			Email:     spreadsheet.Cell(row, idx.email),
			Phone:     spreadsheet.Cell(row, idx.phone),
			Password:  spreadsheet.Cell(row, idx.password),
			Birthday:  birthday,
			Gender:    gender,
		})
	}
	return users, skipped
}

func (s *server) exportUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	v, ok := lookupView[*usersView](s.views, r.URL.Query().Get("view"))
	if !ok {
		http.Redirect(w, r, usersPath, http.StatusFound)
		return
	}
	sheet := spreadsheet.Sheet{
		Name:    "Users",
		Headers: []string{"UserID", "FirstName", "LastName", "Email", "Phone", "Birthday", "Gender"},
	}
	for _, u := range v.table.View().Rows {
		sheet.Rows = append(sheet.Rows, []any{u.UserID.String(), u.FirstName, u.LastName, u.Email, u.Phone, u.Birthday, u.Gender})
	}
	writeWorkbook(w, s, "users.xlsx", sheet)
}
