package records

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phillip-england/cineadmin/internal/tablesort"
)

func TestIDAcceptsStringsAndNumbers(t *testing.T) {
	var got []Customer
	body := `[{"id":101,"name":"A"},{"id":"US002","name":"B"},{"id":null,"name":"C"}]`
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	require.Len(t, got, 3)
	assert.Equal(t, "101", got[0].ID.String())
	assert.True(t, got[0].ID.Numeric())
	assert.Equal(t, TextID("US002"), got[1].ID)
	assert.True(t, got[2].ID.IsZero())
}

func TestIDMarshalsBackAsItsKind(t *testing.T) {
	var got []Customer
	require.NoError(t, json.Unmarshal([]byte(`[{"id":7},{"id":"7"}]`), &got))
	require.Len(t, got, 2)
	assert.NotEqual(t, got[0].ID, got[1].ID)

	data, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id":7,`)
	assert.Contains(t, string(data), `"id":"7"`)
}

func TestIDSortsInItsNativeOrder(t *testing.T) {
	var textIDs []Customer
	require.NoError(t, json.Unmarshal([]byte(`[{"id":"9"},{"id":"10"},{"id":"100"}]`), &textIDs))
	sorted := tablesort.Sort(textIDs, tablesort.State[CustomerField]{Key: CustomerFieldID})
	assert.Equal(t, []string{"10", "100", "9"}, customerIDs(sorted))

	var numericIDs []Customer
	require.NoError(t, json.Unmarshal([]byte(`[{"id":9},{"id":10},{"id":100}]`), &numericIDs))
	sorted = tablesort.Sort(numericIDs, tablesort.State[CustomerField]{Key: CustomerFieldID})
	assert.Equal(t, []string{"9", "10", "100"}, customerIDs(sorted))

	var users []User
	require.NoError(t, json.Unmarshal([]byte(`[{"UserID":2},{"UserID":10},{"UserID":1}]`), &users))
	byID := tablesort.Sort(users, tablesort.State[UserField]{Key: UserFieldID})
	got := make([]string, 0, len(byID))
	for _, u := range byID {
		got = append(got, u.UserID.String())
	}
	assert.Equal(t, []string{"1", "2", "10"}, got)

	var movies []Movie
	require.NoError(t, json.Unmarshal([]byte(`[{"id":"MV10"},{"id":"MV9"}]`), &movies))
	byMovie := tablesort.Sort(movies, tablesort.State[MovieField]{Key: MovieFieldID, Direction: tablesort.Descending})
	assert.Equal(t, "MV9", byMovie[0].ID.String())
}

func customerIDs(rows []Customer) []string {
	out := make([]string, 0, len(rows))
	for _, c := range rows {
		out = append(out, c.ID.String())
	}
	return out
}

func TestIDRejectsObjects(t *testing.T) {
	var c Customer
	assert.Error(t, json.Unmarshal([]byte(`{"id":{"x":1}}`), &c))
}

func TestUserDisplayNameIsLastFirst(t *testing.T) {
	u := User{FirstName: "An", LastName: "Nguyen"}
	assert.Equal(t, "Nguyen An", u.DisplayName())
	assert.Equal(t, "Nguyen", User{LastName: "Nguyen"}.DisplayName())
}

func TestUserPasswordOmittedWhenBlank(t *testing.T) {
	data, err := json.Marshal(User{UserID: TextID("US001")})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Password")
}

func TestCustomerSortValues(t *testing.T) {
	var rows []Customer
	body := `[{"id":10,"spent":"1,200,000 đ","bookings":3},{"id":9,"spent":"500,000 đ","bookings":5}]`
	require.NoError(t, json.Unmarshal([]byte(body), &rows))
	byID := tablesort.Sort(rows, tablesort.State[CustomerField]{Key: CustomerFieldID})
	assert.Equal(t, "9", byID[0].ID.String())

	bySpent := tablesort.Sort(rows, tablesort.State[CustomerField]{Key: CustomerFieldSpent})
	assert.Equal(t, "500,000 đ", bySpent[0].Spent)

	byBookings := tablesort.Sort(rows, tablesort.State[CustomerField]{Key: CustomerFieldBookings, Direction: tablesort.Descending})
	assert.Equal(t, 5, byBookings[0].Bookings)
}

func TestParseFields(t *testing.T) {
	assert.Equal(t, UserFieldEmail, ParseUserField("Email"))
	assert.Equal(t, UserField(""), ParseUserField("email"))
	assert.Equal(t, CustomerFieldSpent, ParseCustomerField("spent"))
	assert.Equal(t, MovieFieldRevenue, ParseMovieField("totalRevenue"))
	assert.Equal(t, MovieField(""), ParseMovieField("revenue"))
}

func TestTotalRevenue(t *testing.T) {
	assert.Equal(t, 1500.0, TotalRevenue([]Movie{{TotalRevenue: 1000}, {TotalRevenue: 500}}))
	assert.Zero(t, TotalRevenue(nil))
}
