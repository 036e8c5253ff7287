// Package records holds the row schemas returned by the ticketing API.
package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phillip-england/cineadmin/internal/tablesort"
)

// ID is a record identity. The API sends it either as a string ("US001")
// or as a number (101) depending on the endpoint. The kind is kept so ids
// compare the way they were sent: numbers numerically, strings as text.
type ID struct {
	raw     string
	numeric bool
	num     float64
}

// TextID is a string identity.
func TextID(s string) ID { return ID{raw: s} }

func (id ID) String() string { return id.raw }

func (id ID) IsZero() bool { return id.raw == "" }

// Numeric reports whether the id arrived as a JSON number.
func (id ID) Numeric() bool { return id.numeric }

func (id ID) SortValue() tablesort.Value {
	if id.numeric {
		return tablesort.Number(id.num)
	}
	return tablesort.Text(id.raw)
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.raw), nil
	}
	return json.Marshal(id.raw)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ID{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = TextID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("record id: %w", err)
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("record id: %w", err)
	}
	*id = ID{raw: n.String(), numeric: true, num: f}
	return nil
}

type User struct {
	UserID    ID     `json:"UserID"`
	FirstName string `json:"FirstName"`
	LastName  string `json:"LastName"`
	Email     string `json:"Email"`
	Phone     string `json:"Phone"`
	Password  string `json:"Password,omitempty"`
	Birthday  string `json:"Birthday"`
	Gender    string `json:"Gender"`
}

// UserUpdate is the only change set the API accepts for an existing user.
type UserUpdate struct {
	NewEmail    string `json:"NewEmail"`
	NewPhone    string `json:"NewPhone"`
	NewPassword string `json:"NewPassword"`
}

func (u User) Identity() ID { return u.UserID }

// DisplayName is "Last First", the order the admin pages show names in.
func (u User) DisplayName() string {
	return strings.TrimSpace(u.LastName + " " + u.FirstName)
}

type UserField string

const (
	UserFieldID       UserField = "UserID"
	UserFieldName     UserField = "Name"
	UserFieldEmail    UserField = "Email"
	UserFieldPhone    UserField = "Phone"
	UserFieldBirthday UserField = "Birthday"
)

var UserFields = []UserField{UserFieldID, UserFieldName, UserFieldEmail, UserFieldPhone, UserFieldBirthday}

func (u User) SortValue(field UserField) tablesort.Value {
	switch field {
	case UserFieldID:
		return u.UserID.SortValue()
	case UserFieldName:
		return tablesort.Text(u.DisplayName())
	case UserFieldEmail:
		return tablesort.Text(u.Email)
	case UserFieldPhone:
		return tablesort.Text(u.Phone)
	case UserFieldBirthday:
		return tablesort.Text(u.Birthday)
	}
	return tablesort.Text("")
}

type Customer struct {
	ID       ID     `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Bookings int    `json:"bookings"`
	Spent    string `json:"spent"`
}

func (c Customer) Identity() ID { return c.ID }

func (c Customer) DisplayName() string { return c.Name }

type CustomerField string

const (
	CustomerFieldID       CustomerField = "id"
	CustomerFieldName     CustomerField = "name"
	CustomerFieldEmail    CustomerField = "email"
	CustomerFieldBookings CustomerField = "bookings"
	CustomerFieldSpent    CustomerField = "spent"
)

var CustomerFields = []CustomerField{CustomerFieldID, CustomerFieldName, CustomerFieldEmail, CustomerFieldBookings, CustomerFieldSpent}

func (c Customer) SortValue(field CustomerField) tablesort.Value {
	switch field {
	case CustomerFieldID:
		return c.ID.SortValue()
	case CustomerFieldName:
		return tablesort.Text(c.Name)
	case CustomerFieldEmail:
		return tablesort.Text(c.Email)
	case CustomerFieldBookings:
		return tablesort.Number(float64(c.Bookings))
	case CustomerFieldSpent:
		return tablesort.Currency(c.Spent)
	}
	return tablesort.Text("")
}

type Movie struct {
	ID           ID      `json:"id"`
	Title        string  `json:"title"`
	TotalRevenue float64 `json:"totalRevenue"`
}

func (m Movie) Identity() ID { return m.ID }

func (m Movie) DisplayName() string { return m.Title }

type MovieField string

const (
	MovieFieldID      MovieField = "id"
	MovieFieldTitle   MovieField = "title"
	MovieFieldRevenue MovieField = "totalRevenue"
)

var MovieFields = []MovieField{MovieFieldID, MovieFieldTitle, MovieFieldRevenue}

func (m Movie) SortValue(field MovieField) tablesort.Value {
	switch field {
	case MovieFieldID:
		return m.ID.SortValue()
	case MovieFieldTitle:
		return tablesort.Text(m.Title)
	case MovieFieldRevenue:
		return tablesort.Number(m.TotalRevenue)
	}
	return tablesort.Text("")
}

// TotalRevenue sums revenue across movies.
func TotalRevenue(movies []Movie) float64 {
	var total float64
	for _, m := range movies {
		total += m.TotalRevenue
	}
	return total
}

// ParseUserField maps a query value onto a known field; unknown values
// leave the table unsorted.
func ParseUserField(raw string) UserField {
	for _, f := range UserFields {
		if string(f) == raw {
			return f
		}
	}
	return ""
}

func ParseCustomerField(raw string) CustomerField {
	for _, f := range CustomerFields {
		if string(f) == raw {
			return f
		}
	}
	return ""
}

func ParseMovieField(raw string) MovieField {
	for _, f := range MovieFields {
		if string(f) == raw {
			return f
		}
	}
	return ""
}
