package apiapp

import "github.com/phillip-england/cineadmin/internal/records"

// seed loads the demo data set. Seeded accounts have no usable password.
func (s *Server) seed() {
	users := []struct {
		user     records.User
		bookings int
		spent    float64
	}{
		{records.User{UserID: records.TextID("US001"), FirstName: "Văn A", LastName: "Nguyễn", Email: "vana@example.com", Phone: "0901000001", Birthday: "1995-04-12T00:00:00Z", Gender: "Male"}, 2, 1200000},
		{records.User{UserID: records.TextID("US002"), FirstName: "Thị B", LastName: "Trần", Email: "b.tran@gmail.com", Phone: "0901000002", Birthday: "1998-09-30T00:00:00Z", Gender: "Female"}, 5, 5500000},
		{records.User{UserID: records.TextID("US003"), FirstName: "Văn C", LastName: "Lê", Email: "c.le@test.com", Phone: "0901000003", Birthday: "2001-01-05T00:00:00Z", Gender: "Male"}, 0, 0},
		{records.User{UserID: records.TextID("US004"), FirstName: "Thị D", LastName: "Phạm", Email: "d.pham@test.com", Phone: "0901000004", Birthday: "1989-12-24T00:00:00Z", Gender: "Female"}, 12, 15000000},
		{records.User{UserID: records.TextID("US005"), FirstName: "Văn E", LastName: "Hoàng", Email: "e.hoang@test.com", Phone: "0901000005", Birthday: "1993-07-18T00:00:00Z", Gender: "Male"}, 1, 500000},
		{records.User{UserID: records.TextID("US006"), FirstName: "Thị F", LastName: "Vũ", Email: "f.vu@test.com", Phone: "0901000006", Birthday: "2000-03-03T00:00:00Z", Gender: "Female"}, 3, 2100000},
		{records.User{UserID: records.TextID("US007"), FirstName: "Văn G", LastName: "Đặng", Email: "g.dang@test.com", Phone: "0901000007", Birthday: "1997-11-11T00:00:00Z", Gender: "Male"}, 8, 8900000},
	}
	for _, u := range users {
		s.users = append(s.users, &storedUser{user: u.user, bookings: u.bookings, spent: u.spent})
	}

	s.movies = []storedMovie{
		{
			movie: records.Movie{ID: records.TextID("MV001"), Title: "Mai", TotalRevenue: 1068000},
			showings: []showing{
				{label: "2024-02-10 19:00 R1", tickets: 8, revenue: 712000},
				{label: "2024-02-11 21:00 R2", tickets: 4, revenue: 356000},
			},
		},
		{
			movie: records.Movie{ID: records.TextID("MV002"), Title: "Lật Mặt 7", TotalRevenue: 2450000},
			showings: []showing{
				{label: "2024-04-26 18:30 R3", tickets: 15, revenue: 1350000},
				{label: "2024-04-27 20:00 R1", tickets: 11, revenue: 1100000},
			},
		},
		{
			movie: records.Movie{ID: records.TextID("MV003"), Title: "Đào, Phở và Piano", TotalRevenue: 630000},
			showings: []showing{
				{label: "2024-03-02 17:00 R2", tickets: 7, revenue: 630000},
			},
		},
	}
}
