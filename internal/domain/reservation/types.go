package reservation

import "time"

type Status string

const (
	StatusBooked     Status = "booked"
	StatusCheckedIn  Status = "checked_in"
	StatusCheckedOut Status = "checked_out"
	StatusNoShow     Status = "no_show"
)

// Reservation is a single stay booked against a room type. RoomNumber is
// nil until check-in binds a physical room. RateCents is captured from
// the catalog at creation time and never re-derived.
type Reservation struct {
	ID        string
	HotelCode string
	GuestName string
	RoomType  string
	RateCents int64

	// ArrivalDate is a calendar date: UTC midnight, no time component.
	ArrivalDate time.Time
	Nights      int

	RoomNumber *int
	Status     Status

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reservations are the ones that count against capacity.
func (r Reservation) Active() bool {
	return r.Status == StatusBooked || r.Status == StatusCheckedIn
}

// DepartureDate is the morning the guest leaves; the night before it is
// the last night occupied.
func (r Reservation) DepartureDate() time.Time {
	return r.ArrivalDate.AddDate(0, 0, r.Nights)
}

// StayNights lists every occupied night: arrival through arrival+nights-1.
func (r Reservation) StayNights() []time.Time {
	nights := make([]time.Time, 0, r.Nights)
	for d := 0; d < r.Nights; d++ {
		nights = append(nights, r.ArrivalDate.AddDate(0, 0, d))
	}
	return nights
}

// TotalCents is the final bill: nightly rate times length of stay,
// regardless of actual departure timing.
func (r Reservation) TotalCents() int64 {
	return r.RateCents * int64(r.Nights)
}

// Day truncates t to a calendar date at UTC midnight. Every date used as
// a tally key or stored on a reservation goes through here so that map
// lookups and equality checks never diverge on time-of-day or zone.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
