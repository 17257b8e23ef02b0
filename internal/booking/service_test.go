package booking

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/example/hotelier/internal/catalog"
	"github.com/example/hotelier/internal/domain/reservation"
	"github.com/example/hotelier/internal/internaltypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore keeps reservations in a map and mirrors the transactional
// store's semantics: Reserve and CheckIn run their availability checks
// against current state before mutating.
type fakeStore struct {
	seq  int64
	byID map[string]reservation.Reservation
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: make(map[string]reservation.Reservation)}
}

func (f *fakeStore) all() []reservation.Reservation {
	ids := make([]string, 0, len(f.byID))
	for id := range f.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]reservation.Reservation, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.byID[id])
	}
	return out
}

func (f *fakeStore) Reserve(_ context.Context, res reservation.Reservation, capacity int) (reservation.Reservation, error) {
	tally := reservation.TallyByType(f.all())
	if !tally.HasCapacity(res.RoomType, res.ArrivalDate, res.Nights, capacity) {
		return reservation.Reservation{}, internaltypes.ErrNoAvailability
	}
	f.seq++
	res.ID = fmt.Sprintf("%s-%d", res.HotelCode, f.seq)
	res.Status = reservation.StatusBooked
	f.byID[res.ID] = res
	return res, nil
}

func (f *fakeStore) CheckIn(_ context.Context, id string, candidates []int) (int, error) {
	res, ok := f.byID[id]
	if !ok {
		return 0, internaltypes.ErrNotFound
	}
	if res.Status != reservation.StatusBooked {
		return 0, internaltypes.ErrInvalidState
	}
	tally := reservation.TallyByRoom(f.all())
	room, ok := reservation.FirstFreeRoom(candidates, tally, res.ArrivalDate, res.Nights)
	if !ok {
		return 0, internaltypes.ErrNoAvailability
	}
	res.RoomNumber = &room
	res.Status = reservation.StatusCheckedIn
	f.byID[id] = res
	return room, nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (reservation.Reservation, error) {
	res, ok := f.byID[id]
	if !ok {
		return reservation.Reservation{}, internaltypes.ErrNotFound
	}
	return res, nil
}

func (f *fakeStore) GetCheckedInByRoom(_ context.Context, room int) (reservation.Reservation, error) {
	for _, res := range f.all() {
		if res.Status == reservation.StatusCheckedIn && res.RoomNumber != nil && *res.RoomNumber == room {
			return res, nil
		}
	}
	return reservation.Reservation{}, internaltypes.ErrNotFound
}

func (f *fakeStore) ListActive(_ context.Context, hotelCode, roomType string) ([]reservation.Reservation, error) {
	var out []reservation.Reservation
	for _, res := range f.all() {
		if res.HotelCode != hotelCode || !res.Active() {
			continue
		}
		if roomType != "" && res.RoomType != roomType {
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

func (f *fakeStore) SetCheckedOut(_ context.Context, id string) error {
	res, ok := f.byID[id]
	if !ok || res.Status != reservation.StatusCheckedIn {
		return internaltypes.ErrNotFound
	}
	res.Status = reservation.StatusCheckedOut
	f.byID[id] = res
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return internaltypes.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

const testConfig = `HotelName: Hometown Hotel
HotelAbbreviation: HTL
RoomType: DLX:1:100.00:101-101
RoomType: STD:2:79.50:201-202
`

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	cat, err := catalog.Parse(strings.NewReader(testConfig))
	require.NoError(t, err)

	store := newFakeStore()
	svc := NewService(store, cat, zap.NewNop())
	return svc, store
}

func at(svc *Service, day string) {
	svc.now = func() time.Time { return date(day).Add(9 * time.Hour) }
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateReservation(ctx, "", "DLX", date("2024-03-01"), 1)
	assert.ErrorIs(t, err, internaltypes.ErrInvalidInput)

	_, err = svc.CreateReservation(ctx, "Ada Lovelace", "PENTHOUSE", date("2024-03-01"), 1)
	assert.ErrorIs(t, err, internaltypes.ErrInvalidInput)

	_, err = svc.CreateReservation(ctx, "Ada Lovelace", "DLX", date("2024-03-01"), 0)
	assert.ErrorIs(t, err, internaltypes.ErrInvalidInput)
}

func TestCreateLookupRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateReservation(ctx, "Ada Lovelace", "STD", date("2024-03-01"), 3)
	require.NoError(t, err)
	assert.Equal(t, "HTL-1", created.ID)

	got, err := svc.Lookup(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.GuestName)
	assert.Equal(t, "STD", got.RoomType)
	assert.Equal(t, int64(7950), got.RateCents) // rate captured from the catalog
	assert.Equal(t, reservation.Day(date("2024-03-01")), got.ArrivalDate)
	assert.Equal(t, 3, got.Nights)
	assert.Equal(t, reservation.StatusBooked, got.Status)
	assert.Nil(t, got.RoomNumber)
}

func TestCreateFillsInventoryThenFails(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// STD has inventory 2: both overlapping bookings fit
	for i := 0; i < 2; i++ {
		_, err := svc.CreateReservation(ctx, "Guest", "STD", date("2024-03-01"), 4)
		require.NoError(t, err)
	}

	// the third overlapping booking does not
	_, err := svc.CreateReservation(ctx, "Guest", "STD", date("2024-03-02"), 1)
	assert.ErrorIs(t, err, internaltypes.ErrNoAvailability)

	// a stay after departure of the others is fine
	_, err = svc.CreateReservation(ctx, "Guest", "STD", date("2024-03-05"), 2)
	assert.NoError(t, err)
}

func TestSequentialIDs(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.CreateReservation(ctx, "A", "STD", date("2024-03-01"), 1)
	require.NoError(t, err)
	b, err := svc.CreateReservation(ctx, "B", "STD", date("2024-05-01"), 1)
	require.NoError(t, err)

	assert.Equal(t, "HTL-1", a.ID)
	assert.Equal(t, "HTL-2", b.ID)
}

func TestListActive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ListActive(ctx, "PENTHOUSE")
	assert.ErrorIs(t, err, internaltypes.ErrInvalidInput)

	dlx, err := svc.CreateReservation(ctx, "A", "DLX", date("2024-03-01"), 1)
	require.NoError(t, err)
	std, err := svc.CreateReservation(ctx, "B", "STD", date("2024-03-01"), 1)
	require.NoError(t, err)

	list, err := svc.ListActive(ctx, "")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = svc.ListActive(ctx, "STD")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, std.ID, list[0].ID)

	// checked-out stays drop off the list
	at(svc, "2024-03-01")
	room, err := svc.CheckIn(ctx, dlx.ID)
	require.NoError(t, err)
	_, err = svc.CheckOut(ctx, room)
	require.NoError(t, err)

	list, err = svc.ListActive(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, std.ID, list[0].ID)
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	err := svc.Delete(ctx, "HTL-404")
	assert.ErrorIs(t, err, internaltypes.ErrNotFound)

	res, err := svc.CreateReservation(ctx, "Guest", "DLX", date("2024-03-01"), 1)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, res.ID))

	_, err = svc.Lookup(ctx, res.ID)
	assert.ErrorIs(t, err, internaltypes.ErrNotFound)
}

func TestDeleteFreesCapacity(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.CreateReservation(ctx, "Guest", "DLX", date("2024-03-01"), 2)
	require.NoError(t, err)

	_, err = svc.CreateReservation(ctx, "Other", "DLX", date("2024-03-02"), 1)
	require.ErrorIs(t, err, internaltypes.ErrNoAvailability)

	require.NoError(t, svc.Delete(ctx, res.ID))

	_, err = svc.CreateReservation(ctx, "Other", "DLX", date("2024-03-02"), 1)
	assert.NoError(t, err)
}

func TestDeleteCheckedInForbidden(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.CreateReservation(ctx, "Guest", "DLX", date("2024-03-01"), 2)
	require.NoError(t, err)

	at(svc, "2024-03-01")
	_, err = svc.CheckIn(ctx, res.ID)
	require.NoError(t, err)

	err = svc.Delete(ctx, res.ID)
	assert.ErrorIs(t, err, internaltypes.ErrInvalidState)

	// still there
	_, err = svc.Lookup(ctx, res.ID)
	assert.NoError(t, err)
}

func TestCheckInPreconditions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, "HTL-404")
	assert.ErrorIs(t, err, internaltypes.ErrNotFound)

	res, err := svc.CreateReservation(ctx, "Guest", "DLX", date("2024-03-01"), 2)
	require.NoError(t, err)

	// not the arrival date
	at(svc, "2024-02-29")
	_, err = svc.CheckIn(ctx, res.ID)
	assert.ErrorIs(t, err, internaltypes.ErrInvalidState)

	// arrival date works
	at(svc, "2024-03-01")
	room, err := svc.CheckIn(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, 101, room)

	// second check-in is rejected
	_, err = svc.CheckIn(ctx, res.ID)
	assert.ErrorIs(t, err, internaltypes.ErrInvalidState)
}

func TestCheckInAssignsDistinctRooms(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateReservation(ctx, "First", "STD", date("2024-03-01"), 2)
	require.NoError(t, err)
	second, err := svc.CreateReservation(ctx, "Second", "STD", date("2024-03-01"), 2)
	require.NoError(t, err)

	at(svc, "2024-03-01")
	roomA, err := svc.CheckIn(ctx, first.ID)
	require.NoError(t, err)
	roomB, err := svc.CheckIn(ctx, second.ID)
	require.NoError(t, err)

	assert.Equal(t, 201, roomA)
	assert.Equal(t, 202, roomB)
}

func TestCheckOut(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CheckOut(ctx, 101)
	assert.ErrorIs(t, err, internaltypes.ErrNotFound)

	res, err := svc.CreateReservation(ctx, "Guest", "STD", date("2024-03-01"), 3)
	require.NoError(t, err)

	at(svc, "2024-03-01")
	room, err := svc.CheckIn(ctx, res.ID)
	require.NoError(t, err)

	out, err := svc.CheckOut(ctx, room)
	require.NoError(t, err)
	assert.Equal(t, res.ID, out.Reservation.ID)
	assert.Equal(t, int64(3*7950), out.TotalCents)
	assert.Equal(t, reservation.StatusCheckedOut, out.Reservation.Status)

	// the room is empty now
	_, err = svc.CheckOut(ctx, room)
	assert.ErrorIs(t, err, internaltypes.ErrNotFound)
}

func TestCheckOutFreesRoomForReassignment(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateReservation(ctx, "First", "DLX", date("2024-03-01"), 1)
	require.NoError(t, err)
	second, err := svc.CreateReservation(ctx, "Second", "DLX", date("2024-03-02"), 1)
	require.NoError(t, err)

	at(svc, "2024-03-01")
	room, err := svc.CheckIn(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, 101, room)

	_, err = svc.CheckOut(ctx, room)
	require.NoError(t, err)

	// the freed room is assignable to the next arrival
	at(svc, "2024-03-02")
	room, err = svc.CheckIn(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 101, room)
}

// Full walk-through: one-room deluxe type, overlapping booking refused,
// check-in binds the only room, checkout bills rate times nights.
func TestDeluxeScenario(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.CreateReservation(ctx, "Simon", "DLX", date("2024-03-01"), 2)
	require.NoError(t, err)
	assert.Equal(t, "HTL-1", res.ID)

	_, err = svc.CreateReservation(ctx, "Maria", "DLX", date("2024-03-02"), 1)
	assert.ErrorIs(t, err, internaltypes.ErrNoAvailability)

	at(svc, "2024-03-01")
	room, err := svc.CheckIn(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, 101, room)

	got, err := svc.Lookup(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, reservation.StatusCheckedIn, got.Status)

	out, err := svc.CheckOut(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), out.TotalCents) // 100.00 x 2 nights
	assert.Equal(t, "200.00", catalog.FormatMoney(out.TotalCents))
}
