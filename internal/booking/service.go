// Package booking orchestrates the front-desk operations: create,
// look up and delete reservations, check guests in, check them out.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/hotelier/internal/catalog"
	"github.com/example/hotelier/internal/domain/reservation"
	"github.com/example/hotelier/internal/internaltypes"
	"go.uber.org/zap"
)

// Store is the reservation store. Reserve and CheckIn are atomic:
// implementations must make the availability check and the write one
// unit, not separate calls.
type Store interface {
	Reserve(ctx context.Context, res reservation.Reservation, capacity int) (reservation.Reservation, error)
	CheckIn(ctx context.Context, id string, candidates []int) (int, error)
	GetByID(ctx context.Context, id string) (reservation.Reservation, error)
	GetCheckedInByRoom(ctx context.Context, room int) (reservation.Reservation, error)
	ListActive(ctx context.Context, hotelCode, roomType string) ([]reservation.Reservation, error)
	SetCheckedOut(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type Service struct {
	store   Store
	catalog catalog.Catalog
	log     *zap.Logger

	now func() time.Time
}

func NewService(store Store, cat catalog.Catalog, log *zap.Logger) *Service {
	return &Service{store: store, catalog: cat, log: log, now: time.Now}
}

// Checkout is the result of checking a guest out of a room.
type Checkout struct {
	Reservation reservation.Reservation
	TotalCents  int64
}

// CreateReservation validates input, captures the room type's current
// rate, and reserves a type-level slot. Nothing is persisted on any
// failure path.
func (s *Service) CreateReservation(ctx context.Context, guestName, roomType string, arrival time.Time, nights int) (reservation.Reservation, error) {
	guestName = strings.TrimSpace(guestName)
	if guestName == "" {
		return reservation.Reservation{}, fmt.Errorf("%w: guest name required", internaltypes.ErrInvalidInput)
	}
	if nights < 1 {
		return reservation.Reservation{}, fmt.Errorf("%w: length of stay must be at least 1 night", internaltypes.ErrInvalidInput)
	}
	rt, ok := s.catalog.Lookup(roomType)
	if !ok {
		return reservation.Reservation{}, fmt.Errorf("%w: unknown room type %q", internaltypes.ErrInvalidInput, roomType)
	}

	res, err := s.store.Reserve(ctx, reservation.Reservation{
		HotelCode:   s.catalog.HotelCode,
		GuestName:   guestName,
		RoomType:    rt.Code,
		RateCents:   rt.RateCents,
		ArrivalDate: reservation.Day(arrival),
		Nights:      nights,
		Status:      reservation.StatusBooked,
	}, rt.Inventory)
	if err != nil {
		return reservation.Reservation{}, err
	}

	s.log.Info("reservation created",
		zap.String("id", res.ID),
		zap.String("room_type", res.RoomType),
		zap.String("arrival", res.ArrivalDate.Format(time.DateOnly)),
		zap.Int("nights", res.Nights))
	return res, nil
}

func (s *Service) Lookup(ctx context.Context, id string) (reservation.Reservation, error) {
	return s.store.GetByID(ctx, id)
}

// ListActive returns the hotel's booked and checked-in reservations,
// optionally narrowed to one room type. An empty roomType means all.
func (s *Service) ListActive(ctx context.Context, roomType string) ([]reservation.Reservation, error) {
	if roomType != "" {
		if _, ok := s.catalog.Lookup(roomType); !ok {
			return nil, fmt.Errorf("%w: unknown room type %q", internaltypes.ErrInvalidInput, roomType)
		}
	}
	return s.store.ListActive(ctx, s.catalog.HotelCode, roomType)
}

// Delete removes a reservation. A checked-in guest must be checked out
// first; deleting in-house occupancy would silently corrupt the tallies.
func (s *Service) Delete(ctx context.Context, id string) error {
	res, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if res.Status == reservation.StatusCheckedIn {
		return fmt.Errorf("%w: reservation %s is checked in, check out first", internaltypes.ErrInvalidState, id)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("reservation deleted", zap.String("id", id))
	return nil
}

// CheckIn assigns a physical room on the arrival date. Preconditions in
// order: the reservation exists, is still booked, and arrives today.
// Room-type availability at booking time does not guarantee a specific
// room is free for the whole stay, so this can still fail with
// ErrNoAvailability.
func (s *Service) CheckIn(ctx context.Context, id string) (int, error) {
	res, err := s.store.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	switch res.Status {
	case reservation.StatusBooked:
	case reservation.StatusCheckedIn:
		return 0, fmt.Errorf("%w: reservation %s is already checked in", internaltypes.ErrInvalidState, id)
	default:
		return 0, fmt.Errorf("%w: reservation %s is %s", internaltypes.ErrInvalidState, id, res.Status)
	}

	today := reservation.Day(s.now())
	if !res.ArrivalDate.Equal(today) {
		return 0, fmt.Errorf("%w: reservation %s arrives %s, not today", internaltypes.ErrInvalidState,
			id, res.ArrivalDate.Format(time.DateOnly))
	}

	rt, ok := s.catalog.Lookup(res.RoomType)
	if !ok {
		return 0, fmt.Errorf("%w: room type %q no longer configured", internaltypes.ErrInvalidInput, res.RoomType)
	}

	room, err := s.store.CheckIn(ctx, id, rt.Rooms())
	if err != nil {
		if errors.Is(err, internaltypes.ErrNoAvailability) {
			return 0, fmt.Errorf("%w: no %s room free for the full stay", internaltypes.ErrNoAvailability, res.RoomType)
		}
		return 0, err
	}

	s.log.Info("guest checked in",
		zap.String("id", id),
		zap.Int("room", room))
	return room, nil
}

// CheckOut closes the in-house reservation on a room and computes the
// final bill from the rate captured at booking time and the original
// length of stay. No early or late departure adjustment.
func (s *Service) CheckOut(ctx context.Context, room int) (Checkout, error) {
	res, err := s.store.GetCheckedInByRoom(ctx, room)
	if err != nil {
		if errors.Is(err, internaltypes.ErrNotFound) {
			return Checkout{}, fmt.Errorf("%w: no checked-in guest in room %d", internaltypes.ErrNotFound, room)
		}
		return Checkout{}, err
	}
	if err := s.store.SetCheckedOut(ctx, res.ID); err != nil {
		return Checkout{}, err
	}
	res.Status = reservation.StatusCheckedOut

	out := Checkout{Reservation: res, TotalCents: res.TotalCents()}
	s.log.Info("guest checked out",
		zap.String("id", res.ID),
		zap.Int("room", room),
		zap.String("total", catalog.FormatMoney(out.TotalCents)))
	return out, nil
}
