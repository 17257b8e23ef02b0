package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/hotelier/internal/db"
	"github.com/example/hotelier/internal/domain/reservation"
	"github.com/example/hotelier/internal/internaltypes"
	"github.com/jackc/pgx/v5"
)

const reservationColumns = `id, hotel_code, guest_name, room_type, rate_cents, arrival_date, nights, room_number, status, created_at, updated_at`

type ReservationRepo struct{ db *db.DB }

func NewReservationRepo(d *db.DB) *ReservationRepo { return &ReservationRepo{db: d} }

// Reserve checks type-level availability and inserts the reservation as
// one transaction. The hotel's counter row is incremented first and
// stays locked until commit, which serializes concurrent reserves per
// hotel: the availability check and the ID sequence cannot race. On a
// full house the transaction rolls back, so the sequence has no gaps.
func (r *ReservationRepo) Reserve(ctx context.Context, res reservation.Reservation, capacity int) (reservation.Reservation, error) {
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		var seq int64
		err := tx.QueryRow(ctx, `
INSERT INTO reservation_counters(hotel_code, next_seq) VALUES ($1, 1)
ON CONFLICT (hotel_code) DO UPDATE SET next_seq = reservation_counters.next_seq + 1
RETURNING next_seq`, res.HotelCode).Scan(&seq)
		if err != nil {
			return err
		}

		active, err := listActiveTx(ctx, tx, res.HotelCode, res.RoomType)
		if err != nil {
			return err
		}
		tally := reservation.TallyByType(active)
		if !tally.HasCapacity(res.RoomType, res.ArrivalDate, res.Nights, capacity) {
			return internaltypes.ErrNoAvailability
		}

		res.ID = fmt.Sprintf("%s-%d", res.HotelCode, seq)
		res.Status = reservation.StatusBooked
		return tx.QueryRow(ctx, `
INSERT INTO reservations(id, hotel_code, guest_name, room_type, rate_cents, arrival_date, nights, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING created_at, updated_at`,
			res.ID, res.HotelCode, res.GuestName, res.RoomType, res.RateCents,
			res.ArrivalDate, res.Nights, res.Status,
		).Scan(&res.CreatedAt, &res.UpdatedAt)
	})
	if err != nil {
		return reservation.Reservation{}, err
	}
	return res, nil
}

// CheckIn binds the first free candidate room to the reservation. It
// takes the same per-hotel lock as Reserve so two check-ins cannot pick
// the same room for overlapping nights.
func (r *ReservationRepo) CheckIn(ctx context.Context, id string, candidates []int) (int, error) {
	var room int
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		res, err := scanReservation(tx.QueryRow(ctx,
			`SELECT `+reservationColumns+` FROM reservations WHERE id=$1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return internaltypes.ErrNotFound
			}
			return err
		}
		if res.Status != reservation.StatusBooked {
			return internaltypes.ErrInvalidState
		}

		// lock the hotel row without advancing the sequence
		var seq int64
		err = tx.QueryRow(ctx, `
INSERT INTO reservation_counters(hotel_code, next_seq) VALUES ($1, 0)
ON CONFLICT (hotel_code) DO UPDATE SET next_seq = reservation_counters.next_seq
RETURNING next_seq`, res.HotelCode).Scan(&seq)
		if err != nil {
			return err
		}

		assigned, err := listAssignedTx(ctx, tx, res.HotelCode)
		if err != nil {
			return err
		}
		tally := reservation.TallyByRoom(assigned)
		picked, ok := reservation.FirstFreeRoom(candidates, tally, res.ArrivalDate, res.Nights)
		if !ok {
			return internaltypes.ErrNoAvailability
		}

		room = picked
		_, err = tx.Exec(ctx,
			`UPDATE reservations SET status=$2, room_number=$3, updated_at=now() WHERE id=$1`,
			id, reservation.StatusCheckedIn, room)
		return err
	})
	if err != nil {
		return 0, err
	}
	return room, nil
}

func (r *ReservationRepo) GetByID(ctx context.Context, id string) (reservation.Reservation, error) {
	res, err := scanReservation(r.db.QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return reservation.Reservation{}, internaltypes.ErrNotFound
		}
		return reservation.Reservation{}, err
	}
	return res, nil
}

// GetCheckedInByRoom finds the in-house reservation holding a room.
func (r *ReservationRepo) GetCheckedInByRoom(ctx context.Context, room int) (reservation.Reservation, error) {
	res, err := scanReservation(r.db.QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE room_number=$1 AND status=$2`,
		room, reservation.StatusCheckedIn))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return reservation.Reservation{}, internaltypes.ErrNotFound
		}
		return reservation.Reservation{}, err
	}
	return res, nil
}

// ListActive returns booked and checked-in reservations for the hotel,
// optionally narrowed to one room type.
func (r *ReservationRepo) ListActive(ctx context.Context, hotelCode, roomType string) ([]reservation.Reservation, error) {
	sql := `SELECT ` + reservationColumns + ` FROM reservations
WHERE hotel_code=$1 AND status IN ($2,$3)`
	args := []any{hotelCode, reservation.StatusBooked, reservation.StatusCheckedIn}
	if roomType != "" {
		sql += ` AND room_type=$4`
		args = append(args, roomType)
	}
	sql += ` ORDER BY id`

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (r *ReservationRepo) SetCheckedOut(ctx context.Context, id string) error {
	n, err := r.db.ExecRows(ctx,
		`UPDATE reservations SET status=$2, updated_at=now() WHERE id=$1 AND status=$3`,
		id, reservation.StatusCheckedOut, reservation.StatusCheckedIn)
	if err != nil {
		return err
	}
	if n == 0 {
		return internaltypes.ErrNotFound
	}
	return nil
}

func (r *ReservationRepo) Delete(ctx context.Context, id string) error {
	n, err := r.db.ExecRows(ctx, `DELETE FROM reservations WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return internaltypes.ErrNotFound
	}
	return nil
}

// MarkNoShows retires booked reservations whose whole stay lies before
// today: the guest never arrived, the nights can no longer be claimed.
func (r *ReservationRepo) MarkNoShows(ctx context.Context, today time.Time) (int64, error) {
	return r.db.ExecRows(ctx, `
UPDATE reservations SET status=$1, updated_at=now()
WHERE status=$2 AND arrival_date + nights <= $3::date`,
		reservation.StatusNoShow, reservation.StatusBooked, reservation.Day(today))
}

func listActiveTx(ctx context.Context, tx pgx.Tx, hotelCode, roomType string) ([]reservation.Reservation, error) {
	rows, err := tx.Query(ctx, `SELECT `+reservationColumns+` FROM reservations
WHERE hotel_code=$1 AND room_type=$2 AND status IN ($3,$4)`,
		hotelCode, roomType, reservation.StatusBooked, reservation.StatusCheckedIn)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

func listAssignedTx(ctx context.Context, tx pgx.Tx, hotelCode string) ([]reservation.Reservation, error) {
	rows, err := tx.Query(ctx, `SELECT `+reservationColumns+` FROM reservations
WHERE hotel_code=$1 AND room_number IS NOT NULL AND status IN ($2,$3)`,
		hotelCode, reservation.StatusBooked, reservation.StatusCheckedIn)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

type scannable interface {
	Scan(dest ...any) error
}

func scanReservation(row scannable) (reservation.Reservation, error) {
	var res reservation.Reservation
	var status string
	if err := row.Scan(
		&res.ID, &res.HotelCode, &res.GuestName, &res.RoomType, &res.RateCents,
		&res.ArrivalDate, &res.Nights, &res.RoomNumber, &status,
		&res.CreatedAt, &res.UpdatedAt,
	); err != nil {
		return reservation.Reservation{}, err
	}
	res.Status = reservation.Status(status)
	res.ArrivalDate = reservation.Day(res.ArrivalDate)
	return res, nil
}

type rowIter interface {
	Next() bool
	Err() error
	Scan(dest ...any) error
}

func collectReservations(rows rowIter) ([]reservation.Reservation, error) {
	var out []reservation.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
