package reservation

import (
	"sort"
	"time"
)

// Occupancy tallies are built per call by scanning active reservations
// and counting each occupied night. Nightly granularity makes partial
// overlaps between multi-night stays trivially correct: a stay either
// covers a night or it doesn't.

type nightType struct {
	night    time.Time
	roomType string
}

type nightRoom struct {
	night time.Time
	room  int
}

// TypeTally counts active reservations per (night, room type).
type TypeTally map[nightType]int

// RoomTally counts active reservations per (night, physical room).
// Values above 1 mean the single-room invariant is already broken.
type RoomTally map[nightRoom]int

// TallyByType builds the type-level occupancy tally. Non-active
// reservations are skipped; checked-out and no-show stays free their
// nights.
func TallyByType(all []Reservation) TypeTally {
	tally := make(TypeTally)
	for _, r := range all {
		if !r.Active() {
			continue
		}
		for _, night := range r.StayNights() {
			tally[nightType{night, r.RoomType}]++
		}
	}
	return tally
}

// TallyByRoom builds the room-level occupancy tally from reservations
// that have a physical room assigned.
func TallyByRoom(all []Reservation) RoomTally {
	tally := make(RoomTally)
	for _, r := range all {
		if !r.Active() || r.RoomNumber == nil {
			continue
		}
		for _, night := range r.StayNights() {
			tally[nightRoom{night, *r.RoomNumber}]++
		}
	}
	return tally
}

// HasCapacity reports whether one more reservation of roomType fits on
// every night of [arrival, arrival+nights). A night already at capacity
// is full: occupancy must stay strictly below the inventory count.
func (t TypeTally) HasCapacity(roomType string, arrival time.Time, nights, capacity int) bool {
	arrival = Day(arrival)
	for d := 0; d < nights; d++ {
		if t[nightType{arrival.AddDate(0, 0, d), roomType}] >= capacity {
			return false
		}
	}
	return true
}

// RoomFree reports whether the physical room has zero occupancy on every
// night of [arrival, arrival+nights).
func (t RoomTally) RoomFree(room int, arrival time.Time, nights int) bool {
	arrival = Day(arrival)
	for d := 0; d < nights; d++ {
		if t[nightRoom{arrival.AddDate(0, 0, d), room}] >= 1 {
			return false
		}
	}
	return true
}

// FirstFreeRoom picks the room to bind at check-in: the lowest-numbered
// candidate free for the whole stay. Ascending order keeps assignment
// deterministic. Returns false when no candidate is free, which can
// happen even after a type-level slot was reserved.
func FirstFreeRoom(candidates []int, tally RoomTally, arrival time.Time, nights int) (int, bool) {
	rooms := make([]int, len(candidates))
	copy(rooms, candidates)
	sort.Ints(rooms)

	for _, room := range rooms {
		if tally.RoomFree(room, arrival, nights) {
			return room, true
		}
	}
	return 0, false
}
