// Package catalog loads the hotel configuration file into an immutable
// room-type catalog. The file format is line-oriented:
//
//	HotelName: Plaza South Mountain
//	HotelAbbreviation: PSM
//	RoomType: DLX:5:100.00:101-105
//
// A RoomType line is code:inventory:nightly rate:room number range. The
// inventory count is the authoritative capacity; the room range may be
// larger or smaller and is not reconciled against it.
package catalog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

const (
	hotelNamePrefix = "HotelName:"
	hotelAbrvPrefix = "HotelAbbreviation:"
	roomTypePrefix  = "RoomType:"
)

type RoomType struct {
	Code      string
	Inventory int
	RateCents int64

	// Physical room number range, inclusive on both ends.
	FirstRoom int
	LastRoom  int
}

// Rooms returns the physical room numbers of the type in ascending order.
func (rt RoomType) Rooms() []int {
	rooms := make([]int, 0, rt.LastRoom-rt.FirstRoom+1)
	for n := rt.FirstRoom; n <= rt.LastRoom; n++ {
		rooms = append(rooms, n)
	}
	return rooms
}

// Catalog is read-only after Load. Components receive it by value;
// nothing mutates it at runtime (edits go through SetRoomType, which
// rewrites the file for the next load).
type Catalog struct {
	HotelName string
	HotelCode string

	types map[string]RoomType
}

func Load(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return Catalog{}, err
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return Catalog{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

func Parse(r io.Reader) (Catalog, error) {
	c := Catalog{types: make(map[string]RoomType)}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, hotelNamePrefix):
			c.HotelName = strings.TrimSpace(strings.TrimPrefix(line, hotelNamePrefix))
		case strings.HasPrefix(line, hotelAbrvPrefix):
			c.HotelCode = strings.TrimSpace(strings.TrimPrefix(line, hotelAbrvPrefix))
		case strings.HasPrefix(line, roomTypePrefix):
			rt, err := parseRoomType(strings.TrimSpace(strings.TrimPrefix(line, roomTypePrefix)))
			if err != nil {
				return Catalog{}, err
			}
			c.types[rt.Code] = rt
		}
	}
	if err := scanner.Err(); err != nil {
		return Catalog{}, err
	}

	if c.HotelName == "" {
		return Catalog{}, fmt.Errorf("missing %q line", hotelNamePrefix)
	}
	if c.HotelCode == "" {
		return Catalog{}, fmt.Errorf("missing %q line", hotelAbrvPrefix)
	}
	return c, nil
}

func parseRoomType(s string) (RoomType, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return RoomType{}, fmt.Errorf("room type %q: want code:inventory:rate:range", s)
	}

	rt := RoomType{Code: strings.TrimSpace(parts[0])}
	if rt.Code == "" {
		return RoomType{}, fmt.Errorf("room type %q: empty code", s)
	}

	inv, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || inv < 1 {
		return RoomType{}, fmt.Errorf("room type %s: bad inventory %q", rt.Code, parts[1])
	}
	rt.Inventory = inv

	rt.RateCents, err = ParseMoney(strings.TrimSpace(parts[2]))
	if err != nil {
		return RoomType{}, fmt.Errorf("room type %s: %w", rt.Code, err)
	}

	rangeParts := strings.SplitN(strings.TrimSpace(parts[3]), "-", 2)
	if len(rangeParts) != 2 {
		return RoomType{}, fmt.Errorf("room type %s: bad room range %q", rt.Code, parts[3])
	}
	rt.FirstRoom, err = strconv.Atoi(strings.TrimSpace(rangeParts[0]))
	if err != nil {
		return RoomType{}, fmt.Errorf("room type %s: bad room range %q", rt.Code, parts[3])
	}
	rt.LastRoom, err = strconv.Atoi(strings.TrimSpace(rangeParts[1]))
	if err != nil || rt.LastRoom < rt.FirstRoom {
		return RoomType{}, fmt.Errorf("room type %s: bad room range %q", rt.Code, parts[3])
	}

	return rt, nil
}

func (c Catalog) Lookup(code string) (RoomType, bool) {
	rt, ok := c.types[code]
	return rt, ok
}

// Types lists all room types sorted by code.
func (c Catalog) Types() []RoomType {
	out := make([]RoomType, 0, len(c.types))
	for _, rt := range c.types {
		out = append(out, rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// TypeOfRoom finds the room type whose range contains the room number.
func (c Catalog) TypeOfRoom(room int) (RoomType, bool) {
	for _, code := range sortedCodes(c.types) {
		rt := c.types[code]
		if room >= rt.FirstRoom && room <= rt.LastRoom {
			return rt, true
		}
	}
	return RoomType{}, false
}

func sortedCodes(types map[string]RoomType) []string {
	codes := make([]string, 0, len(types))
	for code := range types {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// SetRoomType replaces the RoomType line for rt.Code in the config file,
// or appends one if the code is new. Callers reload the catalog
// afterwards; a loaded Catalog value is never edited in place.
func SetRoomType(path string, rt RoomType) error {
	if rt.Code == "" || strings.Contains(rt.Code, ":") {
		return fmt.Errorf("bad room type code %q", rt.Code)
	}
	if rt.Inventory < 1 || rt.RateCents < 0 || rt.LastRoom < rt.FirstRoom {
		return fmt.Errorf("bad room type definition for %q", rt.Code)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	line := fmt.Sprintf("%s %s:%d:%s:%d-%d", roomTypePrefix,
		rt.Code, rt.Inventory, FormatMoney(rt.RateCents), rt.FirstRoom, rt.LastRoom)

	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	replaced := false
	for i, l := range lines {
		rest, ok := strings.CutPrefix(strings.TrimSpace(l), roomTypePrefix)
		if !ok {
			continue
		}
		code := strings.SplitN(strings.TrimSpace(rest), ":", 2)[0]
		if code == rt.Code {
			lines[i] = line
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append(lines, line)
	}

	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644)
}

// ParseMoney converts a decimal amount like "100" or "89.50" to cents.
func ParseMoney(s string) (int64, error) {
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" || len(frac) > 2 || strings.HasPrefix(whole, "-") {
		return 0, fmt.Errorf("bad amount %q", s)
	}
	dollars, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || dollars < 0 {
		return 0, fmt.Errorf("bad amount %q", s)
	}
	cents := int64(0)
	if frac != "" {
		// pad "5" to "50"
		if len(frac) == 1 {
			frac += "0"
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("bad amount %q", s)
		}
	}
	return dollars*100 + cents, nil
}

// FormatMoney renders cents as a decimal amount with two places.
func FormatMoney(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
