package booking

import (
	"sort"
	"strconv"
	"strings"
)

// FilterRooms keeps rooms with at least minSeats seats and, when floor is
// non-empty, a matching floor label. The filter is stable: output preserves
// input order. No match yields an empty slice, not an error.
func FilterRooms(rooms []Room, minSeats int64, floor string) []Room {
	filtered := make([]Room, 0, len(rooms))
	for _, room := range rooms {
		if room.Seats < minSeats {
			continue
		}
		if floor != "" && room.Floor != floor {
			continue
		}
		filtered = append(filtered, room)
	}
	return filtered
}

// FindRoomByEmail resolves a room by its canonical email key. The match is
// exact and case-sensitive; ok is false when the email is absent so callers
// can surface a lookup failure instead of a silent default.
func FindRoomByEmail(rooms []Room, email string) (Room, bool) {
	for _, room := range rooms {
		if room.Email == email {
			return room, true
		}
	}
	return Room{}, false
}

// HighestSeatCapacity returns the largest seat count in the directory, or -1
// when no rooms exist.
func HighestSeatCapacity(rooms []Room) int64 {
	max := int64(-1)
	for _, room := range rooms {
		if room.Seats > max {
			max = room.Seats
		}
	}
	return max
}

// Floors returns the unique floor labels sorted by their numeric suffix,
// assuming the organization assigns labels like "F1", "F2". Labels without a
// parseable suffix sort after the numbered ones, alphabetically.
func Floors(rooms []Room) []string {
	seen := make(map[string]struct{}, len(rooms))
	floors := make([]string, 0, len(rooms))
	for _, room := range rooms {
		if room.Floor == "" {
			continue
		}
		if _, ok := seen[room.Floor]; ok {
			continue
		}
		seen[room.Floor] = struct{}{}
		floors = append(floors, room.Floor)
	}

	sort.Slice(floors, func(i, j int) bool {
		ni, iOK := floorNumber(floors[i])
		nj, jOK := floorNumber(floors[j])
		switch {
		case iOK && jOK:
			return ni < nj
		case iOK:
			return true
		case jOK:
			return false
		default:
			return floors[i] < floors[j]
		}
	})
	return floors
}

func floorNumber(label string) (int, bool) {
	if len(label) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(label[1:]))
	if err != nil {
		return 0, false
	}
	return n, true
}
