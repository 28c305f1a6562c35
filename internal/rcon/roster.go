package rcon

import (
	"iter"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Player is one connected session as reported by the server roster.
type Player struct {
	Number int    `json:"number"`
	UID    string `json:"uid"`
	Name   string `json:"name"`
}

// ParseRoster parses a roster reply: a banner line followed by
// "number;uid;name" lines. Malformed lines are skipped. The returned sequence
// is lazy and can be ranged over any number of times.
func ParseRoster(text string) iter.Seq[Player] {
	return func(yield func(Player) bool) {
		for line := range strings.Lines(text) {
			p, ok := parseRosterLine(line)
			if !ok {
				continue
			}
			if !yield(p) {
				return
			}
		}
	}
}

func parseRosterLine(line string) (Player, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, RosterBanner) {
		return Player{}, false
	}
	fields := strings.Split(line, ";")
	if len(fields) != 3 {
		return Player{}, false
	}
	number, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return Player{}, false
	}
	uid := strings.TrimSpace(fields[1])
	name := strings.TrimSpace(fields[2])
	if uid == "" || name == "" {
		return Player{}, false
	}
	return Player{Number: number, UID: uid, Name: name}, true
}

// IsUID reports whether s is a canonical hyphenated UUIDv4. Such identifiers
// are used as-is and never resolved through the history store.
func IsUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return u.Version() == 4 && u.Variant() == uuid.RFC4122
}
