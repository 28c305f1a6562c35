package reforger

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/reedfamily/reedcon/internal/game"
)

func init() {
	game.Register(&Adapter{})
}

// Adapter understands the BattlEye console output of Arma Reforger servers.
type Adapter struct{}

var (
	joinRe  = regexp.MustCompile(`^Player #(\d+) (.+?) \([^)]*\) connected`)
	leaveRe = regexp.MustCompile(`^Player #(\d+) (.+) disconnected`)
	chatRe  = regexp.MustCompile(`^\((\w+)\) (.+?): (.*)$`)
	banRe   = regexp.MustCompile(`Player '([^']+)' banned!`)
)

func (a *Adapter) Game() string { return "armareforger" }

func (a *Adapter) ParseLine(line string) *game.Event {
	line = strings.TrimSpace(line)
	if m := joinRe.FindStringSubmatch(line); m != nil {
		return &game.Event{Type: game.EventJoin, Session: atoi(m[1]), Player: m[2]}
	}
	if m := leaveRe.FindStringSubmatch(line); m != nil {
		return &game.Event{Type: game.EventLeave, Session: atoi(m[1]), Player: m[2]}
	}
	if m := chatRe.FindStringSubmatch(line); m != nil {
		return &game.Event{Type: game.EventChat, Channel: m[1], Player: m[2], Message: m[3]}
	}
	if m := banRe.FindStringSubmatch(line); m != nil {
		return &game.Event{Type: game.EventBan, UID: m[1]}
	}
	if strings.Contains(line, "Ban removed!") {
		return &game.Event{Type: game.EventUnban}
	}
	if strings.HasPrefix(line, "Error") || strings.Contains(line, "Unknown command") {
		return &game.Event{Type: game.EventError, Message: line}
	}
	return nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
