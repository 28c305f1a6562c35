package reforger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reedfamily/reedcon/internal/game"
)

func TestParseLine(t *testing.T) {
	cases := []struct {
		line string
		want *game.Event
	}{
		{"Player #3 PlayerOne (10.0.0.7:2304) connected", &game.Event{Type: game.EventJoin, Session: 3, Player: "PlayerOne"}},
		{"Player #3 Player (One) disconnected", &game.Event{Type: game.EventLeave, Session: 3, Player: "Player (One)"}},
		{"(Global) PlayerOne: gg", &game.Event{Type: game.EventChat, Channel: "Global", Player: "PlayerOne", Message: "gg"}},
		{"Player 'ab6b9fa2-9ed8-434a-a2b6-bce11743372a' banned!", &game.Event{Type: game.EventBan, UID: "ab6b9fa2-9ed8-434a-a2b6-bce11743372a"}},
		{"Ban removed!", &game.Event{Type: game.EventUnban}},
		{"Unknown command: #foo", &game.Event{Type: game.EventError, Message: "Unknown command: #foo"}},
		{"Players on server:\n1;a;b", nil},
		{"", nil},
	}
	a := &Adapter{}
	for _, tc := range cases {
		assert.Equal(t, tc.want, a.ParseLine(tc.line), tc.line)
	}
}

func TestRegistered(t *testing.T) {
	assert.Contains(t, game.Names(), "armareforger")
	assert.Equal(t, game.EventUnban, game.Classify("armareforger", "Ban removed!").Type)
	assert.Nil(t, game.Classify("nosuchgame", "Ban removed!"))
}
