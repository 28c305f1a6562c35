package game

// Adapter classifies free-form console lines of one game server flavour.
type Adapter interface {
	// Game returns the game identifier (e.g., "armareforger")
	Game() string

	// ParseLine extracts a structured event from a server line, or nil
	ParseLine(line string) *Event
}

type EventType string

const (
	EventJoin  EventType = "player_join"
	EventLeave EventType = "player_leave"
	EventChat  EventType = "chat"
	EventBan   EventType = "ban"
	EventUnban EventType = "unban"
	EventError EventType = "error"
)

type Event struct {
	Type    EventType `json:"type"`
	Session int       `json:"session,omitempty"`
	Player  string    `json:"player,omitempty"`
	UID     string    `json:"uid,omitempty"`
	Channel string    `json:"channel,omitempty"`
	Message string    `json:"message,omitempty"`
}
