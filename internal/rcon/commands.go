package rcon

import (
	"fmt"
	"strconv"
	"strings"
)

// Server console vocabulary.
const (
	PlayersCommand = "#players"
	RosterBanner   = "Players on server"
	UnbanConfirmed = "Ban removed!"
)

func banCommand(id string, seconds int64, reason string) string {
	cmd := fmt.Sprintf("#ban create %s %d", id, seconds)
	if reason = strings.TrimSpace(reason); reason != "" {
		cmd += " " + reason
	}
	return cmd
}

func unbanCommand(id string) string {
	return "#ban remove " + id
}

func kickCommand(session int) string {
	return "#kick " + strconv.Itoa(session)
}

// banConfirmation is the phrase the server prints once id is banned.
func banConfirmation(id string) string {
	return fmt.Sprintf("Player '%s' banned!", id)
}
