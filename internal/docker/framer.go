package docker

import (
	"strings"
	"time"

	"github.com/reedfamily/reedcon/internal/rcon"
)

// framer turns console output lines back into server messages. The roster
// banner, or any line ending in ':', opens a block that absorbs the lines
// following it until output pauses for longer than window or another block
// opens. Every other line is a message of its own and is released at once.
type framer struct {
	window time.Duration
	buf    []string
	last   time.Time
}

func opensBlock(line string) bool {
	line = strings.TrimSpace(line)
	return strings.HasPrefix(line, rcon.RosterBanner) || strings.HasSuffix(line, ":")
}

// add consumes one line received at at and returns the messages it completes.
func (f *framer) add(line string, at time.Time) []string {
	var out []string
	if f.pending() && at.Sub(f.last) > f.window {
		out = append(out, f.flush())
	}

	switch {
	case opensBlock(line):
		if f.pending() {
			out = append(out, f.flush())
		}
		f.buf = append(f.buf, line)
		f.last = at
	case f.pending():
		f.buf = append(f.buf, line)
		f.last = at
	default:
		out = append(out, line)
	}
	return out
}

func (f *framer) pending() bool { return len(f.buf) > 0 }

// flush releases the open block, if any.
func (f *framer) flush() string {
	msg := strings.Join(f.buf, "\n")
	f.buf = f.buf[:0]
	return msg
}
