package predictor

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// HistoryEntry records one completed prediction cycle.
type HistoryEntry struct {
	Pair       string    `json:"pair"`
	Direction  Direction `json:"direction"`
	Confidence int       `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// Session is the per-connection ephemeral state. It is owned exclusively by
// the connection handler and never shared across connections; the mutex only
// guards against two cycles from the same connection interleaving.
type Session struct {
	ConnectionID string

	mu      sync.Mutex
	history []HistoryEntry
}

// NewSession creates a session for a connection.
func NewSession(connectionID string) *Session {
	return &Session{ConnectionID: connectionID}
}

// Append records a completed prediction. History is append-only and ordered
// by occurrence.
func (s *Session) Append(entry HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, entry)
}

// Reset truncates the history. Credit state is untouched.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// Len returns the number of recorded predictions.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// historyDisplayLimit bounds how many entries /history shows.
const historyDisplayLimit = 5

// EmptyHistoryMessage is returned when no predictions have been made yet.
const EmptyHistoryMessage = "No predictions yet. Select a trading pair to get your first one!"

// FormatHistory renders the most recent entries, oldest first among those
// shown, 1-indexed.
func (s *Session) FormatHistory() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.history) == 0 {
		return EmptyHistoryMessage
	}

	entries := s.history
	if len(entries) > historyDisplayLimit {
		entries = entries[len(entries)-historyDisplayLimit:]
	}

	var sb strings.Builder
	sb.WriteString("Your recent predictions:\n")
	for i, entry := range entries {
		fmt.Fprintf(&sb, "%d. %s - %s (%d%%)\n", i+1, entry.Pair, entry.Direction, entry.Confidence)
	}
	return strings.TrimRight(sb.String(), "\n")
}
