package predictor

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func entry(pair string, dir Direction, conf int) HistoryEntry {
	return HistoryEntry{Pair: pair, Direction: dir, Confidence: conf, Timestamp: time.Now()}
}

func TestFormatHistory_Empty(t *testing.T) {
	sess := NewSession("conn-1")
	if got := sess.FormatHistory(); got != EmptyHistoryMessage {
		t.Errorf("got %q", got)
	}
}

func TestFormatHistory_SingleEntry(t *testing.T) {
	sess := NewSession("conn-1")
	sess.Append(entry("BTC/USDT", DirectionUp, 95))

	got := sess.FormatHistory()
	want := "Your recent predictions:\n1. BTC/USDT - UP (95%)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatHistory_ShowsLastFiveOldestFirst(t *testing.T) {
	sess := NewSession("conn-1")
	for i := 1; i <= 7; i++ {
		sess.Append(entry(fmt.Sprintf("PAIR%d/USDT", i), DirectionDown, 90+i%9))
	}

	got := sess.FormatHistory()
	lines := strings.Split(got, "\n")
	if len(lines) != 6 {
		t.Fatalf("line count = %d, want header + 5 entries", len(lines))
	}

	// Entries 1 and 2 dropped; entry 3 is the oldest shown, numbered 1.
	if !strings.HasPrefix(lines[1], "1. PAIR3/USDT") {
		t.Errorf("first shown = %q", lines[1])
	}
	if !strings.HasPrefix(lines[5], "5. PAIR7/USDT") {
		t.Errorf("last shown = %q", lines[5])
	}
	if strings.Contains(got, "PAIR1/USDT") || strings.Contains(got, "PAIR2/USDT") {
		t.Error("dropped entries still rendered")
	}
}

func TestReset_TruncatesHistory(t *testing.T) {
	sess := NewSession("conn-1")
	sess.Append(entry("ETH/USDT", DirectionUp, 93))
	sess.Append(entry("SOL/USDT", DirectionNeutral, 91))

	sess.Reset()

	if sess.Len() != 0 {
		t.Errorf("len = %d after reset", sess.Len())
	}
	if got := sess.FormatHistory(); got != EmptyHistoryMessage {
		t.Errorf("got %q after reset", got)
	}
}
