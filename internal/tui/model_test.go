package tui

import (
	"strings"
	"testing"

	"github.com/rafael/multichat/internal/models"
	"github.com/rafael/multichat/internal/session"
)

func testModel() *Model {
	m := NewModel(session.NewController(nil), []string{"m1", "m2"})
	m.width = 80
	m.height = 24
	return m
}

func TestRenderTurnsEmptySession(t *testing.T) {
	m := testModel()
	out := m.renderTurns()
	if !strings.Contains(out, "m1, m2") {
		t.Errorf("Expected model ids in placeholder, got %q", out)
	}
}

func TestRenderTurnsShowsUserAndSlots(t *testing.T) {
	m := testModel()
	turn := models.NewTurn("t1", 0, "What is Go?", []string{"m1", "m2"})
	turn.Slots["m1"].Content = "A language."
	turn.Slots["m1"].InProgress = false
	turn.Slots["m2"].Err = "rate limited"
	turn.Slots["m2"].InProgress = false
	m.snap = models.Session{Turns: []models.Turn{turn}}

	out := m.renderTurns()

	if !strings.Contains(out, "What is Go?") {
		t.Error("Expected user text in output")
	}
	if !strings.Contains(out, "A language.") {
		t.Error("Expected completed content in output")
	}
	if !strings.Contains(out, "rate limited") {
		t.Error("Expected error text in output")
	}
}

func TestRenderSlotStreamingShowsCursor(t *testing.T) {
	m := testModel()
	slot := &models.ResponseSlot{ModelID: "m1", Content: "partial", InProgress: true}

	out := m.renderSlot(slot)

	if !strings.Contains(out, "partial") {
		t.Error("Expected partial content while streaming")
	}
	if !strings.Contains(out, "▌") {
		t.Error("Expected streaming cursor")
	}
}

func TestSlotHeaderStates(t *testing.T) {
	m := testModel()

	done := &models.ResponseSlot{ModelID: "m1", TokensUsed: 12}
	if out := m.slotHeader(done); !strings.Contains(out, "12 tokens") {
		t.Errorf("Expected token count in header, got %q", out)
	}

	failed := &models.ResponseSlot{ModelID: "m1", Err: "boom"}
	if out := m.slotHeader(failed); !strings.Contains(out, "✗") {
		t.Errorf("Expected failure mark, got %q", out)
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("abcd"); got != "abcd" {
		t.Errorf("Expected short ids unchanged, got %q", got)
	}
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("Expected 8-char prefix, got %q", got)
	}
}
