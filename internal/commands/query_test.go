package commands

import (
	"testing"

	"github.com/rafael/multichat/internal/models"
)

func turnWith(slots map[string]string) models.Turn {
	turn := models.Turn{Slots: make(map[string]*models.ResponseSlot)}
	for id, errText := range slots {
		turn.ModelIDs = append(turn.ModelIDs, id)
		turn.Slots[id] = &models.ResponseSlot{ModelID: id, Err: errText}
	}
	return turn
}

func TestTurnErrorAllFailed(t *testing.T) {
	turn := turnWith(map[string]string{"m1": "boom", "m2": "bust"})
	if err := turnError(turn); err == nil {
		t.Error("Expected error when every channel failed")
	}
}

func TestTurnErrorPartialFailureSucceeds(t *testing.T) {
	turn := turnWith(map[string]string{"m1": "boom", "m2": ""})
	if err := turnError(turn); err != nil {
		t.Errorf("Expected nil for partial failure, got %v", err)
	}
}

func TestTurnErrorNoFailures(t *testing.T) {
	turn := turnWith(map[string]string{"m1": "", "m2": ""})
	if err := turnError(turn); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
}
