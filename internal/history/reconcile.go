// Package history rebuilds the grouped turn shape from a conversation's
// flat stored message log, so replayed conversations are indistinguishable
// from live ones.
package history

import (
	"github.com/rafael/multichat/internal/models"
)

// Reconcile converts a chronologically ordered flat message list into the
// turn list the live path produces. A user message opens a new turn; an
// assistant message attaches to the most recently opened turn as a slot
// keyed by its model id. A later assistant message for a model that
// already has a slot overwrites it (last-write-wins, matching the live
// fold-into-slot behavior). An assistant message with no preceding user
// message opens a standalone turn with empty user text. Every
// reconstructed slot is terminal.
func Reconcile(messages []models.StoredMessage) []models.Turn {
	var turns []models.Turn

	for _, msg := range messages {
		switch msg.Role {
		case models.RoleUser:
			turns = append(turns, models.Turn{
				ID:        msg.ID,
				Index:     len(turns),
				CreatedAt: msg.CreatedAt,
				UserText:  msg.Content,
				Slots:     make(map[string]*models.ResponseSlot),
			})

		case models.RoleAssistant:
			if len(turns) == 0 {
				turns = append(turns, models.Turn{
					ID:        msg.ID,
					Index:     0,
					CreatedAt: msg.CreatedAt,
					Slots:     make(map[string]*models.ResponseSlot),
				})
			}
			attach(&turns[len(turns)-1], msg)

		default:
			// Unknown roles (system etc.) have no place in the turn shape.
		}
	}

	return turns
}

// attach adds or overwrites the slot for msg's model on turn t.
func attach(t *models.Turn, msg models.StoredMessage) {
	slot, ok := t.Slots[msg.Model]
	if !ok {
		slot = &models.ResponseSlot{ModelID: msg.Model}
		t.ModelIDs = append(t.ModelIDs, msg.Model)
		t.Slots[msg.Model] = slot
	}
	slot.Content = msg.Content
	slot.TokensUsed = msg.TokensUsed
	slot.InProgress = false
	slot.Err = ""
}
