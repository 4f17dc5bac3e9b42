// Package session implements the multi-model streaming session manager:
// the session store and its fold discipline, the per-channel runners, and
// the controller that ties them together.
package session

import (
	"sync"

	"github.com/rafael/multichat/internal/models"
	"github.com/rafael/multichat/internal/sse"
)

// UsageFunc receives remaining-balance numbers reported by completed
// channels. Invoked zero or more times per send; last call wins.
type UsageFunc func(models.Usage)

// Store owns the Session. Every mutation goes through AppendTurn, Clear,
// Replace or Fold; everything else sees read-only snapshots. This single
// choke point is what keeps N concurrent channel runners race-free.
type Store struct {
	mu             sync.RWMutex
	turns          []models.Turn
	conversationID string
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{}
}

// AppendTurn appends a pending turn to the session.
func (s *Store) AppendTurn(t models.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, t)
}

// Clear drops all turns and the active conversation id (new chat).
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
	s.conversationID = ""
}

// Replace swaps in a reconstructed turn list wholesale (conversation load).
func (s *Store) Replace(turns []models.Turn, conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = turns
	s.conversationID = conversationID
}

// Len returns the number of turns.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// ConversationID returns the active conversation id, empty if none.
func (s *Store) ConversationID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conversationID
}

// SetConversationID records the active conversation id.
func (s *Store) SetConversationID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversationID = id
}

// Snapshot returns a deep copy of the session. Each fold is applied
// atomically under the store lock, so a snapshot never exposes a
// partially-written turn.
func (s *Store) Snapshot() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := models.Session{ConversationID: s.conversationID}
	if len(s.turns) > 0 {
		snap.Turns = make([]models.Turn, len(s.turns))
		for i := range s.turns {
			snap.Turns[i] = s.turns[i].Clone()
		}
	}
	return snap
}

// Fold applies one decoded event to one response slot. Folds are no-ops
// when the turn is gone (cleared by a new chat racing a slow channel),
// when the slot is unknown, or when the slot is already terminal. The
// usage callback fires outside the lock; Fold itself never blocks.
func (s *Store) Fold(turnID, modelID string, ev sse.Event, onUsage UsageFunc) {
	var usage *models.Usage

	s.mu.Lock()
	if slot := s.findSlot(turnID, modelID); slot != nil && slot.InProgress {
		switch ev.Kind {
		case sse.KindChunk:
			slot.Content += ev.Content
		case sse.KindDone:
			slot.InProgress = false
			slot.TokensUsed = ev.TokensUsed
			slot.CreditsUsed = ev.CreditsUsed
			usage = &models.Usage{
				TokensRemaining:  ev.TokensRemaining,
				CreditsRemaining: ev.CreditsRemaining,
			}
		case sse.KindError:
			// Partial text folded before the failure stays visible.
			slot.InProgress = false
			slot.Err = ev.Message
		}
	}
	s.mu.Unlock()

	if usage != nil && onUsage != nil {
		onUsage(*usage)
	}
}

// findSlot locates a slot by turn and model id. Recent turns are the
// common case, so the scan runs from the tail. Callers hold s.mu.
func (s *Store) findSlot(turnID, modelID string) *models.ResponseSlot {
	for i := len(s.turns) - 1; i >= 0; i-- {
		if s.turns[i].ID == turnID {
			return s.turns[i].Slots[modelID]
		}
	}
	return nil
}
