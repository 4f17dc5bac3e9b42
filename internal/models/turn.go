// Package models contains the data types shared by the streaming session
// manager: turns, response slots, sessions and the stored message log.
package models

import "time"

// Message roles as stored by the backend.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ResponseSlot is the per-model mutable response record within a Turn.
// A slot is terminal once InProgress is false; it holds at most one of
// completion data or an error message, never both.
type ResponseSlot struct {
	ModelID     string
	Content     string
	InProgress  bool
	TokensUsed  int
	CreditsUsed int
	Err         string
}

// Terminal reports whether the slot has left the in-progress state.
func (s *ResponseSlot) Terminal() bool {
	return !s.InProgress
}

// Turn is one user utterance plus the set of model responses to it.
// Slots are keyed by model id; ModelIDs records the request order so
// renderers iterate deterministically.
type Turn struct {
	ID        string
	Index     int
	CreatedAt time.Time
	UserText  string
	ModelIDs  []string
	Slots     map[string]*ResponseSlot
}

// NewTurn creates a pending turn with one in-progress slot per model id.
// Duplicate model ids collapse into a single slot.
func NewTurn(id string, index int, userText string, modelIDs []string) Turn {
	t := Turn{
		ID:        id,
		Index:     index,
		CreatedAt: time.Now(),
		UserText:  userText,
		Slots:     make(map[string]*ResponseSlot, len(modelIDs)),
	}
	for _, m := range modelIDs {
		if _, ok := t.Slots[m]; ok {
			continue
		}
		t.ModelIDs = append(t.ModelIDs, m)
		t.Slots[m] = &ResponseSlot{ModelID: m, InProgress: true}
	}
	return t
}

// Settled reports whether every slot has reached a terminal state.
func (t *Turn) Settled() bool {
	for _, s := range t.Slots {
		if s.InProgress {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the turn. Snapshots hand clones to the
// renderer so later folds never mutate what it is reading.
func (t *Turn) Clone() Turn {
	c := *t
	c.ModelIDs = append([]string(nil), t.ModelIDs...)
	c.Slots = make(map[string]*ResponseSlot, len(t.Slots))
	for id, s := range t.Slots {
		copied := *s
		c.Slots[id] = &copied
	}
	return c
}

// Session is the ordered sequence of turns for the active conversation.
// ConversationID is empty until the first send (or a load) correlates the
// session to a server-side conversation.
type Session struct {
	Turns          []Turn
	ConversationID string
}

// Usage is the ephemeral remaining-balance pair reported by completed
// channels. It is a side channel, never part of the session.
type Usage struct {
	TokensRemaining  int
	CreditsRemaining int
}
