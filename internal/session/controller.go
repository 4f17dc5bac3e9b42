package session

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/rafael/multichat/internal/api"
	"github.com/rafael/multichat/internal/apierrors"
	"github.com/rafael/multichat/internal/history"
	"github.com/rafael/multichat/internal/models"
)

// Controller is the public entry point of the session manager. One
// controller owns one live session; the renderer reads it through
// Snapshot and drives it through Send, Cancel, LoadConversation and
// NewSession.
type Controller struct {
	backend     Backend
	store       *Store
	maxTokens   int
	temperature float64

	mu     sync.Mutex
	busy   bool
	gen    uint64
	cancel context.CancelFunc
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithMaxTokens overrides the per-channel output length limit.
func WithMaxTokens(n int) ControllerOption {
	return func(c *Controller) {
		c.maxTokens = n
	}
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float64) ControllerOption {
	return func(c *Controller) {
		c.temperature = t
	}
}

// NewController creates a Controller over the given backend.
func NewController(backend Backend, opts ...ControllerOption) *Controller {
	c := &Controller{
		backend:     backend,
		store:       NewStore(),
		maxTokens:   models.DefaultMaxTokens,
		temperature: models.DefaultTemperature,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send addresses one user turn to the given models. It validates first
// (empty text, empty model list, send already in flight) and reports those
// without any I/O or turn creation. Otherwise it appends the pending turn
// synchronously, starts one channel per model under a shared cancelable
// context, and blocks until every channel has settled or been cancelled.
// Channel failures are folded into their slots and never returned here:
// after validation passes, Send always returns nil.
//
// Callers wanting a responsive UI run Send on its own goroutine and watch
// Snapshot; the pending turn is visible before Send performs any network
// call.
func (c *Controller) Send(ctx context.Context, text string, modelIDs []string, onUsage UsageFunc) error {
	if strings.TrimSpace(text) == "" {
		return apierrors.NewValidationError("message text is empty", apierrors.ErrEmptyPrompt)
	}
	if len(modelIDs) == 0 {
		return apierrors.NewValidationError("select at least one model", apierrors.ErrNoModels)
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return apierrors.NewValidationError("previous send still in flight", apierrors.ErrBusy)
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.busy = true
	c.gen++
	gen := c.gen
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	// One server-side conversation per session: generate an id on the
	// first send, reuse it for every later turn and channel.
	conversationID := c.store.ConversationID()
	if conversationID == "" {
		conversationID = uuid.NewString()
		c.store.SetConversationID(conversationID)
	}

	turn := models.NewTurn(uuid.NewString(), c.store.Len(), text, modelIDs)
	c.store.AppendTurn(turn)

	var wg sync.WaitGroup
	for _, modelID := range turn.ModelIDs {
		wg.Add(1)
		r := &runner{
			backend: c.backend,
			store:   c.store,
			turnID:  turn.ID,
			modelID: modelID,
			onUsage: onUsage,
			req: api.StreamRequest{
				Prompt:         text,
				ModelID:        modelID,
				ConversationID: conversationID,
				MaxTokens:      c.maxTokens,
				Temperature:    c.temperature,
			},
		}
		go func() {
			defer wg.Done()
			r.run(runCtx)
		}()
	}
	wg.Wait()

	// Cancel clears busy before the runners unwind, so a newer send may
	// already be in flight by the time this one returns. Only the current
	// send may clear the flag; a stale epilogue must not clobber it.
	c.mu.Lock()
	if c.gen == gen {
		c.busy = false
		c.cancel = nil
	}
	c.mu.Unlock()
	return nil
}

// Cancel aborts the in-flight send, if any. All of the turn's channels
// stop together; busy clears immediately without waiting for the runners
// to unwind. Text already folded stays; cancelled slots keep their
// in-progress flag (see the package documentation on dangling slots).
func (c *Controller) Cancel() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.busy = false
	c.mu.Unlock()
}

// Busy reports whether a send is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Snapshot returns a read-consistent copy of the session.
func (c *Controller) Snapshot() models.Session {
	return c.store.Snapshot()
}

// ConversationID returns the active conversation id, empty for a fresh
// session.
func (c *Controller) ConversationID() string {
	return c.store.ConversationID()
}

// LoadConversation fetches the stored message log, rebuilds the grouped
// turn shape and replaces the session wholesale. The id becomes the
// active conversation id so subsequent sends continue it.
func (c *Controller) LoadConversation(ctx context.Context, conversationID string) error {
	if c.Busy() {
		return apierrors.NewValidationError("cannot load while a send is in flight", apierrors.ErrBusy)
	}

	messages, err := c.backend.FetchMessages(ctx, conversationID)
	if err != nil {
		return err
	}

	// Re-check under the lock: a send that started during the fetch owns
	// the session now, and Replace would silently drop its pending turn.
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return apierrors.NewValidationError("cannot load while a send is in flight", apierrors.ErrBusy)
	}
	c.store.Replace(history.Reconcile(messages), conversationID)
	return nil
}

// NewSession starts a fresh chat: cancels any in-flight send and drops
// all turns and the conversation id. Late folds from runners still
// unwinding hit turns that no longer exist and are no-ops.
func (c *Controller) NewSession() {
	c.Cancel()
	c.store.Clear()
}
