package session

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/rafael/multichat/internal/api"
	"github.com/rafael/multichat/internal/apierrors"
	"github.com/rafael/multichat/internal/models"
	"github.com/rafael/multichat/internal/sse"
)

// Backend is the slice of the API client the session manager depends on.
type Backend interface {
	OpenStream(ctx context.Context, req api.StreamRequest) (io.ReadCloser, error)
	FetchMessages(ctx context.Context, conversationID string) ([]models.StoredMessage, error)
}

// runner drives one decoder for one (turn, model) pair and folds its
// events in decode order. Failures terminate only this runner's slot;
// sibling channels of the same turn are unaffected.
type runner struct {
	backend Backend
	store   *Store
	turnID  string
	modelID string
	req     api.StreamRequest
	onUsage UsageFunc
}

// run executes the channel to completion. On cancellation it stops
// reading and folds nothing further: the slot deliberately keeps its last
// observed state. Any other premature end folds a synthetic error so the
// slot leaves the in-progress state exactly once.
func (r *runner) run(ctx context.Context) {
	body, err := r.backend.OpenStream(ctx, r.req)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Debug().Str("model", r.modelID).Err(err).Msg("channel failed to open")
		r.store.Fold(r.turnID, r.modelID, sse.ErrorEvent(apierrors.SlotMessage(err)), nil)
		return
	}
	defer func() {
		_ = body.Close()
	}()

	dec := sse.NewDecoder(body)
	var readErr error
	for {
		ev, err := dec.Next()
		if err != nil {
			if err != io.EOF {
				readErr = err
			}
			break
		}
		if ctx.Err() != nil {
			return
		}
		r.store.Fold(r.turnID, r.modelID, ev, r.onUsage)
		if ev.Terminal() {
			log.Debug().Str("model", r.modelID).Str("event", ev.Kind.String()).Msg("channel settled")
			return
		}
	}

	if ctx.Err() != nil {
		return
	}

	// The stream ended without a terminal event.
	msg := "stream ended before completion"
	if readErr != nil {
		msg = fmt.Sprintf("stream interrupted: %v", readErr)
	}
	log.Debug().Str("model", r.modelID).Msg(msg)
	r.store.Fold(r.turnID, r.modelID, sse.ErrorEvent(msg), nil)
}
