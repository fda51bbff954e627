package index

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Builder produces the index. It runs at most once per Handle.
type Builder func(ctx context.Context) (*Index, error)

// Handle is a once-initialized index shared by all requests. The build runs
// on the context given to NewHandle, so a caller that stops waiting does not
// cancel it for everyone else.
type Handle struct {
	ctx     context.Context
	builder Builder

	once sync.Once
	done chan struct{}
	idx  *Index
	err  error
}

func NewHandle(ctx context.Context, builder Builder) *Handle {
	return &Handle{
		ctx:     ctx,
		builder: builder,
		done:    make(chan struct{}),
	}
}

// Start begins the build in the background. Calling it again is a no-op.
func (h *Handle) Start() {
	h.once.Do(func() {
		go func() {
			defer close(h.done)
			h.idx, h.err = h.builder(h.ctx)
			if h.err != nil {
				log.Error().Err(h.err).Msg("Index build failed")
			}
		}()
	})
}

// Wait starts the build if needed and blocks until it finishes or ctx is done.
// A failed build returns the same error to every caller.
func (h *Handle) Wait(ctx context.Context) (*Index, error) {
	h.Start()
	select {
	case <-h.done:
		return h.idx, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Ready reports whether the build has finished, successfully or not.
func (h *Handle) Ready() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}
