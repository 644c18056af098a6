package bus

import (
	"context"

	"github.com/ctc-oss/foreman/pkg/log"
	"github.com/ctc-oss/foreman/pkg/message"
	"github.com/rs/zerolog"
	"github.com/ygrebnov/workers"
)

// MaxAttempts bounds how many times in all a message is executed, the
// first delivery included, before the bus gives up and logs it as failed.
const MaxAttempts = 3

// dispatchResult is the value a submitted task resolves to: the
// message that ran, whether it committed, and any follow-on messages
// it produced for re-dispatch.
type dispatchResult struct {
	msg      message.Message
	attempt  int
	ok       bool
	follow   []message.Message
	execErr  error
	terminal bool
}

// Bus is an at-least-once in-memory command dispatcher. Submitted
// messages run on a ygrebnov/workers pool; a message whose Execute
// returns an error is resubmitted until it has run MaxAttempts times in
// all, after which the failure is logged.
type Bus struct {
	pool   workers.Workers[dispatchResult]
	logger zerolog.Logger
}

// New creates a Bus backed by a dynamically sized worker pool and
// starts it against ctx. The bus stops dispatching once ctx is done.
func New(ctx context.Context, maxWorkers uint) *Bus {
	pool := workers.New[dispatchResult](ctx, &workers.Config{
		MaxWorkers:        maxWorkers,
		StartImmediately:  true,
		TasksBufferSize:   256,
		ResultsBufferSize: 256,
		ErrorsBufferSize:  256,
	})

	b := &Bus{pool: pool, logger: log.WithComponent("bus")}
	go b.drain(ctx)
	return b
}

// Dispatch submits a message for execution. Any follow-on messages its
// Execute call returns are recursively dispatched once it commits.
func (b *Bus) Dispatch(msg message.Message) error {
	return b.submit(msg, 1)
}

func (b *Bus) submit(msg message.Message, attempt int) error {
	return b.pool.AddTask(func(ctx context.Context) dispatchResult {
		ok, follow, err := msg.Execute(ctx)
		return dispatchResult{msg: msg, attempt: attempt, ok: ok, follow: follow, execErr: err, terminal: attempt >= MaxAttempts}
	})
}

// drain consumes results and errors off the pool for the bus's
// lifetime, redelivering failed messages and cascading follow-on
// messages returned by a successful Execute.
func (b *Bus) drain(ctx context.Context) {
	results := b.pool.GetResults()
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-results:
			b.handle(r)
		}
	}
}

func (b *Bus) handle(r dispatchResult) {
	if r.execErr != nil {
		if r.terminal {
			b.logger.Error().Err(r.execErr).Str("message_type", r.msg.Type()).Int("attempt", r.attempt).Msg("message execution failed permanently")
			return
		}
		b.logger.Warn().Err(r.execErr).Str("message_type", r.msg.Type()).Int("attempt", r.attempt).Msg("message execution failed, redelivering")
		if err := b.submit(r.msg, r.attempt+1); err != nil {
			b.logger.Error().Err(err).Str("message_type", r.msg.Type()).Msg("failed to redeliver message")
		}
		return
	}

	if !r.ok {
		b.logger.Debug().Str("message_type", r.msg.Type()).Msg("message did not commit, no follow-on work")
		return
	}

	for _, follow := range r.follow {
		if err := b.Dispatch(follow); err != nil {
			b.logger.Error().Err(err).Str("message_type", follow.Type()).Msg("failed to dispatch follow-on message")
		}
	}
}

// Errors exposes the pool's raw error channel, for callers that want to
// observe pool-level failures (e.g. a full tasks buffer) rather than
// per-message execution errors, which are only ever surfaced via logs.
func (b *Bus) Errors() chan error {
	return b.pool.GetErrors()
}
