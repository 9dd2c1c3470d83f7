package ws

import (
	"context"
	"sync"
	"time"

	"github.com/tabshare/tabshare/internal/domain"
	"github.com/tabshare/tabshare/internal/infrastructure/logging"
)

const (
	sequencerQueueSize   = 256
	sequencerIdleTimeout = 30 * time.Second
	appendTimeout        = 10 * time.Second
)

type appendResult struct {
	event domain.TimelineEvent
	err   error
}

type appendJob struct {
	sender  domain.Sender
	kind    domain.EventKind
	payload string
	reply   chan appendResult
}

// Sequencer serializes appends per room. All appends for a room go through a
// single worker goroutine, so the order events reach the broadcast channel is
// the same order the store assigned their IDs in. Without this, two
// concurrent appends could publish out of order and the per-session ordering
// floor would silently drop the later-published event.
type Sequencer struct {
	mu      sync.Mutex
	workers map[string]chan appendJob

	store  domain.TimelineStore
	core   *Core
	logger logging.Logger
}

func NewSequencer(store domain.TimelineStore, core *Core, logger logging.Logger) *Sequencer {
	return &Sequencer{
		workers: make(map[string]chan appendJob),
		store:   store,
		core:    core,
		logger:  logger,
	}
}

// Submit queues an append for the room and waits for the durable result. A
// full room queue fails fast with ErrStoreBusy rather than blocking the
// caller.
func (s *Sequencer) Submit(ctx context.Context, roomID string, sender domain.Sender, kind domain.EventKind, payload string) (domain.TimelineEvent, error) {
	if roomID == "" || !kind.Valid() || payload == "" {
		return domain.TimelineEvent{}, domain.ErrEventInvalid
	}

	job := appendJob{
		sender:  sender,
		kind:    kind,
		payload: payload,
		reply:   make(chan appendResult, 1),
	}

	s.mu.Lock()
	queue, ok := s.workers[roomID]
	if !ok {
		queue = make(chan appendJob, sequencerQueueSize)
		s.workers[roomID] = queue
		go s.run(roomID, queue)
	}

	select {
	case queue <- job:
		s.mu.Unlock()
	default:
		s.mu.Unlock()
		return domain.TimelineEvent{}, domain.ErrStoreBusy
	}

	select {
	case result := <-job.reply:
		return result.event, result.err
	case <-ctx.Done():
		// The job stays queued and will still be appended in order; only the
		// caller stops waiting for it.
		return domain.TimelineEvent{}, ctx.Err()
	}
}

func (s *Sequencer) run(roomID string, queue chan appendJob) {
	idle := time.NewTimer(sequencerIdleTimeout)
	defer idle.Stop()

	for {
		select {
		case job := <-queue:
			s.process(roomID, job)

			if !idle.Stop() {
				<-idle.C
			}
			idle.Reset(sequencerIdleTimeout)

		case <-idle.C:
			// Re-check under the lock so a job enqueued between the timer
			// firing and this check is not stranded on a dead worker.
			s.mu.Lock()
			if len(queue) > 0 {
				s.mu.Unlock()
				idle.Reset(sequencerIdleTimeout)
				continue
			}
			delete(s.workers, roomID)
			s.mu.Unlock()
			return
		}
	}
}

// process appends one job and publishes the result. The append runs on a
// detached context: a caller that gave up waiting must not be able to cancel
// an append that is already in the room's sequence.
func (s *Sequencer) process(roomID string, job appendJob) {
	ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
	defer cancel()

	event, err := s.store.AppendEvent(ctx, roomID, job.sender, job.kind, job.payload)
	if err != nil {
		s.logger.Error(logging.Realtime, logging.Broadcast, "append failed", map[logging.ExtraKey]any{
			logging.RoomId:       roomID,
			logging.ErrorMessage: err.Error(),
		})
		job.reply <- appendResult{err: err}
		return
	}

	s.core.Publish(event)
	job.reply <- appendResult{event: event}
}
