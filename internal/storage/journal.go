package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/kart-lobby-client/internal/engine"
)

const (
	journalBuffer = 64
	drainTimeout  = 2 * time.Second
)

type op struct {
	name string
	run  func(ctx context.Context) error
}

// Journal writes session events to a Store from its own goroutine. The
// recording methods never block: when the queue is full the event is
// dropped and logged.
type Journal struct {
	store  Store
	id     string
	ops    chan op
	logger *zap.Logger
	now    func() time.Time
}

// NewJournal queues the session row for id right away.
func NewJournal(store Store, id, serverURL string, logger *zap.Logger) *Journal {
	if logger == nil {
		logger = zap.NewNop()
	}
	j := &Journal{
		store:  store,
		id:     id,
		ops:    make(chan op, journalBuffer),
		logger: logger.Named("journal").With(zap.String("session", id)),
		now:    time.Now,
	}
	sess := &Session{ID: id, ServerURL: serverURL, StartedAt: j.now()}
	j.enqueue("create session", func(ctx context.Context) error {
		return j.store.CreateSession(ctx, sess)
	})
	return j
}

func (j *Journal) ID() string { return j.id }

func (j *Journal) SessionAccepted(hostID, serverVersion uint32) {
	at := j.now()
	j.enqueue("session accepted", func(ctx context.Context) error {
		return j.store.UpdateSession(ctx, j.id, map[string]any{
			"host_id":        hostID,
			"server_version": serverVersion,
			"accepted_at":    at,
		})
	})
}

func (j *Journal) RaceFinished(res engine.RaceResult) {
	row := &RaceResult{
		SessionID:       j.id,
		Track:           res.Track,
		Laps:            res.Laps,
		Reverse:         res.Reverse,
		FastestLapTicks: res.FastestLapTicks,
		FastestKart:     res.FastestKart,
		FinishedAt:      j.now(),
	}
	j.enqueue("race finished", func(ctx context.Context) error {
		return j.store.AddRaceResult(ctx, row)
	})
}

func (j *Journal) SessionEnded(reason string) {
	at := j.now()
	j.enqueue("session ended", func(ctx context.Context) error {
		return j.store.UpdateSession(ctx, j.id, map[string]any{
			"ended_at":   at,
			"end_reason": reason,
		})
	})
}

func (j *Journal) enqueue(name string, run func(ctx context.Context) error) {
	select {
	case j.ops <- op{name: name, run: run}:
	default:
		j.logger.Warn("journal queue full, dropping", zap.String("op", name))
	}
}

// Run writes queued events until ctx ends, then flushes what is left.
func (j *Journal) Run(ctx context.Context) error {
	for {
		select {
		case o := <-j.ops:
			j.apply(ctx, o)
		case <-ctx.Done():
			j.drain()
			return nil
		}
	}
}

func (j *Journal) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case o := <-j.ops:
			j.apply(ctx, o)
		default:
			return
		}
	}
}

func (j *Journal) apply(ctx context.Context, o op) {
	if err := o.run(ctx); err != nil {
		j.logger.Warn("journal write failed", zap.String("op", o.name), zap.Error(err))
	}
}
