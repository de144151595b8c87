// Package timesync estimates the server's clock from request/reply probes so
// the client can agree with the server on a future instant.
package timesync

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	// MinSamples replies must agree before the estimate is trusted.
	MinSamples = 5
	// Tolerance is the widest spread, in milliseconds, of agreeing samples.
	Tolerance  = 30
	maxSamples = 20
)

// Clock returns local monotonic milliseconds.
type Clock func() uint64

// MonotonicClock counts milliseconds since it was created.
func MonotonicClock() Clock {
	start := time.Now()
	return func() uint64 { return uint64(time.Since(start).Milliseconds()) }
}

// Prober sends one time request carrying the local send time. The reply is
// handed back through Synchronizer.HandleReply.
type Prober interface {
	SendTimeRequest(ctx context.Context, sentAt uint64) error
}

type sample struct {
	offset int64
	rtt    uint64
}

type Synchronizer struct {
	clock  Clock
	logger *zap.Logger

	mu      sync.Mutex
	samples []sample
	offset  int64

	synced atomic.Bool
	force  atomic.Bool
}

func New(clock Clock, logger *zap.Logger) *Synchronizer {
	if clock == nil {
		clock = MonotonicClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{clock: clock, logger: logger}
}

func (s *Synchronizer) IsSynchronised() bool { return s.synced.Load() }

// LocalTimer is the local monotonic clock the synchronizer is built on.
func (s *Synchronizer) LocalTimer() uint64 { return s.clock() }

// NetworkTimer is the local clock shifted by the estimated server offset.
func (s *Synchronizer) NetworkTimer() uint64 {
	s.mu.Lock()
	off := s.offset
	s.mu.Unlock()
	t := int64(s.clock()) + off
	if t < 0 {
		return 0
	}
	return uint64(t)
}

// EnableForceSetTimer gives up on convergence: the best estimate available
// now is used and the synchronizer reports synchronised from here on.
func (s *Synchronizer) EnableForceSetTimer() {
	s.force.Store(true)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.synced.Load() {
		return
	}
	if len(s.samples) > 0 {
		s.offset = s.samples[len(s.samples)-1].offset
	}
	s.synced.Store(true)
	s.logger.Warn("network timer force set", zap.Int64("offset_ms", s.offset), zap.Int("samples", len(s.samples)))
}

// HandleReply records a probe that was sent at sentAt (local ms) and
// answered with serverTime (server ms).
func (s *Synchronizer) HandleReply(sentAt, serverTime uint64) {
	now := s.clock()
	if now < sentAt {
		return
	}
	rtt := now - sentAt
	smp := sample{
		offset: int64(serverTime) + int64(rtt/2) - int64(now),
		rtt:    rtt,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, smp)
	if len(s.samples) > maxSamples {
		s.samples = s.samples[len(s.samples)-maxSamples:]
	}

	if s.synced.Load() {
		// Once trusted the offset only follows converged windows, so a
		// single slow reply cannot move the shared clock.
		if off, ok := converged(s.samples); ok {
			s.offset = off
		}
		return
	}
	if s.force.Load() {
		s.offset = smp.offset
		s.synced.Store(true)
		return
	}
	if off, ok := converged(s.samples); ok {
		s.offset = off
		s.synced.Store(true)
		s.logger.Info("network timer synchronised", zap.Int64("offset_ms", off), zap.Uint64("rtt_ms", rtt))
	}
}

// converged looks at the newest MinSamples offsets and returns their median
// if they all lie within Tolerance of each other.
func converged(samples []sample) (int64, bool) {
	if len(samples) < MinSamples {
		return 0, false
	}
	window := make([]int64, MinSamples)
	for i, smp := range samples[len(samples)-MinSamples:] {
		window[i] = smp.offset
	}
	sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })
	if window[len(window)-1]-window[0] > Tolerance {
		return 0, false
	}
	return window[len(window)/2], true
}

// Run probes every interval until ctx ends. Send failures are logged and
// retried on the next interval.
func (s *Synchronizer) Run(ctx context.Context, p Prober, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if err := p.SendTimeRequest(ctx, s.clock()); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Debug("time probe failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}
