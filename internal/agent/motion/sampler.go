package motion

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const standardGravity = 9.81

// Sample is one raw accelerometer reading. Delivery rate is whatever the
// platform provides; the sampler never asks for a specific rate.
type Sample struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
	TimestampMs int64   `json:"timestamp"`
}

// SampleSource is a platform accelerometer subscription. The channel is a
// lazy, non-restartable sequence; closing it ends the subscription.
type SampleSource interface {
	Samples() <-chan Sample
	Close() error
}

type Config struct {
	EvalInterval time.Duration
	Threshold    float64
}

func (c *Config) applyDefaults() {
	if c.EvalInterval <= 0 {
		c.EvalInterval = 5 * time.Second
	}
	if c.Threshold <= 0 {
		c.Threshold = 2.0
	}
}

// Sampler watches accelerometer magnitude and fires a movement trigger
// when the accumulated magnitude delta over an evaluation period exceeds
// the threshold. It never touches GPS.
type Sampler struct {
	src SampleSource
	cfg Config
	log zerolog.Logger

	mu       sync.Mutex
	previous float64
	current  float64
	delta    float64
}

func NewSampler(src SampleSource, cfg Config, log zerolog.Logger) *Sampler {
	cfg.applyDefaults()
	return &Sampler{
		src:      src,
		cfg:      cfg,
		log:      log,
		previous: standardGravity,
		current:  standardGravity,
	}
}

// Run consumes samples and evaluates movement once per interval, invoking
// trigger on each evaluation that crosses the threshold. Triggering is
// fire-and-forget; re-triggering while tracking is already active is the
// receiver's no-op. Without a sample source the sampler runs degraded and
// never triggers. Run returns when ctx is cancelled.
func (s *Sampler) Run(ctx context.Context, trigger func()) {
	var samples <-chan Sample
	if s.src != nil {
		samples = s.src.Samples()
		defer func() { _ = s.src.Close() }()
	} else {
		s.log.Warn().Msg("motion sensor unavailable, movement detection disabled")
	}

	ticker := time.NewTicker(s.cfg.EvalInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case sample, ok := <-samples:
			if !ok {
				samples = nil
				continue
			}
			s.observe(sample)
		case <-ticker.C:
			if s.evaluate() {
				trigger()
			}
		}
	}
}

func (s *Sampler) observe(sample Sample) {
	magnitude := math.Sqrt(sample.X*sample.X + sample.Y*sample.Y + sample.Z*sample.Z)

	s.mu.Lock()
	s.previous = s.current
	s.current = magnitude
	s.delta += math.Abs(s.current - s.previous)
	s.mu.Unlock()
}

// evaluate reports whether the delta accumulated since the previous
// evaluation crossed the threshold, and resets the accumulator.
func (s *Sampler) evaluate() bool {
	s.mu.Lock()
	delta := s.delta
	s.delta = 0
	s.mu.Unlock()

	moving := delta > s.cfg.Threshold
	s.log.Debug().Float64("delta", delta).Bool("moving", moving).Msg("movement check")
	return moving
}
