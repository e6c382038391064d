package track

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/HarshitFusion/real-time-bus-driver-panel/internal/shared/geo"

	"github.com/rs/zerolog"
)

// ErrPermissionDenied is returned when the location capability is missing;
// the machine stays Idle and the caller is expected to request the
// capability before retrying.
var ErrPermissionDenied = errors.New("location permission denied")

type State int32

const (
	StateIdle State = iota
	StateActive
)

type Status string

const (
	StatusMoving  Status = "moving"
	StatusIdle    Status = "idle"
	StatusOffline Status = "offline"
)

type StartReason string

const (
	StartMotion StartReason = "motion"
	StartManual StartReason = "manual"
)

type StopReason string

const (
	StopManual            StopReason = "manual"
	StopPermissionRevoked StopReason = "permission-revoked"
)

const (
	movingDistanceM = 10.0
	movingSpeedMps  = 1.0
)

// RawFix is one GPS reading as delivered by the platform subscription.
type RawFix struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	SpeedMps     float64 `json:"speed"`
	BearingDeg   float64 `json:"bearing"`
	AccuracyM    float64 `json:"accuracy"`
	CapturedAtMs int64   `json:"timestamp"`
}

// Fix is a classified location fix, ready for delivery.
type Fix struct {
	BusID        string
	Latitude     float64
	Longitude    float64
	SpeedMps     float64
	BearingDeg   float64
	AccuracyM    float64
	CapturedAtMs int64
	Status       Status
}

// SubscribeRequest carries the GPS sampling parameters.
type SubscribeRequest struct {
	Interval         time.Duration
	FastestInterval  time.Duration
	MinDisplacementM float64
}

// FixSource is a platform GPS subscription. The returned channel yields a
// lazy, non-restartable sequence of fixes; the stop func closes the
// subscription deterministically.
type FixSource interface {
	Subscribe(ctx context.Context, req SubscribeRequest) (<-chan RawFix, func(), error)
}

type SendOutcome int

const (
	SendDelivered SendOutcome = iota
	SendFailed
)

// Syncer delivers a classified fix. Implementations never block the
// machine on network I/O beyond the call itself; the machine dispatches
// each send on its own goroutine.
type Syncer interface {
	SendFix(ctx context.Context, fix Fix) SendOutcome
}

// Notifier receives human-readable status text on transitions and fixes,
// the analog of a foreground notification. Implementations must be cheap.
type Notifier interface {
	Notify(text string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string) {}

// CapabilityCheck reports whether the location capability is granted.
type CapabilityCheck func() bool

type Config struct {
	Request SubscribeRequest
	// Offline marks the session as an offline fallback; every fix is then
	// classified offline so the backend can tell degraded data apart.
	Offline bool
}

func (c *Config) applyDefaults() {
	if c.Request.Interval <= 0 {
		c.Request.Interval = 5 * time.Second
	}
	if c.Request.FastestInterval <= 0 {
		c.Request.FastestInterval = 2 * time.Second
	}
	if c.Request.MinDisplacementM <= 0 {
		c.Request.MinDisplacementM = 5
	}
}

// Machine owns the GPS subscription lifetime. All transitions are
// serialized on one mutex so a stop cannot race a fix classification.
type Machine struct {
	busID      string
	src        FixSource
	syncer     Syncer
	capability CapabilityCheck
	notifier   Notifier
	cfg        Config
	log        zerolog.Logger

	mu         sync.Mutex
	active     bool
	lastFix    *RawFix
	cancelSub  context.CancelFunc
	stopSub    func()
	readerDone chan struct{}
}

func NewMachine(busID string, src FixSource, syncer Syncer, capability CapabilityCheck, notifier Notifier, cfg Config, log zerolog.Logger) *Machine {
	cfg.applyDefaults()
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Machine{
		busID:      busID,
		src:        src,
		syncer:     syncer,
		capability: capability,
		notifier:   notifier,
		cfg:        cfg,
		log:        log,
	}
}

// Start transitions Idle to Active. Starting while already Active is a
// no-op, which makes motion re-triggers idempotent.
func (m *Machine) Start(reason StartReason) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active {
		return nil
	}
	if m.capability != nil && !m.capability() {
		m.log.Warn().Str("reason", string(reason)).Msg("tracking start refused, missing location permission")
		return ErrPermissionDenied
	}

	ctx, cancel := context.WithCancel(context.Background())
	fixes, stop, err := m.src.Subscribe(ctx, m.cfg.Request)
	if err != nil {
		cancel()
		return err
	}

	m.active = true
	m.lastFix = nil
	m.cancelSub = cancel
	m.stopSub = stop
	m.readerDone = make(chan struct{})

	m.notifier.Notify("Starting location tracking...")
	m.log.Info().Str("reason", string(reason)).Msg("tracking started")

	go m.readFixes(ctx, fixes, m.readerDone)
	return nil
}

// Stop transitions Active to Idle and releases the GPS subscription.
// Stopping while Idle is a no-op. Stop returns once the fix reader has
// exited; an in-flight send is left to finish in the background.
func (m *Machine) Stop(reason StopReason) {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return
	}
	m.active = false
	m.lastFix = nil
	cancel := m.cancelSub
	stop := m.stopSub
	done := m.readerDone
	m.cancelSub = nil
	m.stopSub = nil
	m.readerDone = nil
	m.mu.Unlock()

	cancel()
	if stop != nil {
		stop()
	}
	<-done

	m.notifier.Notify("Location tracking stopped")
	m.log.Info().Str("reason", string(reason)).Msg("tracking stopped")
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active {
		return StateActive
	}
	return StateIdle
}

func (m *Machine) IsRunning() bool {
	return m.State() == StateActive
}

func (m *Machine) readFixes(ctx context.Context, fixes <-chan RawFix, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-fixes:
			if !ok {
				return
			}
			m.handleFix(raw)
		}
	}
}

func (m *Machine) handleFix(raw RawFix) {
	m.mu.Lock()
	// a stop acknowledged between delivery and classification wins
	if !m.active {
		m.mu.Unlock()
		return
	}

	status := m.classify(raw)
	m.lastFix = &raw
	fix := Fix{
		BusID:        m.busID,
		Latitude:     raw.Latitude,
		Longitude:    raw.Longitude,
		SpeedMps:     raw.SpeedMps,
		BearingDeg:   raw.BearingDeg,
		AccuracyM:    raw.AccuracyM,
		CapturedAtMs: raw.CapturedAtMs,
		Status:       status,
	}
	m.mu.Unlock()

	m.notifier.Notify(statusText(fix))

	// non-blocking handoff; delivery is best effort and survives a stop
	go func() {
		if outcome := m.syncer.SendFix(context.Background(), fix); outcome == SendFailed {
			m.log.Warn().Str("bus_id", fix.BusID).Int64("timestamp", fix.CapturedAtMs).Msg("fix delivery failed")
		}
	}()
}

// classify runs the significance test against the previous accepted fix.
// Caller holds m.mu.
func (m *Machine) classify(raw RawFix) Status {
	if m.cfg.Offline {
		return StatusOffline
	}
	if m.lastFix == nil {
		return StatusIdle
	}
	distance := geo.HaversineM(m.lastFix.Latitude, m.lastFix.Longitude, raw.Latitude, raw.Longitude)
	if distance > movingDistanceM || raw.SpeedMps > movingSpeedMps {
		return StatusMoving
	}
	return StatusIdle
}

func statusText(fix Fix) string {
	if fix.Status == StatusMoving {
		return fmt.Sprintf("Bus moving - Speed: %.1f km/h", fix.SpeedMps*3.6)
	}
	return fmt.Sprintf("Bus idle - Location: %.6f, %.6f", fix.Latitude, fix.Longitude)
}
