package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HarshitFusion/real-time-bus-driver-panel/internal/agent/cred"
	"github.com/HarshitFusion/real-time-bus-driver-panel/internal/agent/feed"
	"github.com/HarshitFusion/real-time-bus-driver-panel/internal/agent/motion"
	"github.com/HarshitFusion/real-time-bus-driver-panel/internal/agent/syncer"
	"github.com/HarshitFusion/real-time-bus-driver-panel/internal/agent/track"
	"github.com/HarshitFusion/real-time-bus-driver-panel/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var mainRunner = realMain

func main() {
	mainRunner()
}

func realMain() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg := config.Load()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := Run(context.Background(), cfg, signals); err != nil {
		log.Error().Err(err).Msg("agent exited with error")
		os.Exit(1)
	}
}

// logNotifier is the console analog of the driver app's foreground
// notification.
type logNotifier struct{}

func (logNotifier) Notify(text string) {
	log.Info().Msg(text)
}

// Run wires the session, the motion sampler and the tracking machine and
// blocks until a termination signal or ctx cancellation.
func Run(ctx context.Context, cfg config.Config, signals <-chan os.Signal) error {
	store, err := cred.NewFileStore(cfg.CredFile)
	if err != nil {
		return err
	}
	client := syncer.NewClient(cfg.APIBaseURL, store, log.Logger)

	session, err := establishSession(ctx, client, cfg)
	if err != nil {
		return err
	}
	if session.IsOffline {
		log.Warn().Str("bus_id", session.BusID).Msg("running with offline session, fixes will not be delivered")
	}

	if cfg.GPSFeed == "" {
		return errors.New("GPS_FEED is required")
	}

	machine := track.NewMachine(
		session.BusID,
		feed.NewGPSFeed(cfg.GPSFeed),
		client,
		func() bool {
			_, statErr := os.Stat(cfg.GPSFeed)
			return statErr == nil
		},
		logNotifier{},
		track.Config{
			Request: track.SubscribeRequest{
				Interval:         time.Duration(cfg.LocationIntervalMs) * time.Millisecond,
				FastestInterval:  time.Duration(cfg.FastestIntervalMs) * time.Millisecond,
				MinDisplacementM: cfg.MinDisplacementMeters,
			},
			Offline: session.IsOffline,
		},
		log.Logger,
	)

	var sensor motion.SampleSource
	if cfg.SensorFeed != "" {
		sensor, err = feed.OpenSensorFeed(cfg.SensorFeed)
		if err != nil {
			return err
		}
	}
	sampler := motion.NewSampler(sensor, motion.Config{
		EvalInterval: time.Duration(cfg.MovementCheckMs) * time.Millisecond,
		Threshold:    cfg.MovementThreshold,
	}, log.Logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	samplerDone := make(chan struct{})
	go func() {
		defer close(samplerDone)
		sampler.Run(runCtx, func() {
			if startErr := machine.Start(track.StartMotion); startErr != nil {
				log.Warn().Err(startErr).Msg("motion trigger could not start tracking")
			}
		})
	}()

	// without an accelerometer the sampler never triggers, so tracking
	// starts manually, matching the in-app start button
	if sensor == nil {
		if startErr := machine.Start(track.StartManual); startErr != nil {
			cancel()
			<-samplerDone
			return startErr
		}
	}

	select {
	case <-signals:
	case <-ctx.Done():
	}

	machine.Stop(track.StopManual)
	cancel()
	<-samplerDone
	return nil
}

func establishSession(ctx context.Context, client *syncer.Client, cfg config.Config) (syncer.Session, error) {
	if cfg.BusID != "" {
		return client.Login(ctx, cfg.BusID, cfg.DriverName)
	}
	if session, ok := client.CurrentSession(); ok {
		log.Info().Str("bus_id", session.BusID).Msg("restored persisted session")
		return session, nil
	}
	return syncer.Session{}, errors.New("BUS_ID is required for first login")
}
