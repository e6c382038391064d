// Package feed adapts JSON-lines files and pipes into the sensor and GPS
// subscriptions the agent consumes. A named pipe gives live pacing; a
// regular file replays a recorded trace as fast as the reader drains it.
package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/HarshitFusion/real-time-bus-driver-panel/internal/agent/motion"
	"github.com/HarshitFusion/real-time-bus-driver-panel/internal/agent/track"
)

// SensorFeed streams accelerometer samples from a JSON-lines source.
// Lines that do not parse are skipped.
type SensorFeed struct {
	file *os.File
	ch   chan motion.Sample

	closeOnce sync.Once
	done      chan struct{}
}

func OpenSensorFeed(path string) (*SensorFeed, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	f := &SensorFeed{
		file: file,
		ch:   make(chan motion.Sample, 16),
		done: make(chan struct{}),
	}
	go f.read()
	return f, nil
}

func (f *SensorFeed) Samples() <-chan motion.Sample { return f.ch }

func (f *SensorFeed) Close() error {
	var err error
	f.closeOnce.Do(func() {
		close(f.done)
		err = f.file.Close()
	})
	return err
}

func (f *SensorFeed) read() {
	defer close(f.ch)
	scanner := bufio.NewScanner(f.file)
	for scanner.Scan() {
		var sample motion.Sample
		if err := json.Unmarshal(scanner.Bytes(), &sample); err != nil {
			continue
		}
		select {
		case f.ch <- sample:
		case <-f.done:
			return
		}
	}
}

// GPSFeed opens a JSON-lines source per subscription. Subscribe honors the
// request's displacement filter the way a platform location API would; the
// interval pacing is left to the producer side of the pipe.
type GPSFeed struct {
	path string
}

func NewGPSFeed(path string) *GPSFeed {
	return &GPSFeed{path: path}
}

func (g *GPSFeed) Subscribe(ctx context.Context, req track.SubscribeRequest) (<-chan track.RawFix, func(), error) {
	file, err := os.Open(g.path)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan track.RawFix, 16)
	done := make(chan struct{})
	var stopOnce sync.Once
	stop := func() {
		stopOnce.Do(func() {
			close(done)
			_ = file.Close()
		})
	}

	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			var raw track.RawFix
			if err := json.Unmarshal(scanner.Bytes(), &raw); err != nil {
				continue
			}
			select {
			case ch <- raw:
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, stop, nil
}
