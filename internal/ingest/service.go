package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/HarshitFusion/real-time-bus-driver-panel/internal/auth"
	"github.com/HarshitFusion/real-time-bus-driver-panel/internal/db"
	"github.com/HarshitFusion/real-time-bus-driver-panel/internal/registry"
	"github.com/HarshitFusion/real-time-bus-driver-panel/internal/stream"

	"github.com/google/uuid"
)

var ErrInvalid = errors.New("missing required location data")

type Service struct {
	db       db.Querier
	registry *registry.Service
	tokens   *auth.Service
	hub      *stream.Hub
}

func NewService(q db.Querier, reg *registry.Service, tokens *auth.Service, hub *stream.Hub) *Service {
	return &Service{db: q, registry: reg, tokens: tokens, hub: hub}
}

// Login validates the bus against the registry, appends a driver session
// audit row and issues a bearer token. Each login is a new session record;
// earlier sessions for the same bus are left untouched.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	bus, err := s.registry.GetBus(ctx, req.BusID)
	if err != nil {
		return LoginResponse{}, err
	}

	driverName := req.DriverName
	if driverName == "" {
		driverName = "Unknown"
	}

	session := DriverSession{
		SessionID:  uuid.NewString(),
		BusID:      bus.BusID,
		DriverName: driverName,
		LoginTime:  time.Now(),
		IsActive:   true,
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO driver_sessions (session_id, bus_id, driver_name, login_time, is_active)
		VALUES ($1,$2,$3,$4,$5)
	`, session.SessionID, session.BusID, session.DriverName, session.LoginTime, session.IsActive)
	if err != nil {
		return LoginResponse{}, err
	}

	token, err := s.tokens.IssueToken(session.BusID, session.SessionID)
	if err != nil {
		return LoginResponse{}, err
	}

	return LoginResponse{
		Success: true,
		Message: "Login successful",
		Token:   token,
		BusInfo: &BusInfo{
			BusID:       bus.BusID,
			RouteName:   bus.RouteName,
			RouteNumber: bus.RouteNumber,
			IsActive:    true,
		},
	}, nil
}

// RecordFix appends (or, on re-delivery, overwrites) the time-series row
// and then overwrites the bus's last-known state. The two writes are not
// transactional: a crash in between leaves the fix history persisted and
// the last-known state stale, which is acceptable for advisory data.
func (s *Service) RecordFix(ctx context.Context, upd LocationUpdate) (FixRecord, error) {
	if upd.BusID == "" || upd.Latitude == nil || upd.Longitude == nil {
		return FixRecord{}, ErrInvalid
	}

	rec := FixRecord{
		BusID:        upd.BusID,
		CapturedAtMs: upd.Timestamp,
		Latitude:     *upd.Latitude,
		Longitude:    *upd.Longitude,
		SpeedMps:     upd.SpeedMps,
		BearingDeg:   upd.BearingDeg,
		AccuracyM:    upd.AccuracyM,
		Status:       upd.Status,
		ReceivedAt:   time.Now(),
	}
	if rec.CapturedAtMs == 0 {
		rec.CapturedAtMs = time.Now().UnixMilli()
	}
	if rec.Status == "" {
		rec.Status = "unknown"
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO bus_fixes (bus_id, captured_at_ms, latitude, longitude, speed_mps, bearing_deg, accuracy_m, status, received_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (bus_id, captured_at_ms) DO UPDATE
		SET latitude=EXCLUDED.latitude, longitude=EXCLUDED.longitude,
		    speed_mps=EXCLUDED.speed_mps, bearing_deg=EXCLUDED.bearing_deg,
		    accuracy_m=EXCLUDED.accuracy_m, status=EXCLUDED.status,
		    received_at=EXCLUDED.received_at
	`, rec.BusID, rec.CapturedAtMs, rec.Latitude, rec.Longitude, rec.SpeedMps,
		rec.BearingDeg, rec.AccuracyM, rec.Status, rec.ReceivedAt)
	if err != nil {
		return FixRecord{}, err
	}

	err = s.registry.UpdateLastKnown(ctx, rec.BusID, registry.LastKnown{
		Latitude:  rec.Latitude,
		Longitude: rec.Longitude,
		SpeedMps:  rec.SpeedMps,
		Status:    rec.Status,
	})
	// An unregistered bus still gets its fix history recorded; there is
	// just no registry row to overwrite.
	if err != nil && !errors.Is(err, registry.ErrNotFound) {
		return FixRecord{}, err
	}

	if s.hub != nil {
		if payload, err := json.Marshal(rec); err == nil {
			s.hub.Broadcast(rec.BusID, payload)
		}
	}
	return rec, nil
}

// Fixes returns the recorded time-series for a bus, newest first.
func (s *Service) Fixes(ctx context.Context, busID string, limit int) ([]FixRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.Query(ctx, `
		SELECT bus_id, captured_at_ms, latitude, longitude, speed_mps, bearing_deg, accuracy_m, status, received_at
		FROM bus_fixes WHERE bus_id=$1
		ORDER BY captured_at_ms DESC
		LIMIT $2
	`, busID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fixes := []FixRecord{}
	for rows.Next() {
		var rec FixRecord
		if err := rows.Scan(&rec.BusID, &rec.CapturedAtMs, &rec.Latitude, &rec.Longitude,
			&rec.SpeedMps, &rec.BearingDeg, &rec.AccuracyM, &rec.Status, &rec.ReceivedAt); err != nil {
			return nil, err
		}
		fixes = append(fixes, rec)
	}
	return fixes, rows.Err()
}

// Sessions returns the login audit trail for a bus, newest first.
func (s *Service) Sessions(ctx context.Context, busID string) ([]DriverSession, error) {
	rows, err := s.db.Query(ctx, `
		SELECT session_id, bus_id, driver_name, login_time, is_active
		FROM driver_sessions WHERE bus_id=$1
		ORDER BY login_time DESC
	`, busID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []DriverSession{}
	for rows.Next() {
		var ds DriverSession
		if err := rows.Scan(&ds.SessionID, &ds.BusID, &ds.DriverName, &ds.LoginTime, &ds.IsActive); err != nil {
			return nil, err
		}
		sessions = append(sessions, ds)
	}
	return sessions, rows.Err()
}
