package registry

import (
	"context"
	"errors"
	"time"

	"github.com/HarshitFusion/real-time-bus-driver-panel/internal/db"

	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("bus not found")

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) CreateBus(ctx context.Context, input Bus) (Bus, error) {
	if input.Status == "" {
		input.Status = "idle"
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO buses (bus_id, route_name, route_number, capacity, is_active, status)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at
	`, input.BusID, input.RouteName, input.RouteNumber, input.Capacity, input.IsActive, input.Status)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Bus{}, err
	}
	return input, nil
}

func (s *Service) GetBus(ctx context.Context, busID string) (Bus, error) {
	row := s.db.QueryRow(ctx, `
		SELECT bus_id, route_name, route_number, capacity, is_active,
		       COALESCE(last_latitude,0), COALESCE(last_longitude,0), COALESCE(last_speed_mps,0),
		       COALESCE(status,'idle'), COALESCE(last_update_at, created_at), created_at
		FROM buses WHERE bus_id=$1
	`, busID)

	var bus Bus
	err := row.Scan(&bus.BusID, &bus.RouteName, &bus.RouteNumber, &bus.Capacity, &bus.IsActive,
		&bus.LastLatitude, &bus.LastLongitude, &bus.LastSpeedMps,
		&bus.Status, &bus.LastUpdateAt, &bus.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Bus{}, ErrNotFound
	}
	if err != nil {
		return Bus{}, err
	}
	return bus, nil
}

func (s *Service) ListBuses(ctx context.Context) ([]Bus, error) {
	rows, err := s.db.Query(ctx, `
		SELECT bus_id, route_name, route_number, capacity, is_active,
		       COALESCE(last_latitude,0), COALESCE(last_longitude,0), COALESCE(last_speed_mps,0),
		       COALESCE(status,'idle'), COALESCE(last_update_at, created_at), created_at
		FROM buses ORDER BY bus_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buses := []Bus{}
	for rows.Next() {
		var bus Bus
		if err := rows.Scan(&bus.BusID, &bus.RouteName, &bus.RouteNumber, &bus.Capacity, &bus.IsActive,
			&bus.LastLatitude, &bus.LastLongitude, &bus.LastSpeedMps,
			&bus.Status, &bus.LastUpdateAt, &bus.CreatedAt); err != nil {
			return nil, err
		}
		buses = append(buses, bus)
	}
	return buses, rows.Err()
}

func (s *Service) DeleteBus(ctx context.Context, busID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM buses WHERE bus_id=$1`, busID)
	return err
}

// UpdateLastKnown overwrites the denormalized last-known state
// unconditionally. There is deliberately no ordering check against the
// stored last_update_at, so a late fix can replace newer state.
func (s *Service) UpdateLastKnown(ctx context.Context, busID string, lk LastKnown) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE buses
		SET last_latitude=$2, last_longitude=$3, last_speed_mps=$4, status=$5, last_update_at=$6
		WHERE bus_id=$1
	`, busID, lk.Latitude, lk.Longitude, lk.SpeedMps, lk.Status, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus updates only the advisory status string.
func (s *Service) SetStatus(ctx context.Context, busID, status string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE buses SET status=$2, last_update_at=$3 WHERE bus_id=$1
	`, busID, status, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
