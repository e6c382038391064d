package ingest

import "time"

// Wire shapes match what the driver app sends and expects back.

type LoginRequest struct {
	BusID      string `json:"busId"`
	DriverName string `json:"driverName"`
}

type BusInfo struct {
	BusID       string `json:"busId"`
	RouteName   string `json:"routeName"`
	RouteNumber string `json:"routeNumber"`
	IsActive    bool   `json:"isActive"`
}

type LoginResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Token   string   `json:"token,omitempty"`
	BusInfo *BusInfo `json:"busInfo,omitempty"`
}

// LocationUpdate is one fix as posted by the device. Latitude and
// longitude are pointers so a missing field can be told apart from zero.
type LocationUpdate struct {
	BusID      string   `json:"busId"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	SpeedMps   float64  `json:"speed"`
	Timestamp  int64    `json:"timestamp"`
	BearingDeg float64  `json:"bearing"`
	AccuracyM  float64  `json:"accuracy"`
	Status     string   `json:"status"`
}

type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// DriverSession is an append-only audit record. A new row is written on
// every login; is_active is informational and never enforced.
type DriverSession struct {
	SessionID  string    `json:"sessionId"`
	BusID      string    `json:"busId"`
	DriverName string    `json:"driverName"`
	LoginTime  time.Time `json:"loginTime"`
	IsActive   bool      `json:"isActive"`
}

// FixRecord is one row of the time-series table, keyed by
// (bus_id, captured_at_ms).
type FixRecord struct {
	BusID        string    `json:"busId"`
	CapturedAtMs int64     `json:"timestamp"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	SpeedMps     float64   `json:"speed"`
	BearingDeg   float64   `json:"bearing"`
	AccuracyM    float64   `json:"accuracy"`
	Status       string    `json:"status"`
	ReceivedAt   time.Time `json:"receivedAt"`
}
