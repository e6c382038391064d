package registry

import "time"

// Bus is one row of the vehicle registry. The last_* columns are the
// denormalized last-known state, overwritten on every accepted fix.
type Bus struct {
	BusID         string    `json:"busId"`
	RouteName     string    `json:"routeName"`
	RouteNumber   string    `json:"routeNumber"`
	Capacity      int       `json:"capacity"`
	IsActive      bool      `json:"isActive"`
	LastLatitude  float64   `json:"lastLatitude"`
	LastLongitude float64   `json:"lastLongitude"`
	LastSpeedMps  float64   `json:"lastSpeed"`
	Status        string    `json:"status"`
	LastUpdateAt  time.Time `json:"lastUpdate"`
	CreatedAt     time.Time `json:"createdAt"`
}

// LastKnown carries the fields of a fix that overwrite the bus row.
type LastKnown struct {
	Latitude  float64
	Longitude float64
	SpeedMps  float64
	Status    string
}
