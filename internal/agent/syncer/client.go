// Package syncer moves login requests and classified fixes from the
// device to the backend. Transport failure never propagates to the
// tracking pipeline: login degrades to an offline session and fix sends
// report an outcome instead of an error.
package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/HarshitFusion/real-time-bus-driver-panel/internal/agent/cred"
	"github.com/HarshitFusion/real-time-bus-driver-panel/internal/agent/track"

	"github.com/rs/zerolog"
)

// OfflineToken marks a session created without backend connectivity.
const OfflineToken = "offline"

type Session struct {
	BusID       string
	DriverName  string
	AuthToken   string
	RouteName   string
	RouteNumber string
	LoggedInAt  time.Time
	// IsOffline distinguishes the degraded fallback from a real login.
	IsOffline bool
}

// RejectionError is an application-level refusal (bad request, unknown
// bus). It is terminal for the call and never triggers the offline
// fallback; only transport failure does.
type RejectionError struct {
	StatusCode int
	Message    string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("login rejected (%d): %s", e.StatusCode, e.Message)
}

type loginRequest struct {
	BusID      string `json:"busId"`
	DriverName string `json:"driverName,omitempty"`
}

type busInfo struct {
	BusID       string `json:"busId"`
	RouteName   string `json:"routeName"`
	RouteNumber string `json:"routeNumber"`
	IsActive    bool   `json:"isActive"`
}

type loginResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Token   string   `json:"token"`
	BusInfo *busInfo `json:"busInfo"`
}

type locationRequest struct {
	BusID     string  `json:"busId"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	SpeedMps  float64 `json:"speed"`
	Timestamp int64   `json:"timestamp"`
	Bearing   float64 `json:"bearing"`
	Accuracy  float64 `json:"accuracy"`
	Status    string  `json:"status"`
}

type Client struct {
	baseURL string
	http    *http.Client
	creds   cred.Store
	log     zerolog.Logger
}

func NewClient(baseURL string, creds cred.Store, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		creds:   creds,
		log:     log,
	}
}

// Login authenticates against the backend and persists the session. On
// transport failure it returns an offline session so tracking can keep
// working without connectivity; an application-level rejection is
// returned as a *RejectionError instead.
func (c *Client) Login(ctx context.Context, busID, driverName string) (Session, error) {
	payload, err := json.Marshal(loginRequest{BusID: busID, DriverName: driverName})
	if err != nil {
		return Session{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/driver/login", bytes.NewReader(payload))
	if err != nil {
		return Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("bus_id", busID).Msg("login unreachable, falling back to offline session")
		return c.offlineSession(busID, driverName)
	}
	defer resp.Body.Close()

	var body loginResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&body); decodeErr != nil && resp.StatusCode == http.StatusOK {
		return Session{}, decodeErr
	}

	if resp.StatusCode != http.StatusOK || !body.Success {
		message := body.Message
		if message == "" {
			message = resp.Status
		}
		return Session{}, &RejectionError{StatusCode: resp.StatusCode, Message: message}
	}

	session := Session{
		BusID:      busID,
		DriverName: driverName,
		AuthToken:  body.Token,
		LoggedInAt: time.Now(),
	}
	if body.BusInfo != nil {
		session.RouteName = body.BusInfo.RouteName
		session.RouteNumber = body.BusInfo.RouteNumber
	}

	if err := c.persist(session); err != nil {
		return Session{}, err
	}
	c.log.Info().Str("bus_id", busID).Msg("login successful")
	return session, nil
}

// SendFix posts one classified fix. It never returns an error; transport
// and backend failures both surface as SendFailed. Undelivered fixes are
// not queued for retry.
func (c *Client) SendFix(ctx context.Context, fix track.Fix) track.SendOutcome {
	token, _ := c.creds.Get(cred.KeyAuthToken)

	payload, err := json.Marshal(locationRequest{
		BusID:     fix.BusID,
		Latitude:  fix.Latitude,
		Longitude: fix.Longitude,
		SpeedMps:  fix.SpeedMps,
		Timestamp: fix.CapturedAtMs,
		Bearing:   fix.BearingDeg,
		Accuracy:  fix.AccuracyM,
		Status:    string(fix.Status),
	})
	if err != nil {
		return track.SendFailed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bus/location", bytes.NewReader(payload))
	if err != nil {
		return track.SendFailed
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("bus_id", fix.BusID).Msg("location update unreachable")
		return track.SendFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Str("bus_id", fix.BusID).Msg("location update rejected")
		return track.SendFailed
	}
	return track.SendDelivered
}

// Logout destroys the persisted session.
func (c *Client) Logout() error {
	return c.creds.Clear()
}

// CurrentSession restores the persisted session, if any.
func (c *Client) CurrentSession() (Session, bool) {
	if loggedIn, _ := c.creds.Get(cred.KeyLoggedIn); loggedIn != "true" {
		return Session{}, false
	}
	busID, ok := c.creds.Get(cred.KeyBusID)
	if !ok {
		return Session{}, false
	}
	driverName, _ := c.creds.Get(cred.KeyDriverName)
	token, _ := c.creds.Get(cred.KeyAuthToken)
	return Session{
		BusID:      busID,
		DriverName: driverName,
		AuthToken:  token,
		IsOffline:  token == OfflineToken,
	}, true
}

func (c *Client) offlineSession(busID, driverName string) (Session, error) {
	session := Session{
		BusID:      busID,
		DriverName: driverName,
		AuthToken:  OfflineToken,
		LoggedInAt: time.Now(),
		IsOffline:  true,
	}
	if err := c.persist(session); err != nil {
		return Session{}, err
	}
	return session, nil
}

func (c *Client) persist(session Session) error {
	if err := c.creds.Set(cred.KeyBusID, session.BusID); err != nil {
		return err
	}
	if err := c.creds.Set(cred.KeyDriverName, session.DriverName); err != nil {
		return err
	}
	if err := c.creds.Set(cred.KeyAuthToken, session.AuthToken); err != nil {
		return err
	}
	return c.creds.Set(cred.KeyLoggedIn, "true")
}
