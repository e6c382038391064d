package server

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/HarshitFusion/real-time-bus-driver-panel/internal/config"
)

func newTestServer() *Server {
	return NewServer(config.Config{JWTSecret: "secret", ServerPort: ":0"}, nil, nil)
}

func TestHealthRoute(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 status")
	}
}

func TestCORSPreflightReturns200(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest("OPTIONS", "/bus/location", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 preflight, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected permissive origin header")
	}
}

func TestUnknownEndpointReturns404Envelope(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest("GET", "/no/such/route", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Success || body.Message != "Endpoint not found" {
		t.Fatalf("unexpected body: %+v", body)
	}
}
