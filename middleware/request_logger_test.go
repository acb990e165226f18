package middleware

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func newApp(buf *bytes.Buffer) *fiber.App {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(buf)

	app := fiber.New()
	app.Use(RequestLogger(logger))
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.SendString(RequestID(c))
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusBadRequest).SendString("nope")
	})
	return app
}

func TestRequestLoggerAssignsID(t *testing.T) {
	var buf bytes.Buffer
	app := newApp(&buf)

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	id := resp.Header.Get(RequestIDHeader)
	if id == "" {
		t.Fatal("expected a generated request id")
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log entry is not JSON: %v (%s)", err, buf.String())
	}
	if entry["request_id"] != id || entry["level"] != "info" || entry["status_code"] != float64(200) {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestRequestLoggerKeepsCallerIDAndWarnsOnClientError(t *testing.T) {
	var buf bytes.Buffer
	app := newApp(&buf)

	req := httptest.NewRequest("GET", "/missing", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.Header.Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("request id = %q", resp.Header.Get(RequestIDHeader))
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log entry is not JSON: %v", err)
	}
	if entry["level"] != "warning" || entry["request_id"] != "abc-123" {
		t.Fatalf("unexpected entry %v", entry)
	}
}
