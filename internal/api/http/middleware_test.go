package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/desaconnect/complaint-service/internal/observability"
	apperrors "github.com/desaconnect/complaint-service/pkg/util/errorutil"
)

func newMiddlewareTestApp(timeout time.Duration) *fiber.App {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), timeout)
	return app
}

func TestRequestTimeoutReachesHandlerContext(t *testing.T) {
	app := newMiddlewareTestApp(5 * time.Second)

	var hadDeadline bool
	var deadline time.Time
	app.Get("/deadline", func(c *fiber.Ctx) error {
		// handlers hand c.UserContext() to the services, so the
		// middleware's deadline must be visible there
		deadline, hadDeadline = c.UserContext().Deadline()
		return c.SendStatus(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/deadline", nil))
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if !hadDeadline {
		t.Fatal("expected the request context to carry a deadline")
	}
	if remaining := time.Until(deadline); remaining <= 0 || remaining > 5*time.Second {
		t.Fatalf("deadline out of range: %v remaining", remaining)
	}
}

func TestNoTimeoutLeavesContextUnbounded(t *testing.T) {
	app := newMiddlewareTestApp(0)

	var hadDeadline bool
	app.Get("/deadline", func(c *fiber.Ctx) error {
		_, hadDeadline = c.UserContext().Deadline()
		return c.SendStatus(http.StatusOK)
	})

	if _, err := app.Test(httptest.NewRequest(http.MethodGet, "/deadline", nil)); err != nil {
		t.Fatalf("test request: %v", err)
	}
	if hadDeadline {
		t.Fatal("zero timeout must not install a deadline")
	}
}

func TestErrorEnvelope(t *testing.T) {
	app := newMiddlewareTestApp(0)
	app.Get("/missing", func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("submission", nil)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload.Error.Code != "NOT_FOUND" {
		t.Fatalf("unexpected error code %q", payload.Error.Code)
	}
}

func TestPanicRecovery(t *testing.T) {
	app := newMiddlewareTestApp(0)
	app.Get("/boom", func(c *fiber.Ctx) error {
		panic("handler exploded")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload.Error.Code != "INTERNAL_ERROR" {
		t.Fatalf("unexpected error code %q", payload.Error.Code)
	}
}
