package ctx_test

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/bazaar/pkg/auth"
	appctx "github.com/shashiranjanraj/bazaar/pkg/ctx"
)

func TestWrapAndSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	appctx.Wrap(func(c *appctx.Context) {
		c.Success(map[string]any{"ok": true})
	})(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"data":{"ok":true}`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestParamFromChi(t *testing.T) {
	r := chi.NewRouter()
	var got string
	r.Get("/listings/{id}", appctx.Wrap(func(c *appctx.Context) {
		got = c.Param("id")
		c.Status(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/listings/abc-123", nil))

	if got != "abc-123" {
		t.Errorf("expected abc-123, got %q", got)
	}
}

func TestQueryFloat(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?min=10.5&max=abc&nan=NaN&inf=-Infinity", nil)
	appctx.Wrap(func(c *appctx.Context) {
		v, ok, err := c.QueryFloat("min")
		if !ok || err != nil || v != 10.5 {
			t.Errorf("min: got %v %v %v", v, ok, err)
		}
		if _, ok, err := c.QueryFloat("max"); !ok || err == nil {
			t.Errorf("max: expected parse error")
		}
		for _, key := range []string{"nan", "inf"} {
			if _, ok, err := c.QueryFloat(key); !ok || err == nil {
				t.Errorf("%s: expected non-finite error", key)
			}
		}
		if _, ok, _ := c.QueryFloat("absent"); ok {
			t.Errorf("absent: expected ok=false")
		}
		c.Success(nil)
	})(httptest.NewRecorder(), req)
}

func TestJSONUnencodableValue(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	appctx.Wrap(func(c *appctx.Context) {
		c.Success(map[string]float64{"price": math.Inf(1)})
	})(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Internal Server Error") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestSetAndGet(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	appctx.Wrap(func(c *appctx.Context) {
		c.Set("user_id", "u-42")
		if uid := c.GetString("user_id"); uid != "u-42" {
			t.Errorf("expected u-42, got %s", uid)
		}
		c.Success(nil)
	})(httptest.NewRecorder(), req)
}

func TestIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	appctx.Wrap(func(c *appctx.Context) {
		if c.Identity() != nil {
			t.Error("expected anonymous request")
		}
	})(httptest.NewRecorder(), req)

	id := &auth.Identity{UserID: "u-1"}
	req = req.WithContext(auth.WithIdentity(context.Background(), id))
	appctx.Wrap(func(c *appctx.Context) {
		if got := c.Identity(); got == nil || got.UserID != "u-1" {
			t.Errorf("expected identity u-1, got %+v", got)
		}
	})(httptest.NewRecorder(), req)
}

func TestBindJSONValid(t *testing.T) {
	rec := httptest.NewRecorder()
	body := `{"name":"John","email":"john@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	appctx.Wrap(func(c *appctx.Context) {
		var input struct {
			Name  string `json:"name"  validate:"required"`
			Email string `json:"email" validate:"required,email"`
		}
		if !c.BindJSON(&input) {
			t.Error("expected BindJSON to succeed")
			return
		}
		if input.Name != "John" {
			t.Errorf("expected John, got %s", input.Name)
		}
		c.Success(nil)
	})(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBindJSONInvalid(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":""}`))

	appctx.Wrap(func(c *appctx.Context) {
		var input struct {
			Name string `json:"name" validate:"required"`
		}
		if c.BindJSON(&input) {
			t.Error("expected BindJSON to fail")
		}
	})(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestBindJSONMalformed(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))

	appctx.Wrap(func(c *appctx.Context) {
		var input struct {
			Name string `json:"name"`
		}
		c.BindJSON(&input)
	})(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	if ip := appctx.ClientIP(req); ip != "1.2.3.4" {
		t.Errorf("expected 1.2.3.4, got %s", ip)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	if ip := appctx.ClientIP(req); ip != "192.0.2.7" {
		t.Errorf("expected 192.0.2.7, got %s", ip)
	}
}

func TestErrorResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	appctx.Wrap(func(c *appctx.Context) {
		c.NotFound("Resource missing")
	})(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Resource missing") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}
