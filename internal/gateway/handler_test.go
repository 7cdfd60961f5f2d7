package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandler_HandleAPI(t *testing.T) {
	t.Run("strips /api prefix and forwards", func(t *testing.T) {
		apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/crops" {
				t.Errorf("expected /crops, got %s", r.URL.Path)
			}
			if r.Method != http.MethodGet {
				t.Errorf("expected GET, got %s", r.Method)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`[{"id":"1"}]`))
		}))
		defer apiServer.Close()

		handler := NewHandler(
			NewServiceProxy(apiServer.URL, apiServer.Client()),
			NewServiceProxy("http://unused", http.DefaultClient),
			slog.New(slog.NewTextHandler(io.Discard, nil)),
		)

		req := httptest.NewRequest(http.MethodGet, "/api/crops", nil)
		rec := httptest.NewRecorder()

		handler.HandleAPI(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
		if rec.Header().Get("Content-Type") != "application/json" {
			t.Errorf("expected application/json, got %s", rec.Header().Get("Content-Type"))
		}
		if rec.Body.String() != `[{"id":"1"}]` {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("forwards POST with body and authorization header", func(t *testing.T) {
		apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer token-123" {
				t.Errorf("expected bearer token, got %q", r.Header.Get("Authorization"))
			}
			body, _ := io.ReadAll(r.Body)
			if string(body) != `{"crop_id":"c1","quantity":2}` {
				t.Errorf("unexpected body: %s", body)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"new-id"}`))
		}))
		defer apiServer.Close()

		handler := NewHandler(
			NewServiceProxy(apiServer.URL, apiServer.Client()),
			NewServiceProxy("http://unused", http.DefaultClient),
			slog.New(slog.NewTextHandler(io.Discard, nil)),
		)

		req := httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(`{"crop_id":"c1","quantity":2}`))
		req.Header.Set("Authorization", "Bearer token-123")
		rec := httptest.NewRecorder()

		handler.HandleAPI(rec, req)

		if rec.Code != http.StatusCreated {
			t.Errorf("expected status 201, got %d", rec.Code)
		}
	})

	t.Run("preserves query string", func(t *testing.T) {
		apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("q"); got != "maize" {
				t.Errorf("expected q=maize, got %q", got)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer apiServer.Close()

		handler := NewHandler(
			NewServiceProxy(apiServer.URL, apiServer.Client()),
			NewServiceProxy("http://unused", http.DefaultClient),
			slog.New(slog.NewTextHandler(io.Discard, nil)),
		)

		req := httptest.NewRequest(http.MethodGet, "/api/crops?q=maize", nil)
		rec := httptest.NewRecorder()

		handler.HandleAPI(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
	})

	t.Run("returns 502 when marketplace service unavailable", func(t *testing.T) {
		handler := NewHandler(
			NewServiceProxy("http://localhost:99999", &http.Client{}),
			NewServiceProxy("http://unused", http.DefaultClient),
			slog.New(slog.NewTextHandler(io.Discard, nil)),
		)

		req := httptest.NewRequest(http.MethodGet, "/api/crops", nil)
		rec := httptest.NewRecorder()

		handler.HandleAPI(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected status 502, got %d", rec.Code)
		}

		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["error"] != "service unavailable" {
			t.Errorf("expected 'service unavailable', got %s", resp["error"])
		}
	})
}

func TestHandler_HandleAdmin(t *testing.T) {
	t.Run("forwards admin dashboard request unchanged", func(t *testing.T) {
		adminServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/admin-dashboard" {
				t.Errorf("expected /admin-dashboard, got %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"total_orders":5}`))
		}))
		defer adminServer.Close()

		handler := NewHandler(
			NewServiceProxy("http://unused", http.DefaultClient),
			NewServiceProxy(adminServer.URL, adminServer.Client()),
			slog.New(slog.NewTextHandler(io.Discard, nil)),
		)

		req := httptest.NewRequest(http.MethodPost, "/admin-dashboard", strings.NewReader(`{"action":"getDashboardStats"}`))
		rec := httptest.NewRecorder()

		handler.HandleAdmin(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
	})

	t.Run("preserves downstream error status", func(t *testing.T) {
		adminServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"missing bearer token"}`))
		}))
		defer adminServer.Close()

		handler := NewHandler(
			NewServiceProxy("http://unused", http.DefaultClient),
			NewServiceProxy(adminServer.URL, adminServer.Client()),
			slog.New(slog.NewTextHandler(io.Discard, nil)),
		)

		req := httptest.NewRequest(http.MethodPost, "/admin-dashboard", strings.NewReader(`{"action":"getUsers"}`))
		rec := httptest.NewRecorder()

		handler.HandleAdmin(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rec.Code)
		}
	})

	t.Run("returns 502 when admin service unavailable", func(t *testing.T) {
		handler := NewHandler(
			NewServiceProxy("http://unused", http.DefaultClient),
			NewServiceProxy("http://localhost:99999", &http.Client{}),
			slog.New(slog.NewTextHandler(io.Discard, nil)),
		)

		req := httptest.NewRequest(http.MethodPost, "/admin-dashboard", nil)
		rec := httptest.NewRecorder()

		handler.HandleAdmin(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected status 502, got %d", rec.Code)
		}
	})
}
