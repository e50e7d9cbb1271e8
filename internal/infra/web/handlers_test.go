//go:build !integration

package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-giveaway-bot/internal/config"
	"telegram-giveaway-bot/internal/domain/model"
	"telegram-giveaway-bot/internal/usecase"
)

// --- Mock use cases ---

type mockStatsUC struct {
	totals usecase.LedgerTotals
	err    error
}

func (m *mockStatsUC) Totals(ctx context.Context) (usecase.LedgerTotals, error) {
	return m.totals, m.err
}

type mockRedeemUC struct {
	createStatus model.CreateCodeStatus
	lastCode     string
}

func (m *mockRedeemUC) CreateCode(ctx context.Context, code string, maxUses, validMinutes int, createdBy int64) (model.CreateCodeStatus, *model.RedeemCode, error) {
	m.lastCode = code
	if m.createStatus != model.CodeCreated {
		return m.createStatus, nil, nil
	}
	rc, err := model.NewRedeemCode(code, maxUses, validMinutes, createdBy)
	if err != nil {
		return model.CodeInvalidSpec, nil, nil
	}
	return model.CodeCreated, rc, nil
}

func (m *mockRedeemUC) Redeem(ctx context.Context, tgID int64, rawCode string) (model.RedeemStatus, error) {
	return model.RedeemCodeNotFound, nil
}

// --- Fixture ---

func newTestServer(stats *mockStatsUC, redeem *mockRedeemUC) *Server {
	logger := zerolog.New(io.Discard)
	cfg := config.AdminConfig{Port: 0, APISecret: "s3cret", SessionTTL: time.Minute}
	auth := NewAuthManager(cfg, false)
	return NewServer(stats, redeem, auth, cfg, &logger)
}

func login(t *testing.T, handler http.Handler) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/login", strings.NewReader(`{"secret":"s3cret"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil || out.Token == "" {
		t.Fatalf("login: bad response %q: %v", rec.Body.String(), err)
	}
	return out.Token
}

// --- Tests ---

func TestLogin(t *testing.T) {
	handler := newTestServer(&mockStatsUC{}, &mockRedeemUC{}).Router()

	t.Run("wrong secret is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/login", strings.NewReader(`{"secret":"wrong"}`))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/login", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("correct secret mints a session", func(t *testing.T) {
		if token := login(t, handler); token == "" {
			t.Fatal("expected a non-empty token")
		}
	})
}

func TestStatsEndpoint(t *testing.T) {
	stats := &mockStatsUC{totals: usecase.LedgerTotals{Users: 10, Codes: 2, Redemptions: 15}}
	handler := newTestServer(stats, &mockRedeemUC{}).Router()

	t.Run("requires a session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects a garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("returns the ledger totals", func(t *testing.T) {
		token := login(t, handler)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var got usecase.LedgerTotals
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("bad body %q: %v", rec.Body.String(), err)
		}
		if got != stats.totals {
			t.Fatalf("expected %+v, got %+v", stats.totals, got)
		}
	})
}

func TestCodesCreateEndpoint(t *testing.T) {
	newAuthed := func(t *testing.T, redeem *mockRedeemUC) (http.Handler, string) {
		t.Helper()
		handler := newTestServer(&mockStatsUC{}, redeem).Router()
		return handler, login(t, handler)
	}
	post := func(handler http.Handler, token, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/codes", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("creates an explicit code", func(t *testing.T) {
		redeem := &mockRedeemUC{createStatus: model.CodeCreated}
		handler, token := newAuthed(t, redeem)
		rec := post(handler, token, `{"code":"madara50","max_uses":50,"valid_minutes":1440}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var rc model.RedeemCode
		if err := json.Unmarshal(rec.Body.Bytes(), &rc); err != nil {
			t.Fatalf("bad body %q: %v", rec.Body.String(), err)
		}
		if rc.Code != "MADARA50" || rc.MaxUses != 50 {
			t.Fatalf("unexpected code record: %+v", rc)
		}
	})

	t.Run("generates a code when omitted", func(t *testing.T) {
		redeem := &mockRedeemUC{createStatus: model.CodeCreated}
		handler, token := newAuthed(t, redeem)
		rec := post(handler, token, `{"max_uses":5,"valid_minutes":0}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(redeem.lastCode) != 14 || strings.Count(redeem.lastCode, "-") != 2 {
			t.Fatalf("expected a generated XXXX-XXXX-XXXX code, got %q", redeem.lastCode)
		}
	})

	t.Run("duplicate code conflicts", func(t *testing.T) {
		redeem := &mockRedeemUC{createStatus: model.CodeAlreadyExists}
		handler, token := newAuthed(t, redeem)
		if rec := post(handler, token, `{"code":"DUP","max_uses":5}`); rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("invalid spec is a bad request", func(t *testing.T) {
		redeem := &mockRedeemUC{createStatus: model.CodeInvalidSpec}
		handler, token := newAuthed(t, redeem)
		if rec := post(handler, token, `{"code":"X","max_uses":0}`); rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestServer(&mockStatsUC{}, &mockRedeemUC{}).Router()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
