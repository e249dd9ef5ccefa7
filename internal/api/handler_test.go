package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/p-n-ai/pai-placement/internal/api"
	"github.com/p-n-ai/pai-placement/internal/placement"
	"github.com/p-n-ai/pai-placement/internal/questionnaire"
)

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allow, s.err
}

func newTestMux(t *testing.T, cfg api.Config) *http.ServeMux {
	t.Helper()
	h, err := api.NewHandler(cfg)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func post(mux *http.ServeMux, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/recommendations", strings.NewReader(body))
	req.RemoteAddr = "192.0.2.10:54321"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestRecommend_Success(t *testing.T) {
	mux := newTestMux(t, api.Config{})

	rec := post(mux, `{"answers": {"q1": "aa_hl", "q2": "aa_hl"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var res placement.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	want := placement.ComputeResult(placement.Answers{"q1": "aa_hl", "q2": "aa_hl"})
	if res != want {
		t.Errorf("result = %+v, want %+v", res, want)
	}
}

func TestRecommend_ResponseShape(t *testing.T) {
	mux := newTestMux(t, api.Config{})

	rec := post(mux, `{"answers": {"q1": "aa_hl", "q2": "ai_sl"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var raw map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if raw["course"] != "AI" || raw["level"] != "SL" || raw["confidence"] != float64(50) {
		t.Errorf("response = %v, want AI SL 50", raw)
	}
	details, ok := raw["details"].(map[string]any)
	if !ok {
		t.Fatalf("details missing: %v", raw)
	}
	for _, k := range []string{"focus", "style", "advice"} {
		if s, _ := details[k].(string); s == "" {
			t.Errorf("details.%s is empty", k)
		}
	}
}

func TestRecommend_BadRequests(t *testing.T) {
	mux := newTestMux(t, api.Config{})

	tests := []struct {
		name string
		body string
		want int
	}{
		{"not json", `{"answers":`, http.StatusBadRequest},
		{"missing answers", `{}`, http.StatusBadRequest},
		{"empty answers", `{"answers": {}}`, http.StatusBadRequest},
		{"non-string option", `{"answers": {"q1": 3}}`, http.StatusBadRequest},
		{"unknown field", `{"answers": {"q1": "aa_hl"}, "user": "x"}`, http.StatusBadRequest},
		{"blank question id", `{"answers": {"  ": "aa_hl"}}`, http.StatusBadRequest},
		{"duplicate after trim", `{"answers": {"q1": "aa_hl", " q1": "ai_sl"}}`, http.StatusBadRequest},
		{"too large", `{"answers": {"q1": "` + strings.Repeat("a", 70<<10) + `"}}`, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(mux, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d; body = %s", rec.Code, tt.want, rec.Body.String())
			}
			var resp api.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if resp.Error == "" {
				t.Error("error message is empty")
			}
		})
	}
}

func TestRecommend_NormalizesIDs(t *testing.T) {
	mux := newTestMux(t, api.Config{})

	rec := post(mux, `{"answers": {" q1 ": " aa_hl ", "q2": "aa_hl\n"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var res placement.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Confidence != 100 {
		t.Errorf("Confidence = %d, want 100", res.Confidence)
	}
}

func TestRecommend_CatalogValidation(t *testing.T) {
	catalog := testCatalog(t)
	mux := newTestMux(t, api.Config{Catalog: catalog})

	rec := post(mux, `{"answers": {"q1": "aa_hl", "q9": "aa_hl"}}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var resp api.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if len(resp.Details) != 1 || !strings.Contains(resp.Details[0], "q9") {
		t.Errorf("Details = %v, want one problem naming q9", resp.Details)
	}

	rec = post(mux, `{"answers": {"q1": "aa_hl"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for known answers", rec.Code)
	}
}

func TestRecommend_CatalogWithDecomposedIDs(t *testing.T) {
	decomposed := "aa_hl_e\u0301"
	catalog := catalogFrom(t, `
id: accents
questions:
  - id: q1
    options:
      - id: "`+decomposed+`"
`)
	mux := newTestMux(t, api.Config{Catalog: catalog})

	for _, body := range []string{
		`{"answers": {"q1": "aa_hl_e\u0301"}}`,
		`{"answers": {"q1": "aa_hl_\u00e9"}}`,
	} {
		rec := post(mux, body)
		if rec.Code != http.StatusOK {
			t.Errorf("POST %s: status = %d, want 200; body = %s", body, rec.Code, rec.Body.String())
		}
	}
}

func TestRecommend_RateLimit(t *testing.T) {
	tests := []struct {
		name    string
		limiter *stubLimiter
		want    int
	}{
		{"allowed", &stubLimiter{allow: true}, http.StatusOK},
		{"throttled", &stubLimiter{allow: false}, http.StatusTooManyRequests},
		{"limiter down fails open", &stubLimiter{err: errors.New("dial tcp: refused")}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newTestMux(t, api.Config{Limiter: tt.limiter})
			rec := post(mux, `{"answers": {"q1": "ai_sl"}}`)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if len(tt.limiter.keys) != 1 || tt.limiter.keys[0] != "192.0.2.10" {
				t.Errorf("limiter keys = %v, want [192.0.2.10]", tt.limiter.keys)
			}
		})
	}
}

func TestQuestionnaire(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		mux := newTestMux(t, api.Config{})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/questionnaire", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("configured", func(t *testing.T) {
		mux := newTestMux(t, api.Config{Catalog: testCatalog(t)})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/questionnaire", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var body struct {
			Sections []questionnaire.Section `json:"sections"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(body.Sections) != 1 || len(body.Sections[0].Questions) != 1 {
			t.Errorf("sections = %+v, want one section with one question", body.Sections)
		}
	})
}

func TestPolicy(t *testing.T) {
	policy := placement.DefaultPolicy()
	policy.Thresholds.Strong = 85
	mux := newTestMux(t, api.Config{Scorer: placement.NewScorer(policy)})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/policy", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got placement.Policy
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != policy {
		t.Errorf("policy = %+v, want %+v", got, policy)
	}
}

func TestRecommend_MethodNotAllowed(t *testing.T) {
	mux := newTestMux(t, api.Config{})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/recommendations", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func testCatalog(t *testing.T) *questionnaire.Loader {
	t.Helper()
	return catalogFrom(t, `
id: core
title: "Core"
questions:
  - id: q1
    text: "Pick one"
    options:
      - id: aa_hl
      - id: ai_sl
`)
}

func catalogFrom(t *testing.T, content string) *questionnaire.Loader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	loader, err := questionnaire.NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	return loader
}
