package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"

	"github.com/HutchE92/handover/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:            "development",
		LogLevel:       "error",
		StorageBackend: config.BackendRedis,
		CORSOrigins:    []string{"http://localhost:3000"},
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		RequestTimeout: 5 * time.Second,
		BodyLimit:      "1M",
	}
}

func setupServer(t *testing.T) (*echo.Echo, *backend) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	b := newRedisBackend(client, "srvtest")
	t.Cleanup(b.close)

	cfg := testConfig()
	svcs, err := newServices(context.Background(), cfg, b)
	if err != nil {
		t.Fatalf("newServices() error: %v", err)
	}
	t.Cleanup(svcs.close)
	return newRouter(cfg, newLogger(cfg), b, svcs), b
}

func do(t *testing.T, e *echo.Echo, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func expectCode(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func TestHealthEndpoints(t *testing.T) {
	e, _ := setupServer(t)

	rec := do(t, e, http.MethodGet, "/health", nil)
	expectCode(t, rec, http.StatusOK)

	rec = do(t, e, http.MethodGet, "/health/store", nil)
	expectCode(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"backend":"redis"`) {
		t.Errorf("expected redis backend in %s", rec.Body.String())
	}

	rec = do(t, e, http.MethodGet, "/metrics", nil)
	expectCode(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "handover_") {
		t.Error("expected handover metrics to be exposed")
	}
}

func TestWardWorkflow(t *testing.T) {
	e, _ := setupServer(t)
	today := time.Now().Format("2006-01-02")

	rec := do(t, e, http.MethodPost, "/api/v1/patients", map[string]interface{}{
		"nhs_number":           "485 777 3456",
		"first_name":           "Edith",
		"last_name":            "Clarke",
		"date_of_birth":        "1941-06-30",
		"ward":                 "Ward 7",
		"bed_number":           "12",
		"consultant":           "Dr Shah",
		"admission_date":       today,
		"diagnosis":            "Community acquired pneumonia",
		"resuscitation_status": "DNACPR",
		"early_warning_score":  6,
	})
	expectCode(t, rec, http.StatusCreated)
	var p struct {
		ID        string `json:"id"`
		NHSNumber string `json:"nhs_number"`
	}
	decode(t, rec, &p)
	if p.NHSNumber != "4857773456" {
		t.Errorf("expected normalized NHS number, got %q", p.NHSNumber)
	}

	rec = do(t, e, http.MethodPost, "/api/v1/handover-notes", map[string]interface{}{
		"patient_id":     p.ID,
		"created_by":     "Staff Nurse Ellis",
		"shift_date":     today,
		"shift_type":     "Night",
		"situation":      "Increasing oxygen requirement",
		"background":     "COPD",
		"assessment":     "NEWS 6",
		"recommendation": "Medical review overnight",
	})
	expectCode(t, rec, http.StatusCreated)

	rec = do(t, e, http.MethodPost, "/api/v1/hospital-at-night", map[string]interface{}{
		"patient_id":        p.ID,
		"review_dates":      []map[string]string{{"date": today}},
		"priority":          "High",
		"assigned_roles":    []string{"SpR"},
		"reason_for_review": "Rising NEWS, please assess",
		"specialty":         "Medicine",
	})
	expectCode(t, rec, http.StatusCreated)
	var entry struct {
		ID           string `json:"id"`
		ReviewStatus string `json:"review_status"`
	}
	decode(t, rec, &entry)
	if entry.ReviewStatus != "Pending" {
		t.Errorf("expected Pending, got %q", entry.ReviewStatus)
	}

	rec = do(t, e, http.MethodGet, "/api/v1/board/hospital-at-night?role=SpR&ward=Ward%207", nil)
	expectCode(t, rec, http.StatusOK)
	var listed struct {
		Total int `json:"total"`
	}
	decode(t, rec, &listed)
	if listed.Total != 1 {
		t.Errorf("expected 1 SpR entry on Ward 7, got %d", listed.Total)
	}

	rec = do(t, e, http.MethodPost, "/api/v1/hospital-at-night/"+entry.ID+"/status", map[string]interface{}{
		"status": "Complete",
	})
	expectCode(t, rec, http.StatusOK)
	decode(t, rec, &entry)
	if entry.ReviewStatus != "Complete" {
		t.Errorf("expected Complete, got %q", entry.ReviewStatus)
	}

	rec = do(t, e, http.MethodGet, "/api/v1/board/dashboard", nil)
	expectCode(t, rec, http.StatusOK)
	var dash struct {
		TotalPatients  int `json:"total_patients"`
		HighNEWSCount  int `json:"high_news_count"`
		TodayHandovers int `json:"today_handovers"`
	}
	decode(t, rec, &dash)
	if dash.TotalPatients != 1 || dash.HighNEWSCount != 1 || dash.TodayHandovers != 1 {
		t.Errorf("unexpected dashboard: %+v", dash)
	}

	rec = do(t, e, http.MethodDelete, "/api/v1/patients/"+p.ID, nil)
	expectCode(t, rec, http.StatusNoContent)

	rec = do(t, e, http.MethodGet, "/api/v1/hospital-at-night/"+entry.ID, nil)
	expectCode(t, rec, http.StatusNotFound)

	rec = do(t, e, http.MethodGet, "/api/v1/handover-notes", nil)
	expectCode(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"total":0`) {
		t.Errorf("expected notes to be removed with the patient: %s", rec.Body.String())
	}
}

func TestSandboxSeedRoute(t *testing.T) {
	e, b := setupServer(t)

	rec := do(t, e, http.MethodPost, "/api/v1/sandbox/seed", nil)
	expectCode(t, rec, http.StatusOK)

	ok, err := b.store.Initialized(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected store to be marked initialized, ok=%v err=%v", ok, err)
	}

	rec = do(t, e, http.MethodGet, "/api/v1/board/wards", nil)
	expectCode(t, rec, http.StatusOK)
	var wards struct {
		Wards []string `json:"wards"`
	}
	decode(t, rec, &wards)
	if len(wards.Wards) != 20 || wards.Wards[0] != "Ward 1" || wards.Wards[19] != "Ward 20" {
		t.Errorf("unexpected ward order: %v", wards.Wards)
	}
}

func TestPrepareStorage_SeedsOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	b := newRedisBackend(client, "prep")
	defer b.close()

	cfg := testConfig()
	cfg.SeedDemoData = true
	ctx := context.Background()

	if err := prepareStorage(ctx, cfg, b); err != nil {
		t.Fatalf("prepareStorage() error: %v", err)
	}
	first, err := b.store.Count(ctx, "patients")
	if err != nil || first == 0 {
		t.Fatalf("expected seeded patients, got %d (err %v)", first, err)
	}

	if err := prepareStorage(ctx, cfg, b); err != nil {
		t.Fatalf("second prepareStorage() error: %v", err)
	}
	second, _ := b.store.Count(ctx, "patients")
	if second != first {
		t.Errorf("expected reseed to be skipped, %d became %d", first, second)
	}
}

func TestProbeHealth(t *testing.T) {
	e, _ := setupServer(t)
	srv := httptest.NewServer(e)
	defer srv.Close()

	status, err := probeHealth(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("probeHealth() error: %v", err)
	}
	if status != "healthy (redis backend)" {
		t.Errorf("unexpected status %q", status)
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unhealthy","backend":"postgres"}`))
	}))
	defer down.Close()

	if _, err := probeHealth(down.URL, time.Second); err == nil {
		t.Error("expected an error for an unhealthy server")
	}
}

func TestNewLogger_Level(t *testing.T) {
	cfg := testConfig()
	cfg.Env = "production"
	cfg.LogLevel = "WARN"
	if got := newLogger(cfg).GetLevel().String(); got != "warn" {
		t.Errorf("expected warn level, got %s", got)
	}
	cfg.LogLevel = "nonsense"
	if got := newLogger(cfg).GetLevel().String(); got != "info" {
		t.Errorf("expected info fallback, got %s", got)
	}
}
