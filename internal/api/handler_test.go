package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/marisolv/brewplanner/internal/session"
)

type controllableClock struct {
	mu  sync.RWMutex
	now time.Time
}

func newControllableClock(initial time.Time) *controllableClock {
	return &controllableClock{now: initial}
}

func (c *controllableClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

func (c *controllableClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func setupTestRouter(t *testing.T) (http.Handler, *controllableClock) {
	t.Helper()

	sess := session.NewMemory()
	clock := newControllableClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	handler := NewHandler(sess, WithClock(clock.Now))
	logger := zaptest.NewLogger(t)
	router := NewRouter(handler, logger, WithLogging(false))

	return router, clock
}

func postJSON(t *testing.T, router http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequestIDHelpers(t *testing.T) {
	ctx := contextWithRequestID(context.Background(), "abc")
	if got := requestIDFromContext(ctx); got != "abc" {
		t.Fatalf("expected abc, got %s", got)
	}
	resp := httptest.NewRecorder()
	writeInternalError(resp, assertError("boom"))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 status, got %d", resp.Code)
	}
}

type assertError string

func (a assertError) Error() string { return string(a) }

func TestHealthEndpoint(t *testing.T) {
	router, clock := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Status != "ok" {
		t.Fatalf("expected status ok, got %s", body.Status)
	}
	if !body.Timestamp.Equal(clock.Now()) {
		t.Fatalf("expected timestamp %s, got %s", clock.Now(), body.Timestamp)
	}
}

func TestGetRecipes(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/recipes", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Recipes []struct {
			Flavor      string  `json:"flavor"`
			Concentrate float64 `json:"concentrate"`
		} `json:"recipes"`
		PerCartonVolume      float64 `json:"perCartonVolume"`
		PerCartonQuarts      float64 `json:"perCartonQuarts"`
		PerCartonMilliliters float64 `json:"perCartonMilliliters"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(body.Recipes) != 2 {
		t.Fatalf("expected 2 recipes, got %d", len(body.Recipes))
	}
	if body.PerCartonVolume != 166 {
		t.Fatalf("expected per-carton volume 166, got %v", body.PerCartonVolume)
	}
	if body.PerCartonQuarts != 5.19 {
		t.Fatalf("expected 5.19 quarts per carton, got %v", body.PerCartonQuarts)
	}
	if body.PerCartonMilliliters != 4909.2 {
		t.Fatalf("expected 4909.2 mL per carton, got %v", body.PerCartonMilliliters)
	}
}

func TestScaleByCartonsEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	cartons := 2
	rec := postJSON(t, router, "/api/scale", map[string]any{
		"flavor":  "dirtyUbe",
		"cartons": cartons,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Batch struct {
			TotalVolume float64 `json:"totalVolume"`
			Concentrate float64 `json:"concentrate"`
		} `json:"batch"`
		Bases struct {
			HorchataBase float64 `json:"horchataBase"`
			ColdBrewBase float64 `json:"coldBrewBase"`
			TotalMix     float64 `json:"totalMix"`
		} `json:"bases"`
		Yield struct {
			FullContainers int     `json:"fullContainers"`
			Remainder      float64 `json:"remainderVolume"`
		} `json:"yield"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Batch.TotalVolume != 332 || body.Batch.Concentrate != 3 {
		t.Fatalf("unexpected batch: %+v", body.Batch)
	}
	if body.Bases.HorchataBase != 96 || body.Bases.ColdBrewBase != 236 || body.Bases.TotalMix != 332 {
		t.Fatalf("unexpected bases: %+v", body.Bases)
	}
	if body.Yield.FullContainers != 27 || body.Yield.Remainder != 8 {
		t.Fatalf("unexpected yield: %+v", body.Yield)
	}
}

func TestScaleByFractionEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := postJSON(t, router, "/api/scale", map[string]any{
		"flavor":           "dirtyUbe",
		"cartonEquivalent": 0.5,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Batch struct {
			TotalVolume float64 `json:"totalVolume"`
			Concentrate float64 `json:"concentrate"`
		} `json:"batch"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Batch.TotalVolume != 83 || body.Batch.Concentrate != 0.75 {
		t.Fatalf("unexpected batch: %+v", body.Batch)
	}
}

func TestScaleRejectsUnknownFlavor(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := postJSON(t, router, "/api/scale", map[string]any{"flavor": "matcha", "cartons": 1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestScaleRejectsMalformedJSON(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/scale", bytes.NewReader([]byte("{nope")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestPackEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := postJSON(t, router, "/api/pack", map[string]any{"volume": 166, "containerSize": 12})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		FullContainers int     `json:"fullContainers"`
		Remainder      float64 `json:"remainderVolume"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.FullContainers != 13 || body.Remainder != 10 {
		t.Fatalf("unexpected yield: %+v", body)
	}
}

func TestTopOffEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := postJSON(t, router, "/api/topoff", map[string]any{"volume": 22, "containerSize": 12})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		ExtraContainers int     `json:"extraContainers"`
		Leftover        float64 `json:"leftoverVolume"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.ExtraContainers != 1 || body.Leftover != 10 {
		t.Fatalf("unexpected top-off: %+v", body)
	}
}

func TestPlanDirectEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := postJSON(t, router, "/api/plan/direct", map[string]any{
		"totalCartons":  2,
		"ubeCartons":    1,
		"containerSize": 12,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		UbeCartons          int     `json:"ubeCartons"`
		TikiCartons         int     `json:"tikiCartons"`
		TotalFullContainers int     `json:"totalFullContainers"`
		CombinedRemainder   float64 `json:"combinedRemainder"`
		TopOff              struct {
			ExtraContainers int     `json:"extraContainers"`
			Leftover        float64 `json:"leftoverVolume"`
		} `json:"topOff"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.UbeCartons != 1 || body.TikiCartons != 1 {
		t.Fatalf("unexpected split: %+v", body)
	}
	if body.TotalFullContainers != 26 || body.CombinedRemainder != 20 {
		t.Fatalf("unexpected totals: %+v", body)
	}
	if body.TopOff.ExtraContainers != 1 || body.TopOff.Leftover != 8 {
		t.Fatalf("unexpected top-off: %+v", body)
	}
}

func TestPlanContainersEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := postJSON(t, router, "/api/plan/containers", map[string]any{
		"totalCartons":            1,
		"containerSize":           12,
		"leadFlavor":              "dirtyUbe",
		"requestedLeadContainers": 5,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		CapacityContainers int `json:"capacityContainers"`
		Lead               struct {
			Flavor     string  `json:"flavor"`
			Containers int     `json:"containers"`
			UsedVolume float64 `json:"usedVolume"`
		} `json:"lead"`
		Other struct {
			Flavor     string `json:"flavor"`
			Containers int    `json:"containers"`
		} `json:"other"`
		ResidualVolume float64 `json:"residualVolume"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.CapacityContainers != 13 {
		t.Fatalf("expected capacity 13, got %d", body.CapacityContainers)
	}
	if body.Lead.Flavor != "dirtyUbe" || body.Lead.Containers != 5 || body.Lead.UsedVolume != 60 {
		t.Fatalf("unexpected lead allocation: %+v", body.Lead)
	}
	if body.Other.Flavor != "tikiChata" || body.Other.Containers != 8 {
		t.Fatalf("unexpected other allocation: %+v", body.Other)
	}
	if body.ResidualVolume != 10 {
		t.Fatalf("expected residual 10, got %v", body.ResidualVolume)
	}
}

func TestPlanContainersRejectsUnknownLead(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := postJSON(t, router, "/api/plan/containers", map[string]any{
		"totalCartons": 1,
		"leadFlavor":   "matcha",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestSelfCheckEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/selfcheck", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Pass    bool `json:"pass"`
		Results []struct {
			Name   string `json:"name"`
			Pass   bool   `json:"pass"`
			Detail string `json:"detail"`
		} `json:"results"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if !body.Pass {
		t.Fatalf("self-check battery failed: %+v", body.Results)
	}
	if len(body.Results) == 0 {
		t.Fatalf("expected self-check results")
	}
}

func TestSessionLifecycle(t *testing.T) {
	router, clock := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var initial struct {
		Inputs struct {
			TotalCartons  int     `json:"totalCartons"`
			ContainerSize float64 `json:"containerSize"`
			Mode          string  `json:"mode"`
		} `json:"inputs"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&initial); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if initial.Inputs.TotalCartons != 1 || initial.Inputs.ContainerSize != 12 {
		t.Fatalf("unexpected defaults: %+v", initial.Inputs)
	}

	clock.Advance(time.Minute)

	body, _ := json.Marshal(map[string]any{
		"totalCartons": 2,
		"mode":         "containerSplit",
		"leadFlavor":   "tikiChata",
	})
	putReq := httptest.NewRequest(http.MethodPut, "/api/session", bytes.NewReader(body))
	putRec := httptest.NewRecorder()
	router.ServeHTTP(putRec, putReq)
	if putRec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", putRec.Code, putRec.Body.String())
	}

	var updated struct {
		Inputs struct {
			TotalCartons int    `json:"totalCartons"`
			Mode         string `json:"mode"`
			LeadFlavor   string `json:"leadFlavor"`
		} `json:"inputs"`
		Plan struct {
			Mode       string          `json:"mode"`
			Containers json.RawMessage `json:"containerSplit"`
			Direct     json.RawMessage `json:"directSplit"`
		} `json:"plan"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
	if err := json.NewDecoder(putRec.Body).Decode(&updated); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if updated.Inputs.TotalCartons != 2 || updated.Inputs.Mode != "containerSplit" || updated.Inputs.LeadFlavor != "tikiChata" {
		t.Fatalf("unexpected inputs after patch: %+v", updated.Inputs)
	}
	if updated.Plan.Mode != "containerSplit" || updated.Plan.Containers == nil || updated.Plan.Direct != nil {
		t.Fatalf("expected container plan, got %+v", updated.Plan)
	}
	if !updated.UpdatedAt.Equal(initial.UpdatedAt.Add(time.Minute)) {
		t.Fatalf("expected updatedAt to advance, got %s", updated.UpdatedAt)
	}
}

func TestSessionRejectsInvalidPatch(t *testing.T) {
	router, _ := setupTestRouter(t)

	body, _ := json.Marshal(map[string]any{"leadFlavor": "matcha"})
	req := httptest.NewRequest(http.MethodPut, "/api/session", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}
