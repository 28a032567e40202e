package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/marisolv/brewplanner/internal/packing"
	"github.com/marisolv/brewplanner/internal/planner"
	"github.com/marisolv/brewplanner/internal/recipe"
	"github.com/marisolv/brewplanner/internal/selfcheck"
	"github.com/marisolv/brewplanner/internal/session"
	"github.com/marisolv/brewplanner/internal/units"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler wires the planning engine and session dependencies into HTTP handlers.
type Handler struct {
	session session.Session

	clock func() time.Time

	mu               sync.RWMutex
	sessionUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(sess session.Session, opts ...HandlerOption) *Handler {
	h := &Handler{
		session: sess,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.sessionUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetRecipes(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := recipesResponse{
		Recipes:              recipe.All(),
		PerCartonVolume:      recipe.PerCartonVolume,
		PerCartonQuarts:      units.Round2(units.Quarts(recipe.PerCartonVolume)),
		PerCartonMilliliters: units.Round2(units.Milliliters(recipe.PerCartonVolume)),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleScale(w http.ResponseWriter, r *http.Request) {
	var req scaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	flavor := recipe.Flavor(req.Flavor)
	if !recipe.Valid(flavor) {
		writeError(w, http.StatusBadRequest, "Unknown flavor", "flavor must be tikiChata or dirtyUbe")
		return
	}

	var batch recipe.ScaledBatch
	if req.Cartons != nil {
		batch = recipe.ScaleByCartons(flavor, *req.Cartons)
	} else {
		var k float64
		if req.CartonEquivalent != nil {
			k = *req.CartonEquivalent
		}
		batch = recipe.ScaleByFraction(flavor, k)
	}

	size := h.session.Snapshot().ContainerSize
	if req.ContainerSize != nil {
		size = packing.ClampSize(*req.ContainerSize)
	}

	resp := scaleResponse{
		Batch: batch,
		Bases: recipe.Bases(batch),
		Yield: packing.Pack(batch.TotalVolume, size),
		Display: displayVolumes{
			TotalQuarts:      units.Round2(units.Quarts(batch.TotalVolume)),
			TotalMilliliters: units.Round2(units.Milliliters(batch.TotalVolume)),
		},
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePack(w http.ResponseWriter, r *http.Request) {
	var req packRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	writeJSON(w, http.StatusOK, packing.Pack(req.Volume, req.ContainerSize))
}

func (h *Handler) handleTopOff(w http.ResponseWriter, r *http.Request) {
	var req packRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	writeJSON(w, http.StatusOK, packing.TopOff(req.Volume, req.ContainerSize))
}

func (h *Handler) handlePlanDirect(w http.ResponseWriter, r *http.Request) {
	var req directPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	size := req.ContainerSize
	if size == 0 {
		size = h.session.Snapshot().ContainerSize
	}

	writeJSON(w, http.StatusOK, planner.PlanDirectSplit(req.TotalCartons, req.UbeCartons, size))
}

func (h *Handler) handlePlanContainers(w http.ResponseWriter, r *http.Request) {
	var req containerPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	lead := recipe.Flavor(req.LeadFlavor)
	if !recipe.Valid(lead) {
		writeError(w, http.StatusBadRequest, "Unknown flavor", "leadFlavor must be tikiChata or dirtyUbe")
		return
	}

	size := req.ContainerSize
	if size == 0 {
		size = h.session.Snapshot().ContainerSize
	}

	plan := planner.PlanClampedContainers(req.TotalCartons, size, lead, req.RequestedLeadContainers)
	writeJSON(w, http.StatusOK, plan)
}

func (h *Handler) handleSelfCheck(w http.ResponseWriter, r *http.Request) {
	_ = r
	results := selfcheck.Run()
	resp := selfCheckResponse{
		Pass:    selfcheck.AllPass(results),
		Results: results,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := sessionResponse{
		Inputs:    h.session.Snapshot(),
		Plan:      h.session.Plan(),
		UpdatedAt: h.currentSessionUpdatedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePutSession(w http.ResponseWriter, r *http.Request) {
	var patch session.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if _, err := h.session.Apply(patch); err != nil {
		if errors.Is(err, session.ErrInvalidFlavor) || errors.Is(err, session.ErrInvalidMode) {
			writeError(w, http.StatusBadRequest, "Invalid session patch", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markSessionUpdated()

	resp := sessionResponse{
		Inputs:    h.session.Snapshot(),
		Plan:      h.session.Plan(),
		UpdatedAt: h.currentSessionUpdatedAt(),
		Message:   "Session updated successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) currentSessionUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessionUpdatedAt
}

func (h *Handler) markSessionUpdated() {
	h.mu.Lock()
	h.sessionUpdatedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type scaleRequest struct {
	Flavor           string   `json:"flavor"`
	Cartons          *int     `json:"cartons"`
	CartonEquivalent *float64 `json:"cartonEquivalent"`
	ContainerSize    *float64 `json:"containerSize"`
}

type displayVolumes struct {
	TotalQuarts      float64 `json:"totalQuarts"`
	TotalMilliliters float64 `json:"totalMilliliters"`
}

type scaleResponse struct {
	Batch   recipe.ScaledBatch  `json:"batch"`
	Bases   recipe.BasesSummary `json:"bases"`
	Yield   packing.YieldResult `json:"yield"`
	Display displayVolumes      `json:"display"`
}

type packRequest struct {
	Volume        float64 `json:"volume"`
	ContainerSize float64 `json:"containerSize"`
}

type directPlanRequest struct {
	TotalCartons  int     `json:"totalCartons"`
	UbeCartons    int     `json:"ubeCartons"`
	ContainerSize float64 `json:"containerSize"`
}

type containerPlanRequest struct {
	TotalCartons            float64 `json:"totalCartons"`
	ContainerSize           float64 `json:"containerSize"`
	LeadFlavor              string  `json:"leadFlavor"`
	RequestedLeadContainers int     `json:"requestedLeadContainers"`
}

type recipesResponse struct {
	Recipes              []recipe.Recipe `json:"recipes"`
	PerCartonVolume      float64         `json:"perCartonVolume"`
	PerCartonQuarts      float64         `json:"perCartonQuarts"`
	PerCartonMilliliters float64         `json:"perCartonMilliliters"`
}

type selfCheckResponse struct {
	Pass    bool               `json:"pass"`
	Results []selfcheck.Result `json:"results"`
}

type sessionResponse struct {
	Inputs    session.Inputs `json:"inputs"`
	Plan      session.Plan   `json:"plan"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Message   string         `json:"message,omitempty"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
