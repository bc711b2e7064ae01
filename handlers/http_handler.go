// Package handlers provides the HTTP request handlers of the lookup service.
// This file implements the HTTPHandler interface with dependency injection.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/qubesight-bit/gosafe.lat-sub000/catalog"
	"github.com/qubesight-bit/gosafe.lat-sub000/catalog/entities"
	"github.com/qubesight-bit/gosafe.lat-sub000/duration"
	"github.com/qubesight-bit/gosafe.lat-sub000/interactions"
	"github.com/qubesight-bit/gosafe.lat-sub000/interfaces"
	"github.com/qubesight-bit/gosafe.lat-sub000/logging"
	"github.com/qubesight-bit/gosafe.lat-sub000/names"
	"github.com/qubesight-bit/gosafe.lat-sub000/severity"
	"github.com/qubesight-bit/gosafe.lat-sub000/suggest"
	"github.com/qubesight-bit/gosafe.lat-sub000/tripsit"
)

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// MaxSuggestions caps the max query parameter of /v1/suggest.
const MaxSuggestions = 20

// notFoundNotice accompanies every answer without interaction data.
const notFoundNotice = "No interaction data was found for this combination. Absence of data does not mean the combination is safe."

// InteractionService answers pair lookups.
type InteractionService interface {
	Lookup(ctx context.Context, a, b string) interactions.Result
	CheckCombo(ctx context.Context, a, b string) interactions.ComboResult
}

// Suggester ranks master list names for a query.
type Suggester interface {
	Suggest(query string, max int) []string
}

// Dependencies groups what the handler needs. Community may be nil, in which
// case the timeline endpoint answers 503.
type Dependencies struct {
	Catalog       interfaces.CatalogStore
	Service       InteractionService
	Community     interfaces.CommunitySource
	Suggester     Suggester
	Validator     interfaces.InputValidator
	HealthChecker interfaces.HealthChecker
	NameStore     interfaces.NameStore
	SuggestMax    int
}

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	catalog       interfaces.CatalogStore
	service       InteractionService
	community     interfaces.CommunitySource
	suggester     Suggester
	validator     interfaces.InputValidator
	healthChecker interfaces.HealthChecker
	nameStore     interfaces.NameStore
	suggestMax    int
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(deps Dependencies) *HTTPHandlerImpl {
	max := deps.SuggestMax
	if max <= 0 {
		max = 5
	}
	return &HTTPHandlerImpl{
		catalog:       deps.Catalog,
		service:       deps.Service,
		community:     deps.Community,
		suggester:     deps.Suggester,
		validator:     deps.Validator,
		healthChecker: deps.HealthChecker,
		nameStore:     deps.NameStore,
		suggestMax:    max,
	}
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status        string         `json:"status"`
	LastUpdate    string         `json:"last_update"`
	NextUpdate    string         `json:"next_update"`
	DataAgeHours  float64        `json:"data_age_hours"`
	Uptime        string         `json:"uptime"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Data          map[string]any `json:"data"`
	System        map[string]any `json:"system"`
}

// LookupResponse is the body of /v1/interactions.
type LookupResponse struct {
	SubstanceA  string                      `json:"substance_a"`
	SubstanceB  string                      `json:"substance_b"`
	Kind        interactions.Kind           `json:"kind"`
	Finding     interactions.Finding        `json:"finding,omitempty"`
	Record      *entities.InteractionRecord `json:"record,omitempty"`
	Message     string                      `json:"message,omitempty"`
	Suggestions map[string][]string         `json:"suggestions,omitempty"`
}

// ComboResponse is the body of /v1/combos.
type ComboResponse struct {
	interactions.ComboResult
	Message string `json:"message,omitempty"`
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	RespondWithJSON(w, code, payload)
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithError(w, code, message)
}

// RespondWithJSON marshals payload and writes it with the given status code.
func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err, "payload_type", fmt.Sprintf("%T", payload))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes {error, message, code}.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, errorBody(code, message))
}

func errorBody(code int, message string) map[string]any {
	return map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
}

// respondNotFound writes a 404 carrying name suggestions.
func (h *HTTPHandlerImpl) respondNotFound(w http.ResponseWriter, message string, suggestions []string) {
	body := errorBody(http.StatusNotFound, message)
	if suggestions == nil {
		suggestions = []string{}
	}
	body["suggestions"] = suggestions
	h.RespondWithJSON(w, http.StatusNotFound, body)
}

// namePair reads and validates two substance names.
func (h *HTTPHandlerImpl) namePair(w http.ResponseWriter, rawA, rawB string) (a, b string, ok bool) {
	a, err := h.validator.ValidateName(rawA)
	if err != nil {
		logging.Warn("Unusual user input", "param", "a", "error", err)
		h.RespondWithError(w, http.StatusBadRequest, "Invalid substance a: "+err.Error())
		return "", "", false
	}
	b, err = h.validator.ValidateName(rawB)
	if err != nil {
		logging.Warn("Unusual user input", "param", "b", "error", err)
		h.RespondWithError(w, http.StatusBadRequest, "Invalid substance b: "+err.Error())
		return "", "", false
	}
	if names.Equal(a, b) {
		h.RespondWithError(w, http.StatusBadRequest, "Choose two different substances")
		return "", "", false
	}
	return a, b, true
}

// LookupInteraction answers GET /v1/interactions?a=&b=
func (h *HTTPHandlerImpl) LookupInteraction(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	a, b, ok := h.namePair(w, q.Get("a"), q.Get("b"))
	if !ok {
		return
	}

	res := h.service.Lookup(r.Context(), a, b)

	resp := LookupResponse{
		SubstanceA: a,
		SubstanceB: b,
		Kind:       res.Kind,
		Finding:    res.Finding,
	}
	if res.Found() {
		resp.Record = res.Record
	} else {
		resp.Message = notFoundNotice
		resp.Suggestions = map[string][]string{
			"a": h.suggestFor(a),
			"b": h.suggestFor(b),
		}
	}

	h.RespondWithJSON(w, http.StatusOK, resp)
}

// CheckCombo answers GET /v1/combos?a=&b=
func (h *HTTPHandlerImpl) CheckCombo(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	a, b, ok := h.namePair(w, q.Get("a"), q.Get("b"))
	if !ok {
		return
	}

	res := h.service.CheckCombo(r.Context(), a, b)

	resp := ComboResponse{ComboResult: res}
	if !res.Found {
		resp.Message = notFoundNotice
	}
	h.RespondWithJSON(w, http.StatusOK, resp)
}

// ServeMatrix returns the whole interaction grid
func (h *HTTPHandlerImpl) ServeMatrix(w http.ResponseWriter, r *http.Request) {
	m := h.catalog.Matrix()
	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"substances": m.Substances(),
		"cells":      m.Grid(),
		"documented": m.Size(),
	})
}

// ServeMatrixCell returns the grid cell of two substances
func (h *HTTPHandlerImpl) ServeMatrixCell(w http.ResponseWriter, r *http.Request) {
	a, b, ok := h.namePair(w, chi.URLParam(r, "a"), chi.URLParam(r, "b"))
	if !ok {
		return
	}

	m := h.catalog.Matrix()
	cell, err := m.Cell(a, b)
	if errors.Is(err, catalog.ErrUnknownSubstance) {
		missing := a
		if _, err := m.Cell(a, a); err == nil {
			missing = b
		}
		h.respondNotFound(w, fmt.Sprintf("%q is not part of the matrix", missing),
			suggest.Suggest(missing, m.Substances(), h.suggestMax))
		return
	}
	if err != nil {
		logging.Error("Matrix cell lookup failed", "a", a, "b", b, "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Matrix lookup failed")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, cell)
}

// ServeSubstances returns every substance profile
func (h *HTTPHandlerImpl) ServeSubstances(w http.ResponseWriter, r *http.Request) {
	h.RespondWithJSON(w, http.StatusOK, h.catalog.Substances())
}

// ServeSubstance returns one substance profile by name or alias
func (h *HTTPHandlerImpl) ServeSubstance(w http.ResponseWriter, r *http.Request) {
	name, err := h.validator.ValidateName(chi.URLParam(r, "name"))
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, found := h.catalog.Substance(name)
	if !found {
		h.respondNotFound(w, "Substance not found", h.suggestFor(name))
		return
	}

	h.RespondWithJSON(w, http.StatusOK, sub)
}

// ServeTimeline returns the onset, duration and after-effects estimate of a
// substance from the community collaborator
func (h *HTTPHandlerImpl) ServeTimeline(w http.ResponseWriter, r *http.Request) {
	name, err := h.validator.ValidateName(chi.URLParam(r, "name"))
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.community == nil {
		h.RespondWithError(w, http.StatusServiceUnavailable, "Duration data is not available")
		return
	}

	drug, err := h.community.Drug(r.Context(), name)
	switch {
	case errors.Is(err, tripsit.ErrNotFound):
		h.respondNotFound(w, "No duration data for this substance", h.suggestFor(name))
		return
	case err != nil:
		logging.Warn("Duration data fetch failed", "substance", name, "error", err)
		h.RespondWithError(w, http.StatusBadGateway, "Duration data is temporarily unavailable")
		return
	}

	timeline := duration.BuildTimeline([]duration.PhaseInput{
		{Name: "onset", Text: drug.Onset},
		{Name: "duration", Text: drug.Duration},
		{Name: "after_effects", Text: drug.AfterEffects},
	})

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"substance": drug.DisplayName(),
		"timeline":  timeline,
	})
}

// Suggest answers GET /v1/suggest?q=&max=
func (h *HTTPHandlerImpl) Suggest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if err := h.validator.ValidateInput(query); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	max := h.suggestMax
	if raw := r.URL.Query().Get("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxSuggestions {
			logging.Warn("Unusual user input", "max", raw)
			h.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("max must be between 1 and %d", MaxSuggestions))
			return
		}
		max = n
	}

	suggestions := h.suggester.Suggest(strings.TrimSpace(query), max)
	if suggestions == nil {
		suggestions = []string{}
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"query":       query,
		"suggestions": suggestions,
	})
}

// Classify answers GET /v1/classify?status=
func (h *HTTPHandlerImpl) Classify(w http.ResponseWriter, r *http.Request) {
	status, err := h.validator.ValidateStatus(r.URL.Query().Get("status"))
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"status":         status,
		"classification": severity.Normalize(status),
	})
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	status, data, httpStatus := h.healthChecker.HealthCheck()
	lastUpdate := h.nameStore.GetLastUpdated()

	var uptime time.Duration
	if start := h.nameStore.GetServerStartTime(); !start.IsZero() {
		uptime = time.Since(start)
	}

	dataAge, _ := data["data_age_hours"].(float64)

	response := HealthResponse{
		Status:        status,
		LastUpdate:    lastUpdate.Format(time.RFC3339),
		NextUpdate:    h.healthChecker.CalculateNextUpdate().Format(time.RFC3339),
		DataAgeHours:  dataAge,
		Uptime:        formatUptimeHuman(uptime),
		UptimeSeconds: uptime.Seconds(),
		Data:          data,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       int(m.Alloc / 1024 / 1024),
				"total_alloc_mb": int(m.TotalAlloc / 1024 / 1024),
				"sys_mb":         int(m.Sys / 1024 / 1024),
				"num_gc":         m.NumGC,
			},
		},
	}

	h.RespondWithJSON(w, httpStatus, response)
}

func (h *HTTPHandlerImpl) suggestFor(name string) []string {
	if h.suggester == nil {
		return []string{}
	}
	s := h.suggester.Suggest(name, h.suggestMax)
	if s == nil {
		return []string{}
	}
	return s
}

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}
