package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"nexusflow/internal/analyzer"
	"nexusflow/internal/heatmap"
	"nexusflow/internal/provider"
	"nexusflow/internal/watchlist"
	"nexusflow/pkg/model"
)

// WatchlistResponse lists the watched instruments
type WatchlistResponse struct {
	Symbols     []string           `json:"symbols"`
	Instruments []model.Instrument `json:"instruments"`
}

// WatchlistRequest adds one symbol
type WatchlistRequest struct {
	Symbol string `json:"symbol"`
}

// PresetInfo describes one preset group
type PresetInfo struct {
	ID      string   `json:"id"`
	Symbols []string `json:"symbols"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// handleAnalyze runs the engine for one symbol on demand
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	symbol, err := watchlist.Normalize(r.PathValue("symbol"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	a, err := s.deps.Scanner.AnalyzeOne(r.Context(), model.Instrument{Symbol: symbol, Name: watchlist.DisplayName(symbol)})
	if err != nil {
		s.deps.Logger.Warn().Err(err).Str("symbol", symbol).Msg("analyze failed")
		writeError(w, analyzeStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func analyzeStatus(err error) int {
	var pe *provider.ProviderError
	switch {
	case errors.Is(err, analyzer.ErrInsufficientData), errors.Is(err, provider.ErrNoData):
		return http.StatusUnprocessableEntity
	case errors.As(err, &pe):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) watchlistResponse() WatchlistResponse {
	return WatchlistResponse{
		Symbols:     s.deps.Watchlist.List(),
		Instruments: s.deps.Watchlist.Instruments(),
	}
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.watchlistResponse())
}

func (s *Server) handleWatchlistAdd(w http.ResponseWriter, r *http.Request) {
	var req WatchlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	added, err := s.deps.Watchlist.Add(req.Symbol)
	switch {
	case errors.Is(err, watchlist.ErrInvalidSymbol):
		writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		s.deps.Logger.Error().Err(err).Msg("saving watchlist")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.deps.Metrics.SetWatchlistSize(len(s.deps.Watchlist.List()))
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, s.watchlistResponse())
}

func (s *Server) handleWatchlistRemove(w http.ResponseWriter, r *http.Request) {
	err := s.deps.Watchlist.Remove(r.PathValue("symbol"))
	switch {
	case errors.Is(err, watchlist.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
		return
	case errors.Is(err, watchlist.ErrInvalidSymbol):
		writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		s.deps.Logger.Error().Err(err).Msg("saving watchlist")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.deps.Metrics.SetWatchlistSize(len(s.deps.Watchlist.List()))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	presets := watchlist.Presets()
	resp := make([]PresetInfo, len(presets))
	for i, p := range presets {
		resp[i] = PresetInfo{ID: string(p), Symbols: watchlist.GetPreset(p)}
	}
	writeJSON(w, http.StatusOK, map[string]any{"presets": resp})
}

// handleHeatmap serves the refreshed heatmap, or builds one live before
// the first refresh has completed
func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	if s.deps.Refresher != nil {
		if snap := s.deps.Refresher.Latest(); snap != nil && r.URL.Query().Get("live") != "true" {
			writeJSON(w, http.StatusOK, snap.Heatmap)
			return
		}
	}
	if s.deps.Provider == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("no data provider configured"))
		return
	}
	hm := heatmap.Build(r.Context(), s.deps.Provider, s.deps.Watchlist.List(), s.deps.HeatmapWorkers)
	writeJSON(w, http.StatusOK, hm)
}

// handleSnapshot returns the latest refreshed state; refresh=true forces
// a run first
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.deps.Refresher == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("refresh is disabled"))
		return
	}

	if r.URL.Query().Get("refresh") == "true" {
		snap, err := s.deps.Refresher.RunNow(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
		return
	}

	snap := s.deps.Refresher.Latest()
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "warming_up"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok"}
	if s.deps.Scanner != nil {
		status["scanning"] = s.deps.Scanner.Busy()
	}
	if s.deps.Refresher != nil {
		if snap := s.deps.Refresher.Latest(); snap != nil {
			status["updated_at"] = snap.UpdatedAt
		}
	}
	writeJSON(w, http.StatusOK, status)
}
