// Package server exposes the live dashboard data, the range math and the
// PDF export over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/handlers"

	"github.com/Vaishnavi-Hegde17/enginetwin/collector"
	"github.com/Vaishnavi-Hegde17/enginetwin/engine"
	"github.com/Vaishnavi-Hegde17/enginetwin/model"
	"github.com/Vaishnavi-Hegde17/enginetwin/report"
	"github.com/Vaishnavi-Hegde17/enginetwin/store"
)

// maxRequestBody caps JSON request bodies.
const maxRequestBody = 1 << 20

// Options wires the server to the rest of the process. Only Engine is
// required.
type Options struct {
	Engine   *engine.Engine
	Metrics  *engine.MetricsStore
	Store    *store.Store
	Detector *engine.EventDetector
	Exporter *report.Exporter
	// Backend serves GET /sensor/latest in the backend wire format.
	Backend *collector.Simulator

	AllowedOrigins []string
	AccessLog      io.Writer
}

// Server is the HTTP API.
type Server struct {
	opts Options
}

// New creates a server.
func New(opts Options) *Server {
	if opts.Metrics == nil {
		opts.Metrics = engine.NewMetricsStore()
	}
	if opts.Exporter == nil {
		opts.Exporter = report.NewExporter(2, report.A4)
	}
	if opts.Detector == nil {
		opts.Detector = engine.NewEventDetector()
	}
	return &Server{opts: opts}
}

// Handler returns the router wrapped with CORS and access logging.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	m := s.opts.Metrics

	route := func(method, pattern string, h http.HandlerFunc) {
		r.Method(method, pattern, m.WrapHandler(pattern, h))
	}
	route(http.MethodGet, "/health", s.handleHealth)
	route(http.MethodGet, "/api/latest", s.handleLatest)
	route(http.MethodGet, "/api/history", s.handleHistory)
	route(http.MethodGet, "/api/ranges", s.handleRanges)
	route(http.MethodGet, "/api/events", s.handleEvents)
	route(http.MethodPost, "/api/normalize", s.handleNormalize)
	route(http.MethodPost, "/api/worst", s.handleWorst)
	route(http.MethodPost, "/api/paginate", s.handlePaginate)
	route(http.MethodGet, "/api/report.pdf", s.handleReport)
	if s.opts.Backend != nil {
		route(http.MethodGet, "/sensor/latest", s.handleSensorLatest)
	}
	r.Method(http.MethodGet, "/metrics", m.Handler())

	var h http.Handler = r
	if len(s.opts.AllowedOrigins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(s.opts.AllowedOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type"}),
			handlers.AllowCredentials(),
		)(h)
	}
	if s.opts.AccessLog != nil {
		h = handlers.CombinedLoggingHandler(s.opts.AccessLog, h)
	}
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(h)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":   "ok",
		"readings": s.opts.Engine.History.Len(),
	}
	if snap := s.opts.Engine.History.Latest(); snap != nil {
		body["last_reading"] = snap.Timestamp
	}
	if st := s.opts.Store; st != nil {
		n, err := st.Count(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		labels, err := st.LabelCounts(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		body["stored"] = n
		body["labels"] = labels
	}
	writeJSON(w, http.StatusOK, body)
}

type latestResponse struct {
	Snapshot model.Snapshot       `json:"snapshot"`
	Result   model.AnalysisResult `json:"result"`
	Alert    bool                 `json:"alert"`
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	h := s.opts.Engine.History
	snap, result := h.Latest(), h.LatestResult()
	if snap == nil || result == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("no reading yet"))
		return
	}
	writeJSON(w, http.StatusOK, latestResponse{Snapshot: *snap, Result: *result, Alert: result.Anomalous()})
}

type historyEntry struct {
	Snapshot model.Snapshot       `json:"snapshot"`
	Result   model.AnalysisResult `json:"result"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	h := s.opts.Engine.History
	n := h.Cap()
	if q := r.URL.Query().Get("n"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("n must be a positive integer, got %q", q))
			return
		}
		n = v
	}

	if s.opts.Store != nil && n > h.Len() {
		recs, err := s.opts.Store.Recent(r.Context(), n)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		out := make([]historyEntry, 0, len(recs))
		for _, rec := range recs {
			out = append(out, historyEntry{Snapshot: rec.Snapshot, Result: rec.Result})
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	snaps, results := h.Recent(n)
	out := make([]historyEntry, 0, len(snaps))
	for i := range snaps {
		out = append(out, historyEntry{Snapshot: snaps[i], Result: results[i]})
	}
	writeJSON(w, http.StatusOK, out)
}

type rangeEntry struct {
	Name  string               `json:"name"`
	Range model.ParameterRange `json:"range"`
	Band  model.NormalizedBand `json:"band"`
	Error string               `json:"error,omitempty"`
}

func (s *Server) handleRanges(w http.ResponseWriter, r *http.Request) {
	cat := s.opts.Engine.Catalog()
	out := make([]rangeEntry, 0, len(cat.Entries))
	for _, e := range cat.Entries {
		re := rangeEntry{Name: e.Name, Range: e.Range}
		band, err := engine.NormalizeBand(e.Range)
		if err != nil {
			re.Error = err.Error()
		} else {
			re.Band = band
		}
		out = append(out, re)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"completed": s.opts.Detector.Events()}
	if active := s.opts.Detector.ActiveEvent(); active != nil {
		body["active"] = active
	}
	if s.opts.Store != nil {
		stored, err := s.opts.Store.Events(r.Context(), 100)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		body["stored"] = stored
	}
	writeJSON(w, http.StatusOK, body)
}

type normalizeRequest struct {
	Value float64              `json:"value"`
	Range model.ParameterRange `json:"range"`
}

type normalizeResponse struct {
	ValuePct float64              `json:"value_pct"`
	Band     model.NormalizedBand `json:"band"`
	Score    float64              `json:"score"`
	InBand   bool                 `json:"in_band"`
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pct, err := engine.NormalizeToPercent(req.Value, req.Range)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	band, err := engine.NormalizeBand(req.Range)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	score, err := engine.DeviationScore(req.Value, req.Range)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, normalizeResponse{ValuePct: pct, Band: band, Score: score, InBand: score == 0})
}

type worstRequest struct {
	Samples []struct {
		Name  string                `json:"name"`
		Value float64               `json:"value"`
		Range *model.ParameterRange `json:"range,omitempty"`
	} `json:"samples"`
}

type scoreEntry struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Error string  `json:"error,omitempty"`
}

type worstResponse struct {
	Found  bool                  `json:"found"`
	Worst  *model.WorstParameter `json:"worst,omitempty"`
	Scores []scoreEntry          `json:"scores"`
}

func (s *Server) handleWorst(w http.ResponseWriter, r *http.Request) {
	var req worstRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	samples := make([]model.ParameterSample, 0, len(req.Samples))
	for _, rs := range req.Samples {
		samples = append(samples, model.ParameterSample{Name: rs.Name, Value: rs.Value, Range: rs.Range})
	}

	resp := worstResponse{Scores: []scoreEntry{}}
	for _, ps := range engine.ScoreAll(samples) {
		se := scoreEntry{Name: ps.Name, Score: ps.Score}
		if ps.Err != nil {
			se.Error = ps.Err.Error()
		}
		resp.Scores = append(resp.Scores, se)
	}
	if worst, ok := engine.WorstParameter(samples); ok {
		resp.Found = true
		resp.Worst = &worst
	}
	writeJSON(w, http.StatusOK, resp)
}

type paginateRequest struct {
	report.RasterImage
	Page *report.PageGeometry `json:"page,omitempty"`
}

type paginateResponse struct {
	Scale  float64            `json:"scale"`
	Slices []report.PageSlice `json:"slices"`
}

func (s *Server) handlePaginate(w http.ResponseWriter, r *http.Request) {
	var req paginateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	page := report.A4
	if req.Page != nil {
		page = *req.Page
	}
	slices, err := report.Paginate(req.RasterImage, page)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, paginateResponse{Scale: report.Scale(req.RasterImage, page), Slices: slices})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	d, ok := report.FromHistory(s.opts.Engine.History, s.opts.Detector.Events())
	if !ok {
		writeError(w, http.StatusServiceUnavailable, errors.New("no reading to export"))
		return
	}
	data, res, err := s.opts.Exporter.Bytes(r.Context(), d)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.DefaultFileName))
	w.Header().Set("X-Export-Id", res.ID)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleSensorLatest(w http.ResponseWriter, r *http.Request) {
	data, err := collector.EncodeReading(s.opts.Backend.Generate())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}
