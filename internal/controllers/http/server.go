package httpctrl

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Agrid-Dev/renotherm/internal/ports"
	"github.com/Agrid-Dev/renotherm/internal/report"
	"github.com/Agrid-Dev/renotherm/internal/thermal"
)

type Server struct {
	svc       ports.ProjectService
	srv       *http.Server
	projectID string
	log       *zap.Logger
}

type Option func(*options)

type options struct {
	log   *zap.Logger
	limit rate.Limit
	burst int
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithRateLimit throttles each client IP to r requests per second.
func WithRateLimit(r float64, burst int) Option {
	return func(o *options) {
		o.limit = rate.Limit(r)
		o.burst = burst
	}
}

// New returns a runnable server.
func New(svc ports.ProjectService, addr string, projectID string, opts ...Option) *Server {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}

	mux := http.NewServeMux()
	s := &Server{svc: svc, projectID: projectID, log: o.log}

	// Read
	mux.HandleFunc("GET /v1", s.handleGet)
	mux.HandleFunc("GET /v1/results", s.handleGetResults)
	mux.HandleFunc("GET /v1/report.pdf", s.handleReportPDF)
	mux.HandleFunc("GET /v1/export.xlsx", s.handleExportXLSX)

	// Write: one endpoint per variable
	mux.HandleFunc("POST /v1/project_type", s.handlePostProjectType)
	mux.HandleFunc("POST /v1/surface_area", s.handlePostSurfaceArea)
	mux.HandleFunc("POST /v1/roof_area", s.handlePostRoofArea)
	mux.HandleFunc("POST /v1/climate_zone", s.handlePostClimateZone)
	mux.HandleFunc("POST /v1/copy_before_to_after", s.handleCopyBeforeToAfter)
	mux.HandleFunc("POST /v1/{stage}/ratio", s.handlePostRatio)
	mux.HandleFunc("POST /v1/{stage}/ventilation", s.handlePostVentilation)
	mux.HandleFunc("POST /v1/{stage}/surface_resistances", s.handlePostSurfaceResistances)

	// Layer stacks
	mux.HandleFunc("POST /v1/{stage}/layers", s.handleAddLayer)
	mux.HandleFunc("PUT /v1/{stage}/layers/{id}", s.handleUpdateLayer)
	mux.HandleFunc("DELETE /v1/{stage}/layers/{id}", s.handleDeleteLayer)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var h http.Handler = mux
	if o.limit > 0 {
		h = newIPRateLimiter(o.limit, o.burst).middleware(h)
	}

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// ---- Handlers ----

func (s *Server) handleGet(w http.ResponseWriter, _ *http.Request) {
	s.respondProject(w, http.StatusOK, "")
}

func (s *Server) handleGetResults(w http.ResponseWriter, _ *http.Request) {
	res, err := s.svc.Results()
	if err != nil {
		writeErr(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toResultsDTO(res))
}

func (s *Server) handlePostProjectType(w http.ResponseWriter, r *http.Request) {
	postValue(s, w, r, func(v string) error {
		s.svc.SetProjectType(v)
		return nil
	})
}

func (s *Server) handlePostSurfaceArea(w http.ResponseWriter, r *http.Request) {
	postValue(s, w, r, s.svc.SetSurfaceArea)
}

func (s *Server) handlePostRoofArea(w http.ResponseWriter, r *http.Request) {
	postValue(s, w, r, s.svc.SetRoofArea)
}

func (s *Server) handlePostClimateZone(w http.ResponseWriter, r *http.Request) {
	// body: {"value": "C3"}
	postValue(s, w, r, func(v string) error {
		z, err := thermal.ParseClimateZone(v)
		if err != nil {
			return err
		}
		return s.svc.SetClimateZone(z)
	})
}

func (s *Server) handleCopyBeforeToAfter(w http.ResponseWriter, _ *http.Request) {
	s.svc.CopyBeforeToAfter()
	s.respondProject(w, http.StatusOK, "")
}

func (s *Server) handlePostRatio(w http.ResponseWriter, r *http.Request) {
	stage, ok := pathStage(w, r)
	if !ok {
		return
	}
	postValue(s, w, r, func(v float64) error {
		return s.svc.SetRatio(stage, v)
	})
}

func (s *Server) handlePostVentilation(w http.ResponseWriter, r *http.Request) {
	stage, ok := pathStage(w, r)
	if !ok {
		return
	}
	// body: {"value": "caso2"}
	postValue(s, w, r, func(v string) error {
		vc, err := thermal.ParseVentilationCase(v)
		if err != nil {
			return err
		}
		return s.svc.SetVentilation(stage, vc)
	})
}

func (s *Server) handlePostSurfaceResistances(w http.ResponseWriter, r *http.Request) {
	stage, ok := pathStage(w, r)
	if !ok {
		return
	}
	// body: {"rsi": "0,10", "rse": 0.04}
	var req struct {
		Rsi *decimal `json:"rsi"`
		Rse *decimal `json:"rse"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Rsi == nil || req.Rse == nil {
		writeErr(w, http.StatusBadRequest, "missing field 'rsi' or 'rse'")
		return
	}
	if err := s.svc.SetSurfaceResistances(stage, float64(*req.Rsi), float64(*req.Rse)); err != nil {
		s.reject(w, r, err)
		return
	}
	s.respondProject(w, http.StatusOK, "")
}

func (s *Server) handleAddLayer(w http.ResponseWriter, r *http.Request) {
	stage, ok := pathStage(w, r)
	if !ok {
		return
	}
	l, ok := decodeLayer(w, r)
	if !ok {
		return
	}
	added, err := s.svc.AddLayer(stage, l)
	if err != nil {
		s.reject(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLayerDTO(added))
}

func (s *Server) handleUpdateLayer(w http.ResponseWriter, r *http.Request) {
	stage, ok := pathStage(w, r)
	if !ok {
		return
	}
	l, ok := decodeLayer(w, r)
	if !ok {
		return
	}
	updated, err := s.svc.UpdateLayer(stage, r.PathValue("id"), l)
	if err != nil {
		s.reject(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLayerDTO(updated))
}

func (s *Server) handleDeleteLayer(w http.ResponseWriter, r *http.Request) {
	stage, ok := pathStage(w, r)
	if !ok {
		return
	}
	if err := s.svc.DeleteLayer(stage, r.PathValue("id")); err != nil {
		s.reject(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReportPDF(w http.ResponseWriter, _ *http.Request) {
	doc, ok := s.document(w)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.FileName("pdf")+`"`)
	if err := report.WritePDF(w, doc); err != nil {
		s.log.Error("pdf report failed", zap.String("project_id", s.projectID), zap.Error(err))
	}
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, _ *http.Request) {
	doc, ok := s.document(w)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.FileName("xlsx")+`"`)
	if err := report.WriteWorkbook(w, doc); err != nil {
		s.log.Error("xlsx export failed", zap.String("project_id", s.projectID), zap.Error(err))
	}
}

// ---- generic helpers ----

// state returns one snapshot and the results computed from it.
func (s *Server) state() (thermal.Snapshot, thermal.Result, error) {
	snap := s.svc.Get()
	res, err := thermal.Calculate(snap.Input())
	return snap, res, err
}

func (s *Server) document(w http.ResponseWriter) (report.Document, bool) {
	snap, res, err := s.state()
	if err != nil {
		writeErr(w, http.StatusUnprocessableEntity, err.Error())
		return report.Document{}, false
	}
	return report.NewDocument(s.projectID, snap, res), true
}

func (s *Server) respondProject(w http.ResponseWriter, code int, warning string) {
	snap, res, err := s.state()
	dto := toProjectDTO(snap)
	dto.ProjectID = s.projectID
	dto.Warning = warning
	if err != nil {
		dto.ResultsError = err.Error()
	} else {
		rd := toResultsDTO(res)
		dto.Results = &rd
	}
	writeJSON(w, code, dto)
}

func (s *Server) reject(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Debug("request rejected",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	code := http.StatusBadRequest
	if errors.Is(err, thermal.ErrLayerNotFound) {
		code = http.StatusNotFound
	}
	writeErr(w, code, err.Error())
}

func postValue[T any](s *Server, w http.ResponseWriter, r *http.Request, apply func(T) error) {
	dec := json.NewDecoder(r.Body)
	var req struct {
		Value *T `json:"value"`
	}
	if err := dec.Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Value == nil {
		writeErr(w, http.StatusBadRequest, "missing field 'value'")
		return
	}

	if err := apply(*req.Value); err != nil {
		// The area is stored but the ratios could not follow it.
		if errors.Is(err, thermal.ErrInvalidRatioInputs) {
			s.respondProject(w, http.StatusOK, err.Error())
			return
		}
		s.reject(w, r, err)
		return
	}

	s.respondProject(w, http.StatusOK, "")
}

func pathStage(w http.ResponseWriter, r *http.Request) (thermal.Stage, bool) {
	stage, err := thermal.ParseStage(r.PathValue("stage"))
	if err != nil {
		writeErr(w, http.StatusNotFound, err.Error())
		return thermal.StageUnknown, false
	}
	return stage, true
}

func decodeLayer(w http.ResponseWriter, r *http.Request) (thermal.Layer, bool) {
	var dto layerDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return thermal.Layer{}, false
	}
	l, err := dto.toLayer()
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return thermal.Layer{}, false
	}
	return l, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
