package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ssargent/flatrec/pkg/codec"
	"github.com/ssargent/flatrec/pkg/layout"
)

// Directions of a line through the codec.
const (
	directionDecode = "decode"
	directionEncode = "encode"
)

// Server holds the API server state
type Server struct {
	layouts Layouts
	poly    *codec.Poly // nil when no layout declares a match pattern
	names   map[reflect.Type]string
	config  ServerConfig
	metrics *Metrics
	logger  *zap.Logger
}

// NewServer creates a new API server
func NewServer(layouts Layouts, config ServerConfig, metrics *Metrics, logger *zap.Logger) (*Server, error) {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		layouts: layouts,
		names:   make(map[reflect.Type]string),
		config:  config,
		metrics: metrics,
		logger:  logger,
	}

	hasPattern := false
	for _, e := range layouts.Entries() {
		s.names[e.Type] = e.Name
		hasPattern = hasPattern || e.Match != ""
	}
	if hasPattern {
		poly, err := layouts.Poly()
		if err != nil {
			return nil, fmt.Errorf("failed to build dispatcher: %w", err)
		}
		s.poly = poly
	}
	return s, nil
}

// handleHealth godoc
//
//	@Summary		Health check
//	@Description	Get the health status of the API and the number of loaded layouts
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	APIResponse
//	@Router			/health [get]
//	@Security		ApiKeyAuth
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]interface{}{
		"status":  "healthy",
		"layouts": len(s.layouts.Entries()),
	})
}

// handleListLayouts godoc
//
//	@Summary		List layouts
//	@Description	List every compiled layout with its match pattern and width
//	@Tags			layouts
//	@Produce		json
//	@Success		200	{object}	APIResponse{data=[]LayoutInfo}
//	@Router			/layouts [get]
//	@Security		ApiKeyAuth
func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	entries := s.layouts.Entries()
	infos := make([]LayoutInfo, 0, len(entries))
	for _, e := range entries {
		infos = append(infos, describe(e, false))
	}
	sendSuccess(w, infos)
}

// handleGetLayout godoc
//
//	@Summary		Describe a layout
//	@Description	Get a layout with the offset and length of each column
//	@Tags			layouts
//	@Produce		json
//	@Param			name	path		string	true	"Layout name"
//	@Success		200		{object}	APIResponse{data=LayoutInfo}
//	@Failure		404		{object}	APIResponse
//	@Router			/layouts/{name} [get]
//	@Security		ApiKeyAuth
func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.entry(w, r)
	if !ok {
		return
	}
	sendSuccess(w, describe(entry, true))
}

// handleDecode godoc
//
//	@Summary		Decode lines
//	@Description	Decode fixed-width lines with one layout. Lines that fail are reported by line number
//	@Tags			codec
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string			true	"Layout name"
//	@Param			body	body		DecodeRequest	true	"Lines to decode"
//	@Success		200		{object}	APIResponse{data=DecodeResponse}
//	@Failure		400		{object}	APIResponse
//	@Failure		404		{object}	APIResponse
//	@Failure		413		{object}	APIResponse
//	@Router			/layouts/{name}/decode [post]
//	@Security		ApiKeyAuth
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.entry(w, r)
	if !ok {
		return
	}

	var req DecodeRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	if len(req.Lines) == 0 {
		sendError(w, "No lines in request", http.StatusBadRequest)
		return
	}

	resp := DecodeResponse{Records: []DecodedRecord{}}
	first := firstLine(req.FirstLine)
	for i, line := range req.Lines {
		n := first + i
		record, err := entry.MapLine(line, n)
		s.metrics.RecordLine(entry.Name, directionDecode, err == nil)
		if err != nil {
			resp.Errors = append(resp.Errors, LineError{Line: n, Error: err.Error()})
			continue
		}
		resp.Records = append(resp.Records, DecodedRecord{Line: n, Layout: entry.Name, Record: record})
	}
	sendSuccess(w, resp)
}

// handleEncode godoc
//
//	@Summary		Encode records
//	@Description	Encode JSON records into fixed-width lines with one layout. Records that fail are reported by index
//	@Tags			codec
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string			true	"Layout name"
//	@Param			body	body		EncodeRequest	true	"Records to encode"
//	@Success		200		{object}	APIResponse{data=EncodeResponse}
//	@Failure		400		{object}	APIResponse
//	@Failure		404		{object}	APIResponse
//	@Failure		413		{object}	APIResponse
//	@Router			/layouts/{name}/encode [post]
//	@Security		ApiKeyAuth
func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.entry(w, r)
	if !ok {
		return
	}

	var req EncodeRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	if len(req.Records) == 0 {
		sendError(w, "No records in request", http.StatusBadRequest)
		return
	}

	resp := EncodeResponse{Lines: []EncodedLine{}}
	for i, raw := range req.Records {
		text, err := entry.EncodeJSON(raw)
		s.metrics.RecordLine(entry.Name, directionEncode, err == nil)
		if err != nil {
			resp.Errors = append(resp.Errors, RecordError{Index: i, Error: err.Error()})
			continue
		}
		resp.Lines = append(resp.Lines, EncodedLine{Index: i, Text: text})
	}
	sendSuccess(w, resp)
}

// handlePolyDecode godoc
//
//	@Summary		Decode mixed lines
//	@Description	Decode lines of several layouts, choosing each layout by its match pattern
//	@Tags			codec
//	@Accept			json
//	@Produce		json
//	@Param			body	body		DecodeRequest	true	"Lines to decode"
//	@Success		200		{object}	APIResponse{data=DecodeResponse}
//	@Failure		400		{object}	APIResponse
//	@Failure		404		{object}	APIResponse
//	@Failure		413		{object}	APIResponse
//	@Router			/decode [post]
//	@Security		ApiKeyAuth
func (s *Server) handlePolyDecode(w http.ResponseWriter, r *http.Request) {
	if s.poly == nil {
		sendError(w, "No layout declares a match pattern", http.StatusNotFound)
		return
	}

	var req DecodeRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	if len(req.Lines) == 0 {
		sendError(w, "No lines in request", http.StatusBadRequest)
		return
	}

	resp := DecodeResponse{Records: []DecodedRecord{}}
	first := firstLine(req.FirstLine)
	for i, line := range req.Lines {
		n := first + i
		record, err := s.poly.MapLine(line, n)
		if err != nil {
			s.metrics.RecordLine("", directionDecode, false)
			resp.Errors = append(resp.Errors, LineError{Line: n, Error: err.Error()})
			continue
		}
		name := s.names[reflect.TypeOf(record).Elem()]
		s.metrics.RecordLine(name, directionDecode, true)
		resp.Records = append(resp.Records, DecodedRecord{Line: n, Layout: name, Record: record})
	}
	sendSuccess(w, resp)
}

func (s *Server) entry(w http.ResponseWriter, r *http.Request) (*layout.Entry, bool) {
	name := chi.URLParam(r, "name")
	entry, ok := s.layouts.Get(name)
	if !ok {
		sendError(w, fmt.Sprintf("Layout %q not found", name), http.StatusNotFound)
		return nil, false
	}
	return entry, true
}

func (s *Server) readJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body := r.Body
	if s.config.MaxBodySize > 0 {
		body = http.MaxBytesReader(w, r.Body, s.config.MaxBodySize)
	}

	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return false
	}
	return true
}

func firstLine(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func describe(e *layout.Entry, columns bool) LayoutInfo {
	info := LayoutInfo{
		Name:        e.Name,
		Description: e.Description,
		Match:       string(e.Match),
		Width:       e.Width(),
	}
	if columns {
		info.Columns = e.Columns()
	}
	return info
}
