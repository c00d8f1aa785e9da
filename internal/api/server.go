// Package api exposes the daemon's observability surface over HTTP: the
// latest status snapshot, recent command history, and command injection.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/armlink/internal/arm"
	"github.com/banshee-data/armlink/internal/db"
	"github.com/banshee-data/armlink/internal/httputil"
	"github.com/banshee-data/armlink/internal/monitoring"
	"github.com/banshee-data/armlink/internal/units"
	"github.com/banshee-data/armlink/internal/version"
)

// ANSI escape codes for the request log
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	board   *arm.StatusBoard
	loop    *arm.Loop
	history *db.DB
	armID   string
}

// NewServer wires the API. history and loop may be nil, disabling the
// endpoints that need them.
func NewServer(board *arm.StatusBoard, loop *arm.Loop, history *db.DB, armID string) *Server {
	return &Server{board: board, loop: loop, history: history, armID: armID}
}

// ServeMux returns the API routes.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.health)
	mux.HandleFunc("/api/status", s.status)
	mux.HandleFunc("/api/commands", s.commands)
	mux.HandleFunc("/api/events", s.events)
	mux.HandleFunc("/api/command", s.command)
	return mux
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"arm_id":  s.armID,
		"version": version.Version,
	})
}

// statusResponse is the JSON shape of /api/status.
type statusResponse struct {
	ArmID       string     `json:"arm_id"`
	Mode        string     `json:"mode"`
	Running     bool       `json:"running"`
	Initialised bool       `json:"initialised"`
	Joints      [6]float64 `json:"joints"`
	Forces      [6]float64 `json:"forces"`
	Units       string     `json:"units"`
	TimeMS      uint64     `json:"time_ms"`
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	st, ok := s.board.Get()
	if !ok {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "no status received from arm yet")
		return
	}

	unit := r.URL.Query().Get("units")
	if unit == "" {
		unit = units.Radians
	}
	if !units.IsValid(unit) {
		httputil.BadRequest(w, fmt.Sprintf("unknown units %q", unit))
		return
	}

	resp := statusResponse{
		ArmID:       s.armID,
		Mode:        st.ModeString(),
		Running:     st.Running(),
		Initialised: st.Initialised(),
		Forces:      st.Forces,
		Units:       unit,
		TimeMS:      st.TimeMS,
	}
	for i, rad := range st.Joints {
		resp.Joints[i] = units.ConvertAngle(rad, unit)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) commands(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.history == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "history store disabled")
		return
	}
	limit, err := limitParam(r, 50)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	records, err := s.history.RecentCommands(limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to read command history: %v", err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.history == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "history store disabled")
		return
	}
	limit, err := limitParam(r, 50)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	records, err := s.history.RecentEvents(limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to read event history: %v", err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

// commandRequest is the POST /api/command body.
type commandRequest struct {
	Line string `json:"line"`
}

// commandResponse carries the acknowledgement for an injected command.
type commandResponse struct {
	Ack string `json:"ack"`
}

func (s *Server) command(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.loop == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "command injection disabled")
		return
	}

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "request body must be JSON with a \"line\" field")
		return
	}
	if req.Line == "" {
		httputil.BadRequest(w, "line must not be empty")
		return
	}

	ack, err := s.loop.InjectCommand(r.Context(), req.Line)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusGatewayTimeout, fmt.Sprintf("command not processed: %v", err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, commandResponse{Ack: ack})
}

func limitParam(r *http.Request, def int) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def, nil
	}
	limit, err := strconv.Atoi(v)
	if err != nil || limit < 1 {
		return 0, fmt.Errorf("invalid 'limit' parameter")
	}
	return limit, nil
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

// LoggingMiddleware logs method, path, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}
