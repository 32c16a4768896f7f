package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/muurk/stouch/internal/automation"
	"github.com/muurk/stouch/internal/logging"
	"github.com/muurk/stouch/internal/render"
	"github.com/muurk/stouch/internal/urls"
	"github.com/muurk/stouch/internal/version"
	"go.uber.org/zap"
)

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)
	if s.config.Metrics && s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route(urls.APIPath, func(r chi.Router) {
		// actions accept POST as well so plain links and scripts both work
		action := func(pattern string, h http.HandlerFunc) {
			r.Get(pattern, h)
			r.Post(pattern, h)
		}
		action("/connect", s.handleConnect)
		action("/disconnect", s.handleDisconnect)
		action("/findsystacomfort", s.handleFind)
		action("/touch", s.handleTouch)
		action("/touchbutton", s.handleTouchButton)
		action("/touchtext", s.handleTouchText)
		action("/automation", s.handleAutomation)

		r.Get("/status", s.handleStatus)
		r.Get("/screen", s.handleScreen)
		r.Get("/debugscreen", s.handleDebugScreen)
		r.Get("/objecttree", s.handleObjectTree)
		r.Get("/excalidraw", s.handleExcalidraw)
		r.Get("/scene", s.handleScene)
		r.Get("/stream", s.handleStream)
	})
	return r
}

// requestLogger logs every request and records it in the metrics under
// its route pattern
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, status, elapsed)

		if s.metrics != nil {
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			s.metrics.ObserveHTTP(route, status, elapsed)
		}
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: version.Get()})
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	res := s.panel.Connect(r.Context())
	logging.Info("Connect requested",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Stringer("result", res),
	)
	writeJSON(w, res.HTTPStatus(), connectResponse{Result: res.String(), Message: res.Message()})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	confirmed := s.panel.Disconnect(r.Context())
	writeJSON(w, http.StatusOK, disconnectResponse{
		Message:   "Disconnected successfully or was not connected.",
		Confirmed: confirmed,
	})
}

// handleFind searches for a controller and makes the first one supporting
// S-Touch the endpoint of the next connect
func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	if s.finder == nil {
		writeError(w, http.StatusNotImplemented, "device search is not enabled")
		return
	}
	devices, err := s.finder.Search(r.Context())
	if err != nil {
		logging.Warn("Device search failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error during device search: %v", err))
		return
	}
	for _, d := range devices {
		if d.STouchSupported {
			s.panel.SetEndpoint(d.Endpoint())
			logging.Info("Endpoint set from search", zap.Stringer("device", d))
			writeJSON(w, http.StatusOK, d)
			return
		}
	}
	writeError(w, http.StatusServiceUnavailable, "No compatible SystaComfort device found on any interface.")
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("missing query parameter %q", name)
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid query parameter %q: %w", name, err)
	}
	return v, nil
}

func (s *Server) handleTouch(w http.ResponseWriter, r *http.Request) {
	x, err := queryInt(r, "x")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	y, err := queryInt(r, "y")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.panel.Touch(x, y)
	writeJSON(w, http.StatusOK, touchResponse{
		Message: fmt.Sprintf("Touch event at (%d,%d) processed.", x, y),
		Touch:   newTouchView(s.panel.Status().Touch),
	})
}

func (s *Server) handleTouchButton(w http.ResponseWriter, r *http.Request) {
	id, err := queryInt(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.panel.TouchButton(id) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Button with ID %d not found on the current screen.", id))
		return
	}
	writeJSON(w, http.StatusOK, touchResponse{
		Message: fmt.Sprintf("Button %d pressed successfully.", id),
		Touch:   newTouchView(s.panel.Status().Touch),
	})
}

func (s *Server) handleTouchText(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	if text == "" {
		writeError(w, http.StatusBadRequest, "Text parameter cannot be null or empty.")
		return
	}
	if !s.panel.TouchText(text) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Text %q not found on the current screen.", text))
		return
	}
	writeJSON(w, http.StatusOK, touchResponse{
		Message: fmt.Sprintf("Text %q touched successfully.", text),
		Touch:   newTouchView(s.panel.Status().Touch),
	})
}

// handleAutomation runs the sequence encoded in the raw query. The query is
// not parsed with url.Values since step order matters.
func (s *Server) handleAutomation(w http.ResponseWriter, r *http.Request) {
	seq, err := automation.ParseQuery(r.URL.RawQuery)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.automationMu.Lock()
	defer s.automationMu.Unlock()

	runner := &automation.Runner{
		Device:    s.panel,
		StepDelay: s.config.StepDelay,
		MaxLoops:  s.config.MaxLoops,
	}
	res := runner.Run(r.Context(), seq)

	if s.metrics != nil {
		outcome := "ok"
		if res.Failure != nil {
			outcome = res.Failure.Kind.String()
		}
		s.metrics.AutomationFinished(outcome)
	}
	writeJSON(w, automationStatus(res), newAutomationResponse(res))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStatusResponse(s.panel.Status()))
}

func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	data, err := render.PNGBytes(s.panel.Display().Snapshot())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error processing screen image: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

func (s *Server) handleObjectTree(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.panel.Display().Snapshot().Tree))
}

func (s *Server) handleExcalidraw(w http.ResponseWriter, r *http.Request) {
	data, err := render.ExcalidrawJSON(s.panel.Display().Snapshot())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newSceneView(s.panel.Display().Snapshot()))
}
