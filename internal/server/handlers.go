package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/example/chartink/internal/chart"
	"github.com/example/chartink/internal/drawing"
	"github.com/example/chartink/internal/export"
	"github.com/example/chartink/internal/marketdata"
	"github.com/example/chartink/internal/overlay"
	"github.com/example/chartink/internal/session"
)

const maxRenderSide = 4096

// FallbackHeader is set on chart responses drawn from synthetic candles.
const FallbackHeader = "X-Chartink-Fallback"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	list, err := s.cfg.Sessions.ListSessions(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []session.Session{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.cfg.Sessions.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleListDrawings(w http.ResponseWriter, r *http.Request) {
	items, err := s.cfg.Sessions.Drawings(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if items == nil {
		items = []drawing.Annotation{}
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleClearDrawings(w http.ResponseWriter, r *http.Request) {
	n, err := s.cfg.Sessions.ClearDrawings(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

func (s *Server) handleDeleteDrawing(w http.ResponseWriter, r *http.Request) {
	err := s.cfg.Sessions.RemoveDrawing(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "drawingID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	img, _, res, err := s.renderSession(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if res.Fallback {
		w.Header().Set(FallbackHeader, "true")
	}
	if err := png.Encode(w, img); err != nil {
		s.log.Error().Err(err).Msg("encode chart png")
	}
}

func (s *Server) handleChartPDF(w http.ResponseWriter, r *http.Request) {
	img, sess, res, err := s.renderSession(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	items, err := s.cfg.Sessions.Drawings(r.Context(), sess.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sess.Symbol+"-"+sess.Timeframe+".pdf"))
	if res.Fallback {
		w.Header().Set(FallbackHeader, "true")
	}
	doc := export.Document{
		Title:     sess.Symbol + " " + sess.Timeframe,
		Subtitle:  "session " + sess.ID,
		Chart:     img,
		Drawings:  items,
		Generated: s.cfg.Now(),
	}
	if err := export.WritePDF(w, doc); err != nil {
		s.log.Error().Err(err).Msg("write chart pdf")
	}
}

// badRequest marks errors caused by invalid query parameters.
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func (s *Server) renderSession(r *http.Request) (*image.RGBA, session.Session, marketdata.Result, error) {
	ctx := r.Context()
	sess, err := s.cfg.Sessions.GetSession(ctx, chi.URLParam(r, "sessionID"))
	if err != nil {
		return nil, session.Session{}, marketdata.Result{}, err
	}
	q := r.URL.Query()
	width, err := intParam(q.Get("width"), s.cfg.Width)
	if err != nil {
		return nil, sess, marketdata.Result{}, err
	}
	height, err := intParam(q.Get("height"), s.cfg.Height)
	if err != nil {
		return nil, sess, marketdata.Result{}, err
	}
	limit, err := intParam(q.Get("limit"), s.cfg.Limit)
	if err != nil {
		return nil, sess, marketdata.Result{}, err
	}

	items, err := s.cfg.Sessions.Drawings(ctx, sess.ID)
	if err != nil {
		return nil, sess, marketdata.Result{}, err
	}
	req := marketdata.Request{Symbol: sess.Symbol, Timeframe: sess.Timeframe, Limit: limit}
	res := marketdata.Load(ctx, s.cfg.Fetcher, req, s.cfg.Now(), s.log)

	v := chart.NewViewport(width, height, chart.WithTheme(s.cfg.Theme))
	v.SetCandles(res.Candles)
	img, err := overlay.Snapshot(v, items, overlay.WithTheme(s.cfg.Theme), overlay.WithLogger(s.log))
	return img, sess, res, err
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 || v > maxRenderSide {
		return 0, badRequest{fmt.Sprintf("invalid value %q", raw)}
	}
	return v, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var br badRequest
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrDrawingNotFound):
		status = http.StatusNotFound
	case errors.As(err, &br):
		status = http.StatusBadRequest
	default:
		s.log.Error().Err(err).Msg("request failed")
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
