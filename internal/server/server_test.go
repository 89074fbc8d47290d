package server

import (
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/chartink/internal/drawing"
	"github.com/example/chartink/internal/session"
)

type fixture struct {
	srv  *httptest.Server
	repo *session.Repository
	sess session.Session
}

func setup(t *testing.T) *fixture {
	t.Helper()
	repo, err := session.Open(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	sess, err := repo.CreateSession(ctx, "AAPL", "1d")
	require.NoError(t, err)

	h := drawing.New(drawing.KindHorizontal, drawing.DefaultStyle(drawing.KindHorizontal), drawing.Point{Time: 0, Price: 100})
	h.ID = "h1"
	n := drawing.New(drawing.KindNote, drawing.DefaultStyle(drawing.KindNote), drawing.Point{Time: 0, Price: 101})
	n.ID = "n1"
	n.Text = "breakout"
	require.NoError(t, repo.AddDrawing(ctx, sess.ID, h))
	require.NoError(t, repo.AddDrawing(ctx, sess.ID, n))

	s := New(Config{
		Sessions: repo,
		Log:      zerolog.Nop(),
		Width:    320,
		Height:   200,
		Limit:    30,
		Now:      func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) },
	})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, repo: repo, sess: sess}
}

func (f *fixture) do(t *testing.T, method, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	f := setup(t)
	resp := f.do(t, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestListSessionsAndDrawings(t *testing.T) {
	f := setup(t)

	resp := f.do(t, http.MethodGet, "/api/sessions")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sessions []session.Session
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, f.sess.ID, sessions[0].ID)

	resp = f.do(t, http.MethodGet, "/api/sessions/"+f.sess.ID+"/drawings")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []drawing.Annotation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	require.Len(t, items, 2)
	assert.Equal(t, "h1", items[0].ID)
	assert.Equal(t, "breakout", items[1].Text)
}

func TestDeleteDrawing(t *testing.T) {
	f := setup(t)
	path := "/api/sessions/" + f.sess.ID + "/drawings/h1"
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, path).StatusCode)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, path).StatusCode)

	resp := f.do(t, http.MethodDelete, "/api/sessions/"+f.sess.ID+"/drawings")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body["removed"])
}

func TestUnknownSession(t *testing.T) {
	f := setup(t)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/sessions/nope").StatusCode)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/sessions/nope/chart.png").StatusCode)
}

func TestChartPNG(t *testing.T) {
	f := setup(t)
	resp := f.do(t, http.MethodGet, "/api/sessions/"+f.sess.ID+"/chart.png?width=400&height=250")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, "true", resp.Header.Get(FallbackHeader))

	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 250, img.Bounds().Dy())
}

func TestChartBadParams(t *testing.T) {
	f := setup(t)
	for _, q := range []string{"width=abc", "height=-1", "limit=100000"} {
		resp := f.do(t, http.MethodGet, "/api/sessions/"+f.sess.ID+"/chart.png?"+q)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}

func TestChartPDF(t *testing.T) {
	f := setup(t)
	resp := f.do(t, http.MethodGet, "/api/sessions/"+f.sess.ID+"/chart.pdf")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "AAPL-1d.pdf")
}

func TestCORSPreflight(t *testing.T) {
	f := setup(t)
	req, err := http.NewRequest(http.MethodOptions, f.srv.URL+"/api/sessions", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
