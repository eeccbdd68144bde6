package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbarena/game"
)

func adminManager(t *testing.T) *RoomManager {
	t.Helper()
	m := NewRoomManager(DefaultConfig())
	t.Cleanup(m.Shutdown)
	_, err := m.GetOrCreateRoom("room-1")
	require.NoError(t, err)
	return m
}

func TestAdminConfigGetAndUpdate(t *testing.T) {
	m := adminManager(t)

	rec := httptest.NewRecorder()
	m.HandleAdminConfig(rec, httptest.NewRequest(http.MethodGet, "/admin/config", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"npcs":0,"npcDecisionInterval":20}`, rec.Body.String())

	rec = httptest.NewRecorder()
	body := strings.NewReader(`{"npcs":2,"npcDecisionInterval":7}`)
	m.HandleAdminConfig(rec, httptest.NewRequest(http.MethodPost, "/admin/config?room=room-1", body))
	require.Equal(t, http.StatusOK, rec.Code)

	r, _ := m.Room("room-1")
	var npcs int
	require.Eventually(t, func() bool {
		_ = r.Do(func(r *Room) {
			npcs = 0
			for _, a := range r.World().Actors() {
				if a.IsNPC() {
					npcs++
				}
			}
		})
		return npcs == 2
	}, time.Second, 10*time.Millisecond)
}

func TestAdminConfigRejects(t *testing.T) {
	m := adminManager(t)
	cases := []struct {
		method, url, body string
		code              int
	}{
		{http.MethodPost, "/admin/config", `{"npcs":-1}`, http.StatusBadRequest},
		{http.MethodPost, "/admin/config", `{"step":1}`, http.StatusBadRequest},
		{http.MethodPost, "/admin/config", `{`, http.StatusBadRequest},
		{http.MethodDelete, "/admin/config", ``, http.StatusMethodNotAllowed},
		{http.MethodGet, "/admin/config?room=nope", ``, http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		m.HandleAdminConfig(rec, httptest.NewRequest(tc.method, tc.url, strings.NewReader(tc.body)))
		assert.Equal(t, tc.code, rec.Code, "%s %s %s", tc.method, tc.url, tc.body)
	}
}

func TestAdminSnapshot(t *testing.T) {
	m := adminManager(t)

	rec := httptest.NewRecorder()
	m.HandleAdminSnapshot(rec, httptest.NewRequest(http.MethodGet, "/admin/snapshot", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	_, err := game.DecodeSnapshot(rec.Body.Bytes(), game.CodecJSON)
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	m.HandleAdminSnapshot(rec, httptest.NewRequest(http.MethodGet, "/admin/snapshot?codec=msgpack", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	_, err = game.DecodeSnapshot(rec.Body.Bytes(), game.CodecMsgpack)
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	m.HandleAdminSnapshot(rec, httptest.NewRequest(http.MethodGet, "/admin/snapshot?codec=xml", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsAndRooms(t *testing.T) {
	m := adminManager(t)

	rec := httptest.NewRecorder()
	m.HandleMetrics(rec, httptest.NewRequest(http.MethodGet, "/metrics?room=room-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Room    string         `json:"room"`
		Metrics map[string]any `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "room-1", payload.Room)
	assert.Contains(t, payload.Metrics, "tick_count")

	rec = httptest.NewRecorder()
	m.HandleRooms(rec, httptest.NewRequest(http.MethodGet, "/rooms", nil))
	assert.JSONEq(t, `{"rooms":[{"id":"room-1","players":0}]}`, rec.Body.String())
}
