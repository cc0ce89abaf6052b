package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trivia-live-service/internal/app"
	"trivia-live-service/internal/infra/memory"
)

func TestRoomLookupEndpoint(t *testing.T) {
	store := memory.NewRoomStore()
	hub := NewHub(8)
	service := app.NewGameService(store, memory.NewSessionStore(), app.FallbackSource{}, hub)
	router := NewRouter(NewWSHandler(service, hub, WSOptions{}), NewAPIHandler(service, Catalog{
		Avatars:    []string{"https://api.dicebear.com/7.x/bottts/svg?seed=1"},
		Categories: []string{"General", "Science"},
	}))

	hub.Register("host")
	res, err := service.JoinOrCreate(context.Background(), app.JoinRequest{ClientID: "host", Username: "Ann", IsHost: true})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms/"+res.Room.Code, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Code    string `json:"code"`
		Status  string `json:"status"`
		Players []struct {
			Username string `json:"username"`
			IsHost   bool   `json:"isHost"`
		} `json:"players"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, res.Room.Code, body.Code)
	assert.Equal(t, "waiting", body.Status)
	require.Len(t, body.Players, 1)
	assert.True(t, body.Players[0].IsHost)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms/NOPE00", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var categories []string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&categories))
	assert.Equal(t, []string{"General", "Science"}, categories)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
