package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"trivia-live-service/internal/domain"
)

// RoomLookup reads a room and its roster by code.
type RoomLookup interface {
	LookupRoom(ctx context.Context, code string) (domain.Room, []domain.Player, error)
}

// Catalog holds the static lists served to clients before they join.
type Catalog struct {
	Avatars    []string
	Categories []string
}

type APIHandler struct {
	rooms   RoomLookup
	catalog Catalog
}

func NewAPIHandler(rooms RoomLookup, catalog Catalog) *APIHandler {
	return &APIHandler{rooms: rooms, catalog: catalog}
}

type roomResponse struct {
	domain.Room
	Players []domain.Player `json:"players"`
}

// GetRoom handles GET /api/rooms/{code}
func (a *APIHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	room, players, err := a.rooms.LookupRoom(r.Context(), code)
	if errors.Is(err, domain.ErrRoomNotFound) {
		writeError(w, http.StatusNotFound, "Room not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("code", code).Msg("lookup room")
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, roomResponse{Room: room, Players: players})
}

func (a *APIHandler) Avatars(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(a.catalog.Avatars))
}

func (a *APIHandler) Categories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(a.catalog.Categories))
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("write response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
