// Package httpapi exposes the ambient operational surface around the
// WebSocket game protocol: a liveness probe and a debug snapshot of live
// lobbies, routed with httprouter the way the rest of the domain stack's
// HTTP-facing tools do.
package httpapi

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/lguibr/multisweeper/registry"
)

// API bundles the debug/health HTTP surface against a shared registry.
type API struct {
	Registry *registry.Registry
	Log      *log.Logger
}

// New builds an API. logger may be nil to use log.Default().
func New(reg *registry.Registry, logger *log.Logger) *API {
	if logger == nil {
		logger = log.Default()
	}
	return &API{Registry: reg, Log: logger}
}

// Router builds the httprouter.Router serving this API's endpoints.
func (a *API) Router() *httprouter.Router {
	r := httprouter.New()
	r.GET("/healthz", a.handleHealthz)
	r.GET("/lobbies", a.handleLobbies)
	return r
}

func (a *API) handleHealthz(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type lobbiesResponse struct {
	Lobbies     []string `json:"lobbies"`
	IdlePlayers int      `json:"idle_players"`
}

func (a *API) handleLobbies(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	codes := a.Registry.Lobbies()
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = string(c)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(lobbiesResponse{Lobbies: out, IdlePlayers: a.Registry.IdlePlayerCount()}); err != nil {
		a.Log.Printf("httpapi: encoding /lobbies response: %v", err)
	}
}
