package httpapi

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lguibr/multisweeper/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestHealthzReportsOk(t *testing.T) {
	api := New(registry.New(1, discardLogger()), discardLogger())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	api.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestLobbiesReflectsRegistryState(t *testing.T) {
	reg := registry.New(1, discardLogger())
	code, err := reg.RegisterLobby(registry.LobbyHandle{})
	require.NoError(t, err)
	reg.RegisterPlayer(registry.PlayerConnection{})

	api := New(reg, discardLogger())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/lobbies", nil)

	api.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body lobbiesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{string(code)}, body.Lobbies)
	assert.Equal(t, 1, body.IdlePlayers)
}
