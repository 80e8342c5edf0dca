package server_test

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/equinor/fmu-settings-cli/internal/model"
	"github.com/equinor/fmu-settings-cli/internal/server"
	"github.com/equinor/fmu-settings-cli/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func apiConfig(t *testing.T) model.APIConfig {
	t.Helper()
	tok, err := token.New()
	require.NoError(t, err)
	return model.APIConfig{
		Host:         "localhost",
		Port:         8001,
		Token:        string(tok),
		FrontendHost: "localhost",
		FrontendPort: 8000,
	}
}

func TestAPIHealth(t *testing.T) {
	t.Parallel()
	router := server.NewAPIRouter(apiConfig(t))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAPISessionAuth(t *testing.T) {
	t.Parallel()
	cfg := apiConfig(t)
	router := server.NewAPIRouter(cfg)

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
		req.Header.Set("Authorization", "Bearer not-the-token")
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bearer token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), "http://localhost:8000")
	})

	t.Run("query token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/session?token="+cfg.Token, nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAPICORSPreflight(t *testing.T) {
	t.Parallel()
	router := server.NewAPIRouter(apiConfig(t))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/session", nil)
	req.Header.Set("Origin", "http://localhost:8000")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "http://localhost:8000", w.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestRunAPIInvalidConfig(t *testing.T) {
	t.Parallel()
	err := server.RunAPI(t.Context(), model.APIConfig{Port: 0})
	require.Error(t, err)
}

func TestRunAPIServesAndShutsDown(t *testing.T) {
	t.Parallel()
	cfg := apiConfig(t)
	cfg.Host = "127.0.0.1"
	cfg.Port = freePort(t)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() {
		done <- server.RunAPI(ctx, cfg)
	}()

	baseURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(baseURL + "/health")
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 25*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

// freePort grabs an ephemeral port and releases it for the server to
// reuse. Small race, acceptable in tests.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}
