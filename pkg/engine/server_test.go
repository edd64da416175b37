package engine

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phiremock/phiremock/internal/storage"
	"github.com/phiremock/phiremock/pkg/config"
	"github.com/phiremock/phiremock/pkg/journal"
	"github.com/phiremock/phiremock/pkg/scenario"
)

func getFreePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = listener.Close() }()
	return listener.Addr().(*net.TCPAddr).Port
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()

	cfg := config.Default()
	cfg.IP = "127.0.0.1"
	cfg.Port = getFreePort(t)

	store := storage.NewInMemoryExpectationStore()
	scenarios := scenario.NewStore()
	jrnl := journal.NewStore(0)
	admin := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := NewHandler(store, scenarios, jrnl, admin, NewResponder(time.Second, "", nil))

	srv := NewServer(cfg, handler, nil)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })

	return srv, fmt.Sprintf("http://127.0.0.1:%d", cfg.Port)
}

func TestServer_ServesRequests(t *testing.T) {
	_, base := newTestServer(t)

	resp, err := http.Get(base + "/anything")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "No expectation matched")
}

func TestServer_BindFailure(t *testing.T) {
	cfg := config.Default()
	cfg.IP = "127.0.0.1"
	cfg.Port = getFreePort(t)

	occupier, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", cfg.Port))
	require.NoError(t, err)
	defer func() { _ = occupier.Close() }()

	srv := NewServer(cfg, http.NotFoundHandler(), nil)
	err = srv.Start()
	assert.Error(t, err, "binding an occupied port must fail synchronously")
}

func TestServer_StopIsIdempotent(t *testing.T) {
	srv, _ := newTestServer(t)

	require.NoError(t, srv.Stop(context.Background()))
	require.NoError(t, srv.Stop(context.Background()))
}

func TestServer_DoubleStartFails(t *testing.T) {
	srv, _ := newTestServer(t)
	assert.Error(t, srv.Start())
}
