package node

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/apiclient"
	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/config"
	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/heartbeat"
	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/queue"
	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/registry"
	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/silo"
)

func splitHostPort(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	var port int
	_, err = fmt.Sscanf(portStr, "%d", &port)
	require.NoError(t, err)
	return host, port
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// chdir switches the process working directory for the duration of the
// test, restoring it on cleanup. node.Bootstrap reads ./meta.json
// relative to the current directory.
func chdir(t *testing.T, dir string) {
	t.Helper()
	original, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(original)
	})
}

func newTestQueue(t *testing.T) *queue.Queue {
	t.Helper()
	reg := registry.New()
	registry.RegisterDefaults(reg)
	return queue.New(queue.Config{
		AcceptedChainPriorities: []int{0},
		MaxChains:               1,
	}, "node-test", reg, silo.NewMemoryStore(), silo.NewMemoryStore(), zerolog.Nop(), nil)
}

func newTestHeartbeat(t *testing.T) *heartbeat.Heartbeat {
	t.Helper()
	reg := registry.New()
	registry.RegisterDefaults(reg)
	return heartbeat.New(heartbeat.Config{
		NodeName:             "node-test",
		CheckRate:            50 * time.Millisecond,
		ExpirationMultiplier: 3,
	}, reg, newTestQueue(t), heartbeat.Metadata{Version: "test"},
		silo.NewMemoryStore(), silo.NewMemoryStore(), zerolog.Nop())
}

// TestBootstrapWiresSilosFromCoordinator exercises Bootstrap end-to-end
// against a fake coordinator, verifying the silo directory and queue
// come out wired from the GET /silos/get_all response.
func TestBootstrapWiresSilosFromCoordinator(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/silos/get_all":
			w.Header().Set("Content-Type", "application/json")
			body := map[string]any{
				"result": map[string]apiclient.SiloConnection{
					"harvest-tasks":        {Host: "127.0.0.1", Port: 6379},
					"harvest-task-queue":   {Host: "127.0.0.1", Port: 6379},
					"harvest-nodes":        {Host: "127.0.0.1", Port: 6379},
					"harvest-templates":    {Host: "127.0.0.1", Port: 6379},
					"harvest-task-results": {Host: "127.0.0.1", Port: 6379},
				},
			}
			_ = json.NewEncoder(w).Encode(body)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	host, port := splitHostPort(t, server.Listener.Addr().String())

	dir := t.TempDir()
	writeFile(t, dir+"/meta.json", `{"version":"1.2.3"}`)
	chdir(t, dir)

	cfg := &config.Config{
		API: config.API{
			Host:  host,
			Port:  port,
			Token: "test-token",
			SSL:   config.SSL{Verify: false},
		},
		Agent: config.Agent{
			Name: "node-1",
			Connection: config.Connection{
				Host: "127.0.0.1",
				Port: 8000,
			},
			Tasks: config.Tasks{
				AcceptedChainPriorities: []int{0},
				MaxChains:               1,
			},
			Heartbeat: config.Heartbeat{
				CheckRate:            1,
				ExpirationMultiplier: 3,
			},
		},
	}

	n, err := Bootstrap(cfg)
	require.NoError(t, err)
	assert.NotNil(t, n.Queue)
	assert.NotNil(t, n.Heartbeat)
	assert.NotNil(t, n.Registry)

	_, ok := n.Silos.Get("harvest-tasks")
	assert.True(t, ok)
}

func TestBootstrapFailsOnEmptySilos(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":{}}`))
	}))
	defer server.Close()

	host, port := splitHostPort(t, server.Listener.Addr().String())

	dir := t.TempDir()
	writeFile(t, dir+"/meta.json", `{"version":"1.0.0"}`)
	chdir(t, dir)

	cfg := &config.Config{
		API: config.API{Host: host, Port: port, SSL: config.SSL{Verify: false}},
	}

	_, err := Bootstrap(cfg)
	assert.Error(t, err)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	n := &Node{
		Queue:     newTestQueue(t),
		Heartbeat: newTestHeartbeat(t),
		Logger:    zerolog.Nop(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
