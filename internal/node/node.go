// Package node is the explicit wiring root the agent is built from:
// the API client, the shared-store directory, the template registry,
// the Job Queue, and the Node Heartbeat, held as fields on one value
// constructed once at startup instead of package-level globals.
package node

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/apiclient"
	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/config"
	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/heartbeat"
	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/log"
	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/metrics"
	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/queue"
	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/registry"
	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/silo"
)

// Node is the agent: every subsystem hangs off this one value, built
// once in cmd/harvestagent/main.go and passed down by reference
// wherever a handler or goroutine needs it. Nothing in this module
// reaches back into a package-level singleton for node state.
type Node struct {
	Config    *config.Config
	API       *apiclient.Client
	Silos     *silo.Directory
	Registry  *registry.Registry
	Queue     *queue.Queue
	Heartbeat *heartbeat.Heartbeat
	Logger    zerolog.Logger

	autoStart bool
}

// Bootstrap builds a Node from a loaded Config. Every error returned
// here is fatal: an unreadable client certificate, an unreachable
// coordinator, an empty silo directory, or an unreadable meta.json all
// mean the node cannot run at all, not that one subsystem is degraded.
// The Config's values are used as given; none are checked for presence.
func Bootstrap(cfg *config.Config) (*Node, error) {
	client, err := apiclient.New(cfg.API.Host, cfg.API.Port, cfg.API.Token, apiclient.TLSConfig{
		InsecureSkipVerify: !cfg.API.SSL.Verify,
		ClientCertFile:     cfg.API.SSL.Pem,
		ClientKeyFile:      cfg.API.SSL.Pem,
	}, log.WithComponent("apiclient"))
	if err != nil {
		return nil, fmt.Errorf("node: failed to build API client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	connections, err := client.GetSilos(ctx)
	if err != nil {
		return nil, fmt.Errorf("node: failed to fetch silo directory: %w", err)
	}

	stores := make(map[string]silo.Store, len(connections))
	for name, conn := range connections {
		stores[name] = silo.NewRedisStore(silo.Connection{
			Host:     conn.Host,
			Port:     conn.Port,
			Password: conn.Password,
			DB:       conn.DB,
			UseTLS:   conn.UseTLS,
		})
	}
	directory := silo.NewDirectory(stores)

	reg := registry.New()
	registry.RegisterDefaults(reg)

	nodeName := cfg.Agent.Name

	q := queue.New(queue.Config{
		AcceptedChainPriorities:   cfg.Agent.Tasks.AcceptedChainPriorities,
		ChainTaskRestrictions:     cfg.Agent.Tasks.ChainTaskRestrictions,
		ChainTimeoutSeconds:       cfg.Agent.Tasks.ChainTimeoutSeconds,
		QueueCheckIntervalSeconds: cfg.Agent.Tasks.QueueCheckIntervalSeconds,
		MaxChains:                 cfg.Agent.Tasks.MaxChains,
	}, nodeName, reg, directory.MustGet(silo.TaskQueue), directory.MustGet(silo.Tasks),
		log.WithComponent("queue"),
		metrics.NewQueueAdapter(nodeName))

	meta, err := heartbeat.LoadMetadata("./meta.json")
	if err != nil {
		return nil, fmt.Errorf("node: failed to load application metadata: %w", err)
	}

	pid := cfg.Agent.Pid
	if pid == 0 {
		pid = os.Getpid()
	}

	hb := heartbeat.New(heartbeat.Config{
		NodeName:             nodeName,
		Port:                 cfg.Agent.Connection.Port,
		Pid:                  pid,
		CheckRate:            time.Duration(cfg.Agent.Heartbeat.CheckRate) * time.Second,
		ExpirationMultiplier: cfg.Agent.Heartbeat.ExpirationMultiplier,
		Plugins:              cfg.Plugins,
	}, reg, q, meta, directory.MustGet(silo.Nodes), directory.MustGet(silo.Templates),
		log.WithComponent("heartbeat"))

	return &Node{
		Config:    cfg,
		API:       client,
		Silos:     directory,
		Registry:  reg,
		Queue:     q,
		Heartbeat: hb,
		Logger:    log.WithComponent("node"),
		autoStart: cfg.Agent.Tasks.AutoStart,
	}, nil
}

// Run starts the Heartbeat, optionally auto-starts the Queue, and
// blocks until ctx is cancelled, then drains both subsystems.
func (n *Node) Run(ctx context.Context) {
	n.Heartbeat.Start()
	if n.autoStart {
		n.Queue.Start()
	}

	<-ctx.Done()

	n.Logger.Info().Msg("node: shutting down")
	success, message := n.Queue.Stop(context.Background(), true, 30*time.Second)
	n.Logger.Info().Bool("success", success).Str("message", message).Msg("node: queue stopped")
	n.Heartbeat.Stop()
}
