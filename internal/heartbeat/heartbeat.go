// Package heartbeat implements the Node Heartbeat: a long-lived
// goroutine that periodically publishes node identity, capability
// catalog, and queue snapshot to harvest-nodes, and refreshes the
// template catalog under harvest-templates.
package heartbeat

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/metrics"
	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/registry"
	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/silo"
)

// QueueStatus is the subset of *queue.Queue the Heartbeat depends on,
// kept narrow to avoid a heartbeat->queue import for what is otherwise
// a read-only relationship.
type QueueStatus interface {
	DetailedStatus() map[string]any
}

// Metadata is the application metadata read once from meta.json.
type Metadata struct {
	Version string `json:"version"`
}

// Config configures the Heartbeat's cadence and what it publishes.
type Config struct {
	NodeName             string
	Port                 int
	Pid                  int
	CheckRate            time.Duration
	ExpirationMultiplier float64
	Plugins              []string
	Accounts             []string
}

// Heartbeat periodically publishes the node record. The zero value is
// not usable; build one with New.
type Heartbeat struct {
	cfg      Config
	registry *registry.Registry
	queue    QueueStatus
	metadata Metadata
	logger   zerolog.Logger

	nodesStore     silo.Store
	templatesStore silo.Store

	startTime time.Time
	ip        string
	arch      string
	os        string

	mu              sync.Mutex
	lastPublishedAt []string

	stopCh chan struct{}
	doneCh chan struct{}
}

// New builds a Heartbeat. The immutable parts of the node record
// (architecture, os, ip) are computed once here; only the volatile
// fields are recomputed per cycle.
func New(cfg Config, reg *registry.Registry, q QueueStatus, metadata Metadata, nodesStore, templatesStore silo.Store, logger zerolog.Logger) *Heartbeat {
	return &Heartbeat{
		cfg:            cfg,
		registry:       reg,
		queue:          q,
		metadata:       metadata,
		logger:         logger,
		nodesStore:     nodesStore,
		templatesStore: templatesStore,
		arch:           runtime.GOARCH,
		os:             runtime.GOOS,
		ip:             localIP(),
	}
}

// Start launches the publish loop on its own goroutine. Calling Start
// more than once is a no-op.
func (h *Heartbeat) Start() {
	h.mu.Lock()
	if h.stopCh != nil {
		h.mu.Unlock()
		return
	}
	h.startTime = time.Now().UTC()
	h.stopCh = make(chan struct{})
	h.doneCh = make(chan struct{})
	h.mu.Unlock()

	go h.run()
}

// Stop requests the publish loop to exit and waits for it to do so.
// The node record is not deleted; it expires naturally once the TTL
// refreshes stop, which is how the coordinator learns the node is gone.
func (h *Heartbeat) Stop() {
	h.mu.Lock()
	stopCh := h.stopCh
	doneCh := h.doneCh
	h.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh
}

func (h *Heartbeat) run() {
	defer close(h.doneCh)

	ticker := time.NewTicker(h.cfg.CheckRate)
	defer ticker.Stop()

	h.cycle()

	for {
		select {
		case <-ticker.C:
			h.cycle()
		case <-h.stopCh:
			return
		}
	}
}

// cycle recomputes the record's volatile fields, publishes it with its
// TTL, and diff-publishes the template catalog. Errors are logged; the
// loop never exits because of one.
func (h *Heartbeat) cycle() {
	ctx := context.Background()

	templates, err := h.registry.FindByCategory("template_*")
	if err != nil {
		h.logger.Error().Err(err).Msg("heartbeat: failed to enumerate templates")
		return
	}

	record := h.buildRecord(templates)
	ttl := h.ttl()

	if err := h.nodesStore.HSetAll(ctx, h.cfg.NodeName, silo.Encode(record)); err != nil {
		h.logger.Error().Err(err).Msg("heartbeat: could not update silo harvest-nodes")
		return
	}
	if _, err := h.nodesStore.Expire(ctx, h.cfg.NodeName, ttl); err != nil {
		h.logger.Error().Err(err).Msg("heartbeat: could not set harvest-nodes TTL")
	}

	h.logger.Debug().Msg("heartbeat: OK")
	metrics.HeartbeatCyclesTotal.Inc()

	h.publishTemplates(ctx, templates, ttl)
}

func (h *Heartbeat) ttl() time.Duration {
	seconds := math.Ceil(h.cfg.ExpirationMultiplier * h.cfg.CheckRate.Seconds())
	return time.Duration(seconds) * time.Second
}

func (h *Heartbeat) buildRecord(templates []registry.Descriptor) map[string]any {
	now := time.Now().UTC()

	available := make([]string, 0, len(templates))
	for _, d := range templates {
		available = append(available, fmt.Sprintf("%s/%s", d.Category, d.Name))
	}
	sort.Strings(available)

	chains, _ := h.registry.FindByCategory("chain")
	tasks, _ := h.registry.FindByCategory("task")

	return map[string]any{
		"name":                h.cfg.NodeName,
		"role":                "agent",
		"ip":                  h.ip,
		"architecture":        h.arch,
		"os":                  h.os,
		"port":                h.cfg.Port,
		"version":             h.metadata.Version,
		"pid":                 h.cfg.Pid,
		"start":               h.startTime.Format(time.RFC3339),
		"last":                now.Format(time.RFC3339),
		"duration":            now.Sub(h.startTime).Seconds(),
		"heartbeat_seconds":   h.cfg.CheckRate.Seconds(),
		"plugins":             orEmpty(h.cfg.Plugins),
		"accounts":            orEmpty(h.cfg.Accounts),
		"available_tasks":     namesOf(tasks),
		"available_chains":    namesOf(chains),
		"available_templates": available,
		"queue":               h.queue.DetailedStatus(),
	}
}

// orEmpty keeps nil slices out of the published record, where they
// would serialize as JSON null instead of [].
func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func namesOf(descriptors []registry.Descriptor) []string {
	out := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, d.Name)
	}
	sort.Strings(out)
	return out
}

// publishTemplates re-publishes the full template catalog to
// harvest-templates only when the catalog has changed since the last
// cycle; otherwise it only refreshes TTLs.
func (h *Heartbeat) publishTemplates(ctx context.Context, templates []registry.Descriptor, ttl time.Duration) {
	keys := make([]string, 0, len(templates))
	for _, d := range templates {
		keys = append(keys, fmt.Sprintf("%s/%s", shortCategory(d.Category), d.Name))
	}

	h.mu.Lock()
	changed := !reflect.DeepEqual(h.lastPublishedAt, keys)
	if changed {
		h.lastPublishedAt = keys
	}
	h.mu.Unlock()

	for i, d := range templates {
		identifier := keys[i]

		if changed {
			record := map[string]any{"class": d.Class}
			for k, v := range d.Config {
				record[k] = v
			}
			if err := h.templatesStore.HSetAll(ctx, identifier, silo.Encode(record)); err != nil {
				h.logger.Error().Err(err).Str("template", identifier).Msg("heartbeat: failed to publish template")
				continue
			}
		}

		if _, err := h.templatesStore.Expire(ctx, identifier, ttl); err != nil {
			h.logger.Error().Err(err).Str("template", identifier).Msg("heartbeat: failed to refresh template TTL")
		}
	}
}

// shortCategory strips everything up to and including the first
// underscore, so "template_aws" publishes under "aws/<name>".
func shortCategory(category string) string {
	for i := 0; i < len(category); i++ {
		if category[i] == '_' {
			return category[i+1:]
		}
	}
	return category
}
