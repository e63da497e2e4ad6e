// Package config loads the agent's harvest.yaml configuration file and
// applies the handful of environment overrides used for non-interactive
// starts.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Connection describes the agent's HTTP bind address and server cert.
type Connection struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Pem  string `yaml:"pem"`
}

// Logging describes where and how verbosely the agent logs.
type Logging struct {
	Location string `yaml:"location"`
	Level    string `yaml:"level"`
	Quiet    bool   `yaml:"quiet"`
}

// Tasks describes the Job Queue's admission and lifecycle configuration.
type Tasks struct {
	AcceptedChainPriorities   []int    `yaml:"accepted_chain_priorities"`
	ChainTaskRestrictions     []string `yaml:"chain_task_restrictions"`
	ChainTimeoutSeconds       int      `yaml:"chain_timeout_seconds"`
	QueueCheckIntervalSeconds int      `yaml:"queue_check_interval_seconds"`
	MaxChains                 int      `yaml:"max_chains"`
	AutoStart                 bool     `yaml:"auto_start"`
}

// Metrics describes progress-reporting cadence.
type Metrics struct {
	ReportingIntervalSeconds int `yaml:"reporting_interval_seconds"`
}

// Heartbeat describes the Node Heartbeat's cadence and TTL factor.
type Heartbeat struct {
	CheckRate            int     `yaml:"check_rate"`
	ExpirationMultiplier float64 `yaml:"expiration_multiplier"`
}

// Agent is the `agent.*` section of harvest.yaml.
type Agent struct {
	Connection Connection `yaml:"connection"`
	Logging    Logging    `yaml:"logging"`
	Tasks      Tasks      `yaml:"tasks"`
	Metrics    Metrics    `yaml:"metrics"`
	Heartbeat  Heartbeat  `yaml:"heartbeat"`
	Name       string     `yaml:"name"`
	Pid        int        `yaml:"pid"`
	Pstar      string     `yaml:"pstar"`
}

// SSL describes the coordinator API's TLS posture as seen by this agent.
type SSL struct {
	Pem    string `yaml:"pem"`
	Verify bool   `yaml:"verify"`
}

// API is the `api.*` section of harvest.yaml: where to find the
// coordinator and how to authenticate to it.
type API struct {
	Host  string `yaml:"host"`
	Port  int    `yaml:"port"`
	Token string `yaml:"token"`
	SSL   SSL    `yaml:"ssl"`
}

// Config is the root of harvest.yaml.
type Config struct {
	Agent   Agent    `yaml:"agent"`
	API     API      `yaml:"api"`
	Plugins []string `yaml:"plugins"`
}

// candidatePaths are tried in order; the first existing file wins.
var candidatePaths = []string{"./app/harvest.yaml", "./harvest.yaml"}

// Load finds and decodes the first existing harvest.yaml, then applies
// environment overrides. A missing file or malformed YAML is a fatal
// configuration error.
func Load() (*Config, error) {
	var path string
	for _, candidate := range candidatePaths {
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
			break
		}
	}

	if path == "" {
		return nil, fmt.Errorf("no configuration file found in %v", candidatePaths)
	}

	return LoadFile(path)
}

// LoadFile decodes a specific harvest.yaml path and applies environment
// overrides. Exposed separately so tests don't depend on the working
// directory.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides implements the CLOUDHARVESTAGENT_HOST/_PORT/_PEMFILE
// overrides used for non-interactive starts.
func applyEnvOverrides(cfg *Config) {
	if host := os.Getenv("CLOUDHARVESTAGENT_HOST"); host != "" {
		cfg.Agent.Connection.Host = host
	}

	if port := os.Getenv("CLOUDHARVESTAGENT_PORT"); port != "" {
		var p int
		if _, err := fmt.Sscanf(port, "%d", &p); err == nil {
			cfg.Agent.Connection.Port = p
		}
	}

	if pem := os.Getenv("CLOUDHARVESTAGENT_PEMFILE"); pem != "" {
		cfg.Agent.Connection.Pem = pem
	}
}
