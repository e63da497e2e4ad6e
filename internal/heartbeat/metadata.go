package heartbeat

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
)

// LoadMetadata reads the application metadata file once at startup. A
// missing or malformed file is a bootstrap error, not a steady-state
// one: the caller decides whether to treat it as fatal.
func LoadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read application metadata %s: %w", path, err)
	}

	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse application metadata %s: %w", path, err)
	}
	return m, nil
}

// localIP best-effort resolves the node's outward-facing address. It
// never fails the heartbeat: an unresolvable address just publishes as
// an empty string, since ip is a descriptive field, not one the Queue
// or coordinator depend on for correctness.
func localIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return ""
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return ""
	}
	return addr.IP.String()
}
