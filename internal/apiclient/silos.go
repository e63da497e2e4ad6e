package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// SiloConnection is one entry of GET /silos/get_all's result map: the
// connection descriptor the Shared-Store Facade resolves a named
// silo.Store against.
type SiloConnection struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	UseTLS   bool   `json:"use_tls"`
}

type silosEnvelope struct {
	Result map[string]SiloConnection `json:"result"`
}

// GetSilos fetches the coordinator's silo connection directory. A
// non-200 status or an empty result is a bootstrap configuration
// error: the agent cannot run without its shared-store handles.
func (c *Client) GetSilos(ctx context.Context) (map[string]SiloConnection, error) {
	resp := c.Request(ctx, "GET", "silos/get_all", nil, WithTimeout(15*time.Second))
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("apiclient: GET silos/get_all returned %d %s", resp.StatusCode, resp.Reason)
	}

	raw, err := json.Marshal(resp.Response)
	if err != nil {
		return nil, fmt.Errorf("apiclient: could not re-encode silos/get_all response: %w", err)
	}

	var envelope silosEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("apiclient: could not decode silos/get_all response: %w", err)
	}

	if len(envelope.Result) == 0 {
		return nil, fmt.Errorf("apiclient: silos/get_all returned an empty result")
	}

	return envelope.Result, nil
}
