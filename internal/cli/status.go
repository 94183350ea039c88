package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"satchel/internal/config"
)

func daemonStatus(ctx context.Context, cfg *config.Config, opts statusOptions) error {
	addr := opts.Addr
	if addr == "" {
		addr = cfg.Listen
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/v1/status", nil)
	if err != nil {
		return fmt.Errorf("build status request: %w", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("satcheld unreachable at %s: %w", addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("satcheld returned status %d", resp.StatusCode)
	}

	var status struct {
		State     string `json:"state"`
		Backend   string `json:"backend"`
		Bucket    string `json:"bucket"`
		StartedAt string `json:"started_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("decode status response: %w", err)
	}

	fmt.Printf("state=%s backend=%s bucket=%s started_at=%s\n",
		status.State, status.Backend, status.Bucket, status.StartedAt)
	return nil
}
