package daemon

import (
	"fmt"
	"net"
	"strings"

	"satchel/internal/config"
)

// ValidateListenAddress enforces secure-by-default binding.
// Remote/non-loopback listeners require explicit opt-in.
func ValidateListenAddress(addr string, allowRemote bool) (string, error) {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		trimmed = config.DefaultListen
	}

	host, _, err := net.SplitHostPort(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid listen address %q: %w", trimmed, err)
	}

	if allowRemote {
		return trimmed, nil
	}

	if strings.EqualFold(host, "localhost") {
		return trimmed, nil
	}

	ip := net.ParseIP(host)
	if ip == nil || !ip.IsLoopback() {
		return "", fmt.Errorf("listen address %q is not loopback; pass --allow-remote to permit remote listeners", trimmed)
	}
	return trimmed, nil
}
