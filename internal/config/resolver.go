package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the configuration file looked up by ResolvePath.
const FileName = "cronox.yaml"

// ResolvePath returns explicit when set, otherwise the first existing file
// among $XDG_CONFIG_HOME/cronox/cronox.yaml (or ~/.config/cronox/cronox.yaml),
// /etc/cronox/cronox.yaml and ./cronox.yaml.
func ResolvePath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	var candidates []string
	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "cronox", FileName))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "cronox", FileName))
	}
	candidates = append(candidates, filepath.Join("/etc", "cronox", FileName), FileName)

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("config: no configuration file found (searched: %v)", candidates)
}
