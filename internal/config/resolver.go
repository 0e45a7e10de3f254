package config

import (
	"os"
	"path/filepath"
)

// FileName is the configuration file name looked up by ResolvePath.
const FileName = "chatloop.yaml"

// ResolvePath searches for a config file in standard locations and returns
// the first that exists, or "" when there is none.
// Search order: $XDG_CONFIG_HOME/chatloop/chatloop.yaml → ~/.config/chatloop/chatloop.yaml → ./chatloop.yaml
func ResolvePath() string {
	for _, path := range candidatePaths() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func candidatePaths() []string {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "chatloop", FileName))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "chatloop", FileName))
	}

	return append(candidates, FileName)
}
