package config

import (
	"fmt"
)

// Profiles lists the names accepted by ApplyProfile.
var Profiles = []string{"quick", "standard", "thorough", "nsa"}

// ApplyProfile overwrites the wipe section with a preset.
func ApplyProfile(cfg *Config, profile string) error {
	switch profile {
	case "quick":
		cfg.Wipe.Mode = "standard"
		cfg.Wipe.Passes = 1
		cfg.Wipe.ChunkSize = 16 * 1024 * 1024 // 16MB
		cfg.Wipe.MaxSpeedMBps = 0
	case "standard":
		cfg.Wipe.Mode = "standard"
		cfg.Wipe.Passes = 3
		cfg.Wipe.ChunkSize = 4 * 1024 * 1024 // 4MB
	case "thorough":
		cfg.Wipe.Mode = "standard"
		cfg.Wipe.Passes = 7
		cfg.Wipe.ChunkSize = 4 * 1024 * 1024 // 4MB
		cfg.Wipe.ObscureNames = true
	case "nsa":
		cfg.Wipe.Mode = "nsa"
		cfg.Wipe.ChunkSize = 4 * 1024 * 1024 // 4MB
		cfg.Wipe.ObscureNames = true
	default:
		return fmt.Errorf("unknown profile: %s", profile)
	}
	return nil
}
