package system

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

// Mount describes the filesystem holding a path.
type Mount struct {
	MountPoint string
	Device     string
	Fstype     string
}

// FilesystemType returns the filesystem type of the mount holding path, or
// "Unknown" when it cannot be determined.
func FilesystemType(path string) string {
	partitions, err := disk.Partitions(true)
	if err != nil {
		return "Unknown"
	}
	m, err := mountFor(path, partitions)
	if err != nil || m.Fstype == "" {
		return "Unknown"
	}
	return m.Fstype
}

// mountFor picks the partition with the longest mount point containing path.
func mountFor(path string, partitions []disk.PartitionStat) (Mount, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		if _, statErr := os.Stat(path); statErr != nil {
			return Mount{}, fmt.Errorf("path does not exist: %s: %w", path, err)
		}
		resolved = path
	}
	if abs, err := filepath.Abs(resolved); err == nil {
		resolved = abs
	}

	var best disk.PartitionStat
	bestLen := 0
	for _, p := range partitions {
		mp := p.Mountpoint
		if mp == "" || !strings.HasPrefix(resolved, mp) {
			continue
		}
		if resolved == mp || mp == "/" || strings.HasPrefix(resolved, mp+"/") {
			if len(mp) > bestLen {
				best = p
				bestLen = len(mp)
			}
		}
	}
	if bestLen == 0 {
		return Mount{}, fmt.Errorf("no mount point found for path: %s", path)
	}
	return Mount{MountPoint: best.Mountpoint, Device: best.Device, Fstype: best.Fstype}, nil
}
