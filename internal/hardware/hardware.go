// Package hardware profiles the build host (RAM, CPU, disk) and suggests
// deployment constraints from it.
package hardware

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/shayne-snap/quantpole/internal/pick"
)

const gb = 1024 * 1024 * 1024

// Profile holds the detected host specs relevant to running the pipeline and
// sizing its artifacts.
type Profile struct {
	TotalRAMGB     float64 `json:"total_ram_gb"`
	AvailableRAMGB float64 `json:"available_ram_gb"`
	CPUCores       int     `json:"cpu_cores"`
	CPUName        string  `json:"cpu_name"`
	FreeDiskGB     float64 `json:"free_disk_gb"`
}

// Detect returns the current machine's profile.
func Detect() (*Profile, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return nil, fmt.Errorf("mem: %w", err)
	}
	totalRAMGB := float64(v.Total) / float64(gb)
	availableRAMGB := float64(v.Available) / float64(gb)
	if v.Available == 0 && v.Total > 0 {
		availableRAMGB = availableRAMFallback(totalRAMGB)
	}

	infos, _ := cpu.Info()
	cpuName := "Unknown CPU"
	if len(infos) > 0 {
		cpuName = infos[0].ModelName
		if cpuName == "" {
			cpuName = infos[0].VendorID
		}
	}

	freeDiskGB := 0.0
	if u, err := disk.Usage(diskRoot()); err == nil {
		freeDiskGB = float64(u.Free) / float64(gb)
	}

	return &Profile{
		TotalRAMGB:     totalRAMGB,
		AvailableRAMGB: availableRAMGB,
		CPUCores:       runtime.NumCPU(),
		CPUName:        cpuName,
		FreeDiskGB:     freeDiskGB,
	}, nil
}

func diskRoot() string {
	if runtime.GOOS == "windows" {
		return "C:"
	}
	return "/"
}

// availableRAMFallback estimates headroom when the platform does not report
// available memory.
func availableRAMFallback(totalGB float64) float64 {
	if totalGB <= 0 {
		return 0
	}
	return totalGB * 0.6
}

// SuggestConstraints derives deployment thresholds from the profile. The
// standard mobile targets are the ceiling; a cramped host only tightens the
// size budget, never loosens the accuracy floor.
func SuggestConstraints(p *Profile) pick.Constraints {
	cons := pick.DefaultConstraints()
	if p == nil {
		return cons
	}
	ramBudget := p.AvailableRAMGB * 1024 * 0.05
	if ramBudget > 0 && ramBudget < cons.MaxSizeMB {
		cons.MaxSizeMB = ramBudget
	}
	diskBudget := p.FreeDiskGB * 1024 * 0.01
	if diskBudget > 0 && diskBudget < cons.MaxSizeMB {
		cons.MaxSizeMB = diskBudget
	}
	return cons
}
