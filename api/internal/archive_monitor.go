package internal

import (
	"time"

	"github.com/shirou/gopsutil/v3/disk"
)

// ArchiveMonitor periodically checks free space on the volume holding the
// recordings. Cameras write continuously, so a full disk shows up here long
// before queries start returning stale days.
type ArchiveMonitor struct {
	path              string
	interval          time.Duration
	warningThreshold  float64
	criticalThreshold float64
	cooldown          time.Duration
	lastWarning       time.Time
	lastCritical      time.Time
	log               *Logger
}

func NewArchiveMonitor(path string, interval time.Duration, warning, critical float64, log *Logger) *ArchiveMonitor {
	return &ArchiveMonitor{
		path:              path,
		interval:          interval,
		warningThreshold:  warning,
		criticalThreshold: critical,
		cooldown:          30 * time.Minute,
		log:               log.Component("monitor"),
	}
}

// Start begins the monitoring goroutine.
func (m *ArchiveMonitor) Start() {
	m.log.Info("monitoring archive volume %s every %v", m.path, m.interval)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				m.log.Error("monitor goroutine panicked: %v", r)
			}
		}()

		for {
			m.check()
			time.Sleep(m.interval)
		}
	}()
}

func (m *ArchiveMonitor) check() {
	usage, err := disk.Usage(m.path)
	if err != nil {
		m.log.Error("cannot read disk usage for %s: %v", m.path, err)
		return
	}

	usedPercent := float64(usage.Used) / float64(usage.Total) * 100
	now := time.Now()

	switch {
	case usedPercent >= m.criticalThreshold:
		if now.Sub(m.lastCritical) > m.cooldown {
			m.log.Error("archive volume critically full: %.1f%% used, %.1f GB free",
				usedPercent, float64(usage.Free)/(1024*1024*1024))
			m.lastCritical = now
		}
	case usedPercent >= m.warningThreshold:
		if now.Sub(m.lastWarning) > m.cooldown {
			m.log.Warn("archive volume filling up: %.1f%% used, %.1f GB free",
				usedPercent, float64(usage.Free)/(1024*1024*1024))
			m.lastWarning = now
		}
	}
}

// Status reports current usage of the archive volume for the metrics
// endpoint. Errors are reported in-band so one broken mount does not break
// the whole status response.
func (m *ArchiveMonitor) Status() map[string]interface{} {
	status := map[string]interface{}{
		"path":               m.path,
		"interval":           m.interval.String(),
		"warning_threshold":  m.warningThreshold,
		"critical_threshold": m.criticalThreshold,
	}

	usage, err := disk.Usage(m.path)
	if err != nil {
		status["error"] = err.Error()
		return status
	}

	status["used_percent"] = float64(usage.Used) / float64(usage.Total) * 100
	status["used_gb"] = float64(usage.Used) / (1024 * 1024 * 1024)
	status["free_gb"] = float64(usage.Free) / (1024 * 1024 * 1024)
	status["total_gb"] = float64(usage.Total) / (1024 * 1024 * 1024)
	return status
}
