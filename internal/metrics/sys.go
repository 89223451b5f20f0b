package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

var startedAt = time.Now()

// SysHealth is the report served by the health endpoint.
type SysHealth struct {
	Status         string `json:"status"`
	Uptime         string `json:"uptime"`
	AllocMB        uint64 `json:"allocMB"`
	SysMB          uint64 `json:"sysMB"`
	NumGC          uint32 `json:"numGC"`
	Goroutines     int    `json:"goroutines"`
	ActiveSessions int    `json:"activeSessions"`
	DataDiskSize   string `json:"dataDiskSize"`
	ModelReady     bool   `json:"modelReady"`
}

// GetSysHealth collects real-time health data. dataPath is the directory
// holding the metrics database.
func GetSysHealth(dataPath string, activeSessions int, modelReady bool) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	status := "ok"
	if !modelReady {
		status = "degraded"
	}

	return SysHealth{
		Status:         status,
		Uptime:         time.Since(startedAt).Round(time.Second).String(),
		AllocMB:        m.Alloc / 1024 / 1024,
		SysMB:          m.Sys / 1024 / 1024,
		NumGC:          m.NumGC,
		Goroutines:     runtime.NumGoroutine(),
		ActiveSessions: activeSessions,
		DataDiskSize:   formatBytes(dirSize(dataPath)),
		ModelReady:     modelReady,
	}
}

func dirSize(path string) int64 {
	var size int64
	_ = filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size
}

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
