// internal/http/routes.go
package httpx

import (
	"errors"
	"net/http"
	"os"
	"runtime"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/sgonzalezm/cam-stream/api/internal"
	"github.com/sgonzalezm/cam-stream/api/internal/indexer"
	"github.com/sgonzalezm/cam-stream/api/internal/query"
)

const maxDebugSamples = 5

// Deps bundles what the handlers need. The HTTP layer stays thin: parse
// params, call the query engine, map errors to statuses.
type Deps struct {
	Engine  *query.Engine
	Scanner *indexer.Scanner
	Monitor *internal.ArchiveMonitor
}

func Routes(r *gin.Engine, deps Deps) {
	r.GET("/api/videos/recent", func(c *gin.Context) {
		hours, _ := strconv.Atoi(c.DefaultQuery("hours", "0"))
		camera := c.Query("camera")

		videos, err := deps.Engine.Recent(hours, camera)
		if err != nil {
			writeQueryError(c, err)
			return
		}
		c.JSON(http.StatusOK, videos)
	})

	r.GET("/api/videos/dates", func(c *gin.Context) {
		dates, err := deps.Engine.DatesByCamera(c.Query("camera"))
		if err != nil {
			writeQueryError(c, err)
			return
		}
		c.JSON(http.StatusOK, dates)
	})

	r.GET("/api/videos/by-date", func(c *gin.Context) {
		date := c.Query("date")
		if date == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date parameter is required"})
			return
		}

		videos, err := deps.Engine.ByDate(date, c.Query("camera"))
		if err != nil {
			if errors.Is(err, query.ErrInvalidDate) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
				return
			}
			writeQueryError(c, err)
			return
		}
		c.JSON(http.StatusOK, videos)
	})

	r.GET("/api/cameras", func(c *gin.Context) {
		cameras, err := deps.Engine.Cameras()
		if err != nil {
			writeQueryError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"cameras": cameras})
	})

	r.GET("/api/stream/:id", func(c *gin.Context) {
		path, err := deps.Engine.ResolvePhysicalPath(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
			return
		}

		c.Header("Cache-Control", "public, max-age=3600")
		c.Header("Accept-Ranges", "bytes")
		ServeFileRange(c.Writer, c.Request, path)
	})

	r.GET("/api/download/:id", func(c *gin.Context) {
		id := c.Param("id")
		path, err := deps.Engine.ResolvePhysicalPath(id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
			return
		}

		// Hand the browser the original base name, not the opaque id.
		_, filename, err := indexer.DecodeID(id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
			return
		}
		c.FileAttachment(path, filename)
	})

	// Diagnostics: distinguishes an empty archive from a misconfigured root.
	r.GET("/api/debug", func(c *gin.Context) {
		root := deps.Scanner.Root()
		_, statErr := os.Stat(root)

		info := gin.H{
			"video_root_directory": root,
			"directory_exists":     statErr == nil,
		}

		records, stats, err := deps.Scanner.ScanWithStats()
		if err != nil {
			info["error"] = err.Error()
			c.JSON(http.StatusOK, info)
			return
		}

		samples := make([]gin.H, 0, maxDebugSamples)
		for i, r := range records {
			if i >= maxDebugSamples {
				break
			}
			_, err := os.Stat(r.PhysicalPath)
			samples = append(samples, gin.H{
				"camera_id":        r.CameraID,
				"date":             r.FolderDate,
				"filename":         r.Filename,
				"unique_id":        r.UniqueID,
				"timestamp":        r.ResolvedAt.Format("2006-01-02T15:04:05"),
				"full_path_exists": err == nil,
			})
		}

		info["total_videos"] = stats.Indexed
		info["skipped_entries"] = stats.Skipped
		info["malformed_entries"] = stats.Malformed
		info["sample_videos"] = samples
		c.JSON(http.StatusOK, info)
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/system-metrics", func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		metrics := gin.H{
			"archive_disk":            deps.Monitor.Status(),
			"program_goroutines":      runtime.NumGoroutine(),
			"program_memory_alloc_mb": float64(m.Alloc) / 1024 / 1024,
			"program_memory_sys_mb":   float64(m.Sys) / 1024 / 1024,
			"program_gc_cycles":       m.NumGC,
		}

		if memInfo, err := mem.VirtualMemory(); err == nil {
			metrics["system_memory_total_mb"] = float64(memInfo.Total) / (1024 * 1024)
			metrics["system_memory_available_mb"] = float64(memInfo.Available) / (1024 * 1024)
			metrics["system_memory_percent"] = memInfo.UsedPercent
		} else {
			metrics["system_memory_error"] = err.Error()
		}

		if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
			metrics["system_cpu_percent"] = percents[0]
		}

		c.JSON(http.StatusOK, metrics)
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// writeQueryError maps engine failures: a missing root is a distinct
// condition for operators, never an empty-but-successful result.
func writeQueryError(c *gin.Context, err error) {
	if errors.Is(err, internal.ErrIndexUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "index unavailable: " + err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
