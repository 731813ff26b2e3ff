// main.go
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/sgonzalezm/cam-stream/api/config"
	"github.com/sgonzalezm/cam-stream/api/internal"
	httpx "github.com/sgonzalezm/cam-stream/api/internal/http"
	"github.com/sgonzalezm/cam-stream/api/internal/indexer"
	"github.com/sgonzalezm/cam-stream/api/internal/query"
)

var (
	flagRoot        string
	flagPort        int
	flagExt         string
	flagCameras     []string
	flagRecentHours int
	flagCacheTTL    time.Duration
	flagWatch       bool
	flagLogLevel    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cam-stream",
		Short: "Query and streaming API for a surveillance camera archive",
		Long: `cam-stream indexes a directory tree of camera recordings
(CamX_YYYY-MM-DD/*.mp4) and serves query, streaming and download endpoints.`,
		Run: runServer,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		Run:   runServer,
	}
	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the archive once and print index statistics",
		Run:   runScan,
	}

	for _, cmd := range []*cobra.Command{rootCmd, serveCmd, scanCmd} {
		cmd.Flags().StringVarP(&flagRoot, "root", "r", "", "archive root directory (env CAMSTREAM_ROOT)")
		cmd.Flags().StringVar(&flagExt, "ext", "", "recording file extension, e.g. .mp4")
		cmd.Flags().StringSliceVar(&flagCameras, "cameras", nil, "restrict indexing to these camera ids")
		cmd.Flags().StringVar(&flagLogLevel, "log-level", "", "DEBUG, INFO, WARN, ERROR")
	}
	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().IntVar(&flagPort, "port", 0, "HTTP listen port")
		cmd.Flags().IntVar(&flagRecentHours, "recent-hours", 0, "default window for the recent query")
		cmd.Flags().DurationVar(&flagCacheTTL, "cache-ttl", 0, "scan snapshot lifetime, 0 disables caching")
		cmd.Flags().BoolVar(&flagWatch, "watch", false, "invalidate the snapshot on filesystem events")
	}

	rootCmd.AddCommand(serveCmd, scanCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadConfig merges env config with CLI flag overrides.
func loadConfig() *config.Config {
	cfg := config.Load()
	if flagRoot != "" {
		cfg.RootDir = flagRoot
	}
	if flagExt != "" {
		cfg.VideoExt = flagExt
	}
	if len(flagCameras) > 0 {
		cfg.Cameras = flagCameras
	}
	if flagPort != 0 {
		cfg.Port = flagPort
	}
	if flagRecentHours != 0 {
		cfg.RecentHours = flagRecentHours
	}
	if flagCacheTTL != 0 {
		cfg.CacheTTL = flagCacheTTL
	}
	if flagWatch {
		cfg.WatchEnabled = true
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	return cfg
}

func newScanner(cfg *config.Config, log *internal.Logger) *indexer.Scanner {
	return indexer.New(indexer.Config{
		Root:     cfg.RootDir,
		VideoExt: cfg.VideoExt,
		Cameras:  cfg.Cameras,
		CacheTTL: cfg.CacheTTL,
	}, log)
}

func runServer(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	log := internal.DefaultLogger(cfg.LogLevel)

	log.Info("=== cam-stream starting ===")
	log.Info("archive root: %s, extension: %s, port: %d", cfg.RootDir, cfg.VideoExt, cfg.Port)

	if info, err := os.Stat(cfg.RootDir); err != nil || !info.IsDir() {
		// Warn but keep serving: queries report the index as unavailable,
		// which is more useful to operators than a dead process.
		log.Warn("archive root not accessible: %v", err)
	}

	scanner := newScanner(cfg, log)
	engine := query.New(scanner, cfg.RecentHours)

	if cfg.CacheTTL > 0 && cfg.WatchEnabled {
		watcher, err := indexer.NewWatcher(scanner, log)
		if err != nil {
			log.Fatal("failed to create filesystem watcher: %v", err)
		}
		if err := watcher.Start(); err != nil {
			log.Fatal("failed to start filesystem watcher: %v", err)
		}
		defer watcher.Stop()
	}

	monitor := internal.NewArchiveMonitor(cfg.RootDir, cfg.MonitorInterval,
		cfg.WarningThreshold, cfg.CriticalThreshold, log)
	monitor.Start()

	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()
	r.Use(httpx.MetricsMiddleware())
	r.Use(httpx.CompressionMiddleware())

	httpx.Routes(r, httpx.Deps{
		Engine:  engine,
		Scanner: scanner,
		Monitor: monitor,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Info("HTTP server on %s", addr)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		log.Fatal("server error: %v", err)
	}
}

func runScan(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	log := internal.DefaultLogger(cfg.LogLevel)

	scanner := newScanner(cfg, log)
	records, stats, err := scanner.ScanWithStats()
	if err != nil {
		log.Fatal("scan failed: %v", err)
	}

	cameras := make(map[string]int)
	for _, r := range records {
		cameras[r.CameraID]++
	}

	fmt.Printf("root:      %s\n", cfg.RootDir)
	fmt.Printf("indexed:   %d\n", stats.Indexed)
	fmt.Printf("skipped:   %d\n", stats.Skipped)
	fmt.Printf("malformed: %d\n", stats.Malformed)
	for cam, n := range cameras {
		fmt.Printf("  %s: %d recordings\n", cam, n)
	}
}
