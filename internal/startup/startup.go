package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"video-platform/internal/logging"
	"video-platform/internal/mediatypes"
	"video-platform/internal/memory"
	"video-platform/internal/middleware"
	"video-platform/internal/workers"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// View ledger backends.
const (
	LedgerSQLite   = "sqlite"
	LedgerRedis    = "redis"
	LedgerDynamoDB = "dynamodb"
)

// Thumbnail store backends.
const (
	StoreFS = "fs"
	StoreS3 = "s3"
)

// maxTranscodeWorkers caps the automatic pool size; ffmpeg already uses
// several threads per job.
const maxTranscodeWorkers = 4

// Config holds all application configuration
type Config struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	LogHealthChecks bool

	DataDir      string
	UploadDir    string
	DatabasePath string

	ViewCooldown      time.Duration
	ViewRetention     time.Duration
	ViewSweepInterval time.Duration
	ViewLedger        string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	DynamoDBTable     string
	FingerprintKey    string
	// TrustedProxies may set X-Forwarded-For; nil trusts no proxy.
	TrustedProxies *middleware.TrustedProxies

	ThumbnailStore string
	S3Bucket       string
	NATSURL        string

	TranscodeWait     bool
	TranscodeWorkers  int
	TranscodeTimeout  time.Duration
	MaxVideoBytes     int64
	MaxThumbnailBytes int64
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		MetricsPort:       getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:    getEnvBool("METRICS_ENABLED", true),
		LogHealthChecks:   getEnvBool("LOG_HEALTH_CHECKS", true),
		DataDir:           getEnv("DATA_DIR", "/data"),
		UploadDir:         getEnv("UPLOAD_DIR", "/uploads"),
		ViewCooldown:      getEnvDuration("VIEW_COOLDOWN", time.Hour),
		ViewRetention:     getEnvDuration("VIEW_RETENTION", 24*time.Hour),
		ViewSweepInterval: getEnvDuration("VIEW_SWEEP_INTERVAL", time.Hour),
		ViewLedger:        strings.ToLower(getEnv("VIEW_LEDGER", LedgerSQLite)),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		DynamoDBTable:     os.Getenv("DYNAMODB_TABLE"),
		FingerprintKey:    os.Getenv("FINGERPRINT_KEY"),
		ThumbnailStore:    strings.ToLower(getEnv("THUMBNAIL_STORE", StoreFS)),
		S3Bucket:          os.Getenv("S3_BUCKET"),
		NATSURL:           os.Getenv("NATS_URL"),
		TranscodeWait:     getEnvBool("TRANSCODE_WAIT", true),
		TranscodeWorkers:  workers.ForCPU(maxTranscodeWorkers),
		TranscodeTimeout:  getEnvDuration("TRANSCODE_TIMEOUT", 30*time.Minute),
		MaxVideoBytes:     getEnvInt64("MAX_VIDEO_BYTES", mediatypes.MaxVideoBytes),
		MaxThumbnailBytes: getEnvInt64("MAX_THUMBNAIL_BYTES", mediatypes.MaxThumbnailBytes),
	}

	logging.Info("  PORT:                %s", cfg.Port)
	logging.Info("  METRICS_PORT:        %s", cfg.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", cfg.MetricsEnabled)
	logging.Info("  DATA_DIR:            %s", cfg.DataDir)
	logging.Info("  UPLOAD_DIR:          %s", cfg.UploadDir)
	logging.Info("  VIEW_COOLDOWN:       %v", cfg.ViewCooldown)
	logging.Info("  VIEW_RETENTION:      %v", cfg.ViewRetention)
	logging.Info("  VIEW_SWEEP_INTERVAL: %v", cfg.ViewSweepInterval)
	logging.Info("  VIEW_LEDGER:         %s", cfg.ViewLedger)
	logging.Info("  FINGERPRINT_KEY:     %s", setString(cfg.FingerprintKey))
	logging.Info("  THUMBNAIL_STORE:     %s", cfg.ThumbnailStore)
	logging.Info("  NATS_URL:            %s", orNone(cfg.NATSURL))
	logging.Info("  TRANSCODE_WAIT:      %v", cfg.TranscodeWait)
	logging.Info("  TRANSCODE_WORKERS:   %d", cfg.TranscodeWorkers)
	logging.Info("  TRANSCODE_TIMEOUT:   %v", cfg.TranscodeTimeout)
	logging.Info("  MAX_VIDEO_BYTES:     %s", formatBytes(cfg.MaxVideoBytes))
	logging.Info("  MAX_THUMBNAIL_BYTES: %s", formatBytes(cfg.MaxThumbnailBytes))
	logging.Info("  LOG_HEALTH_CHECKS:   %v", cfg.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	proxies, err := middleware.ParseTrustedProxies(os.Getenv("TRUSTED_PROXIES"))
	if err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	cfg.TrustedProxies = proxies
	logging.Info("  TRUSTED_PROXIES:     %s", cfg.TrustedProxies)

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	if cfg.DataDir, err = filepath.Abs(cfg.DataDir); err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if cfg.UploadDir, err = filepath.Abs(cfg.UploadDir); err != nil {
		return nil, fmt.Errorf("failed to resolve upload directory path: %w", err)
	}
	cfg.DatabasePath = filepath.Join(cfg.DataDir, "video-platform.db")
	logging.Info("  Data directory (absolute):   %s", cfg.DataDir)
	logging.Info("  Upload directory (absolute): %s", cfg.UploadDir)

	for _, dir := range []struct{ path, name string }{
		{cfg.DataDir, "data"},
		{cfg.UploadDir, "upload"},
	} {
		if err := ensureDirectory(dir.path, dir.name); err != nil {
			return nil, fmt.Errorf("%s directory error: %w", dir.name, err)
		}
		logging.Debug("  Testing %s directory write access...", dir.name)
		if err := testWriteAccess(dir.path); err != nil {
			return nil, fmt.Errorf("%s directory is not writable: %w", dir.name, err)
		}
		logging.Info("  [OK] %s directory is writable", dir.name)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.ViewLedger {
	case LedgerSQLite, LedgerRedis:
	case LedgerDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("VIEW_LEDGER=dynamodb requires DYNAMODB_TABLE")
		}
	default:
		return fmt.Errorf("unknown VIEW_LEDGER %q (want sqlite, redis or dynamodb)", c.ViewLedger)
	}

	switch c.ThumbnailStore {
	case StoreFS:
	case StoreS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("THUMBNAIL_STORE=s3 requires S3_BUCKET")
		}
	default:
		return fmt.Errorf("unknown THUMBNAIL_STORE %q (want fs or s3)", c.ThumbnailStore)
	}

	if c.ViewRetention < c.ViewCooldown {
		return fmt.Errorf("VIEW_RETENTION (%v) must not be shorter than VIEW_COOLDOWN (%v)", c.ViewRetention, c.ViewCooldown)
	}
	return nil
}

// LogMemoryConfig logs the outcome of GOMEMLIMIT configuration.
func LogMemoryConfig(result memory.ConfigResult) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("MEMORY CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	if !result.Configured {
		logging.Info("  GOMEMLIMIT: not configured (set MEMORY_LIMIT to enable)")
		return
	}
	logging.Info("  Source:     %s", result.Source)
	logging.Info("  GOMEMLIMIT: %s", formatBytes(result.GoMemLimit))
	if result.ContainerLimit > 0 {
		logging.Info("  Container:  %s (ratio %.2f)", formatBytes(result.ContainerLimit), result.Ratio)
	}
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogTranscoderInit logs transcoder initialization and checks FFmpeg
func LogTranscoderInit(workerCount int, timeout time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("TRANSCODER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Workers: %d, timeout: %v", workerCount, timeout)

	if err := checkFFmpeg(); err != nil {
		logging.Warn("  FFmpeg check failed: %v", err)
		logging.Warn("  Uploads will be marked failed and served untranscoded")
		return
	}
	logging.Info("  [OK] FFmpeg is available")
}

// LogViewAccountingInit logs the view accounting setup.
func LogViewAccountingInit(ledger string, cooldown, retention, sweep time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("VIEW ACCOUNTING")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Ledger:    %s", ledger)
	logging.Info("  Cooldown:  %v (in-memory, swept every %v)", cooldown, sweep)
	logging.Info("  Retention: %v (durable)", retention)
}

// LogComponentInit logs an optional component's state.
func LogComponentInit(name, detail string, err error) {
	if err != nil {
		logging.Warn("  %s: %s unavailable: %v", name, detail, err)
		return
	}
	logging.Info("  [OK] %s: %s", name, detail)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes, grouped by prefix, at debug level.
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group == "" {
				group = "root"
			}
			logging.Debug("  [%s]", group)
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
		}
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")
	first, rest, _ := strings.Cut(path, "/")

	if first == "api" && rest != "" {
		sub, _, _ := strings.Cut(rest, "/")
		return "api/" + sub
	}
	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://0.0.0.0:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
 _   ___     __           ___  __     __
| | / (_)__/ /__ ___    / _ \/ /__ _/ /_
| |/ / / _  / -_) _ \  / ___/ / _ '/ __/
|___/_/\_,_/\__/\___/ /_/  /_/\_,_/\__/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func checkFFmpeg() error {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return fmt.Errorf("ffmpeg not found in PATH")
	}
	logging.Debug("  FFmpeg path: %s", path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get ffmpeg version: %w", err)
	}

	first, _, _ := strings.Cut(string(output), "\n")
	logging.Debug("  FFmpeg version: %s", strings.TrimSpace(first))
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		logging.Warn("  Invalid %s %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid size for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func setString(s string) string {
	if s == "" {
		return "(not set)"
	}
	return "(set)"
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

// formatBytes formats a byte count using binary units.
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
