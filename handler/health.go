package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"syscall"
	"time"

	"github.com/horo42/saferpay/infra/config"
	"github.com/horo42/saferpay/infra/response"
	"github.com/horo42/saferpay/provider"
)

const healthErrorRateLimit = 10.0

// ProviderConfigReader reports which providers have a configuration. *config.ProviderConfig implements it.
type ProviderConfigReader interface {
	GetConfig(providerName string) (map[string]string, error)
}

// HealthHandler handles health check requests
type HealthHandler struct {
	registry       *provider.ProviderRegistry
	providerConfig ProviderConfigReader
	paymentService *provider.PaymentService
	logs           LogStore
	startTime      time.Time
}

// HealthStatus represents overall system health
type HealthStatus struct {
	Status      string                         `json:"status"`
	Version     string                         `json:"version"`
	Timestamp   time.Time                      `json:"timestamp"`
	Uptime      string                         `json:"uptime"`
	Environment string                         `json:"environment"`
	Providers   map[string]*ProviderHealth     `json:"providers"`
	System      *SystemHealth                  `json:"system"`
	Services    map[string]*ServiceHealth      `json:"services"`
	Caches      map[string]provider.CacheStats `json:"caches"`
}

// ProviderHealth represents payment provider health
type ProviderHealth struct {
	Status     string  `json:"status"`
	Available  bool    `json:"available"`
	Configured bool    `json:"configured"`
	LastCheck  string  `json:"last_check"`
	Requests   int     `json:"requests_24h"`
	ErrorRate  float64 `json:"error_rate,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// SystemHealth represents system resource health
type SystemHealth struct {
	Memory     *MemoryHealth `json:"memory"`
	Disk       *DiskHealth   `json:"disk"`
	GoRoutines int           `json:"goroutines"`
	CGoCalls   int64         `json:"cgo_calls"`
}

// MemoryHealth represents memory usage
type MemoryHealth struct {
	Alloc        string  `json:"alloc"`
	TotalAlloc   string  `json:"total_alloc"`
	Sys          string  `json:"sys"`
	GCRuns       uint32  `json:"gc_runs"`
	UsagePercent float64 `json:"usage_percent"`
}

// DiskHealth represents disk usage
type DiskHealth struct {
	Available    string  `json:"available"`
	Used         string  `json:"used"`
	Total        string  `json:"total"`
	UsagePercent float64 `json:"usage_percent"`
	Status       string  `json:"status"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status      string `json:"status"`
	Healthy     bool   `json:"healthy"`
	LastCheck   string `json:"last_check"`
	Description string `json:"description,omitempty"`
	Error       string `json:"error,omitempty"`
}

// NewHealthHandler creates a new health handler. A nil registry means provider.DefaultRegistry,
// a nil log store skips error rates.
func NewHealthHandler(registry *provider.ProviderRegistry, providerConfig ProviderConfigReader, paymentService *provider.PaymentService, logs LogStore) *HealthHandler {
	if registry == nil {
		registry = provider.DefaultRegistry
	}
	return &HealthHandler{
		registry:       registry,
		providerConfig: providerConfig,
		paymentService: paymentService,
		logs:           logs,
		startTime:      time.Now(),
	}
}

// CheckHealth performs comprehensive health checks
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	health := &HealthStatus{
		Version:     "1.0.0",
		Timestamp:   time.Now().UTC(),
		Uptime:      time.Since(h.startTime).String(),
		Environment: getEnvironment(),
		Providers:   h.checkProvidersHealth(ctx),
		System:      h.checkSystemHealth(),
		Services:    h.checkServicesHealth(),
		Caches:      h.cacheStats(),
	}

	health.Status = h.determineOverallStatus(health)

	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	_ = response.WriteJSON(w, statusCode, response.Response{
		Code:    statusCode,
		Success: health.Status != "unhealthy",
		Message: fmt.Sprintf("Service is %s", health.Status),
		Data:    health,
	})
}

func (h *HealthHandler) checkProvidersHealth(ctx context.Context) map[string]*ProviderHealth {
	providers := make(map[string]*ProviderHealth)

	for _, providerName := range h.registry.GetProviderNames() {
		providers[providerName] = h.checkSingleProviderHealth(ctx, providerName)
	}

	return providers
}

// checkSingleProviderHealth marks a registered provider degraded when more than
// healthErrorRateLimit percent of its logged gateway calls of the last day failed
func (h *HealthHandler) checkSingleProviderHealth(ctx context.Context, providerName string) *ProviderHealth {
	health := &ProviderHealth{
		Status:    "healthy",
		Available: true,
		LastCheck: time.Now().UTC().Format(time.RFC3339),
	}

	if h.providerConfig != nil {
		_, err := h.providerConfig.GetConfig(providerName)
		health.Configured = err == nil
	}
	if !health.Configured {
		health.Status = "not_configured"
		return health
	}

	if h.logs == nil {
		return health
	}

	logs, err := h.logs.SearchLogs(ctx, providerName, logFilters{Hours: 24}.query())
	if err != nil {
		health.Error = err.Error()
		return health
	}

	errorCount := 0
	for _, stats := range summarize(logs) {
		health.Requests += stats.Total
		errorCount += stats.Errors
	}
	if health.Requests > 0 {
		health.ErrorRate = float64(errorCount) / float64(health.Requests) * 100
		if health.ErrorRate > healthErrorRateLimit {
			health.Status = "degraded"
		}
	}

	return health
}

// checkSystemHealth checks system resource health
func (h *HealthHandler) checkSystemHealth() *SystemHealth {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	diskHealth := h.getDiskUsage()

	return &SystemHealth{
		Memory: &MemoryHealth{
			Alloc:        formatBytes(memStats.Alloc),
			TotalAlloc:   formatBytes(memStats.TotalAlloc),
			Sys:          formatBytes(memStats.Sys),
			GCRuns:       memStats.NumGC,
			UsagePercent: calculateMemoryUsagePercent(memStats),
		},
		Disk:       diskHealth,
		GoRoutines: runtime.NumGoroutine(),
		CGoCalls:   runtime.NumCgoCall(),
	}
}

func (h *HealthHandler) checkServicesHealth() map[string]*ServiceHealth {
	now := time.Now().UTC().Format(time.RFC3339)
	services := make(map[string]*ServiceHealth)

	services["gateway_log"] = &ServiceHealth{LastCheck: now}
	if h.logs != nil {
		services["gateway_log"].Status = "healthy"
		services["gateway_log"].Healthy = true
		services["gateway_log"].Description = "Gateway call logging to OpenSearch"
	} else {
		services["gateway_log"].Status = "not_configured"
		services["gateway_log"].Description = "OpenSearch logging not configured"
	}

	services["payment_service"] = &ServiceHealth{LastCheck: now}
	if h.paymentService != nil {
		services["payment_service"].Status = "healthy"
		services["payment_service"].Healthy = true
		services["payment_service"].Description = "Payment processing service"
	} else {
		services["payment_service"].Status = "unhealthy"
		services["payment_service"].Error = "Payment service not initialized"
	}

	services["provider_config"] = &ServiceHealth{LastCheck: now}
	if h.providerConfig != nil {
		services["provider_config"].Status = "healthy"
		services["provider_config"].Healthy = true
		services["provider_config"].Description = "Payment provider configuration service"
	} else {
		services["provider_config"].Status = "unhealthy"
		services["provider_config"].Error = "Provider config service not initialized"
	}

	return services
}

func (h *HealthHandler) cacheStats() map[string]provider.CacheStats {
	caches := map[string]provider.CacheStats{
		"condition_patterns": provider.PatternCacheStats(),
	}
	if h.paymentService != nil {
		caches["gateway_clients"] = h.paymentService.CacheStats()
	}
	return caches
}

// determineOverallStatus determines overall system status
func (h *HealthHandler) determineOverallStatus(health *HealthStatus) string {
	for _, serviceName := range []string{"payment_service", "provider_config"} {
		if service, exists := health.Services[serviceName]; exists && !service.Healthy {
			return "unhealthy"
		}
	}

	configured, degraded := 0, 0
	for _, p := range health.Providers {
		if !p.Configured {
			continue
		}
		configured++
		if p.Status == "degraded" {
			degraded++
		}
	}

	if configured == 0 {
		return "degraded"
	}
	if degraded == configured {
		return "degraded"
	}

	if health.System != nil {
		if health.System.Memory != nil && health.System.Memory.UsagePercent > 90 {
			return "degraded"
		}
		if health.System.Disk != nil && health.System.Disk.UsagePercent > 90 {
			return "degraded"
		}
	}

	return "healthy"
}

func getEnvironment() string {
	return config.GetAppConfig().Environment
}

func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func calculateMemoryUsagePercent(memStats runtime.MemStats) float64 {
	return (float64(memStats.Alloc) / float64(memStats.Sys)) * 100
}

func (h *HealthHandler) getDiskUsage() *DiskHealth {
	var stat syscall.Statfs_t
	wd := "/"

	disk := &DiskHealth{
		Status: "unknown",
	}

	if err := syscall.Statfs(wd, &stat); err != nil {
		disk.Status = "error"
		return disk
	}

	available := stat.Bavail * uint64(stat.Bsize)
	total := stat.Blocks * uint64(stat.Bsize)
	used := total - (stat.Bfree * uint64(stat.Bsize))

	disk.Available = formatBytes(available)
	disk.Total = formatBytes(total)
	disk.Used = formatBytes(used)
	disk.UsagePercent = (float64(used) / float64(total)) * 100

	if disk.UsagePercent > 90 {
		disk.Status = "critical"
	} else if disk.UsagePercent > 80 {
		disk.Status = "warning"
	} else {
		disk.Status = "healthy"
	}

	return disk
}
