package monitoring

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type StatsFunc func() map[string]interface{}

// Monitor owns request metrics, health checks and extra stats sources, and
// serves them over HTTP.
type Monitor struct {
	metrics *Metrics
	health  *HealthChecker

	mu    sync.RWMutex
	stats map[string]StatsFunc
}

func NewMonitor() *Monitor {
	return &Monitor{
		metrics: NewMetrics(),
		health:  NewHealthChecker(),
		stats:   make(map[string]StatsFunc),
	}
}

func (m *Monitor) Middleware() gin.HandlerFunc {
	return m.metrics.Middleware()
}

func (m *Monitor) RegisterHealthCheck(name string, check HealthCheckFunc) {
	m.health.Register(name, check)
}

// RegisterStats adds a section to the /metrics response.
func (m *Monitor) RegisterStats(name string, fn StatsFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[name] = fn
}

func (m *Monitor) Metrics() MetricsSnapshot {
	return m.metrics.Snapshot()
}

func (m *Monitor) MetricsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response := gin.H{
			"application": m.metrics.Snapshot(),
			"system":      GetSystemMetrics(m.metrics.Uptime()),
			"timestamp":   time.Now().UTC(),
		}

		m.mu.RLock()
		names := make([]string, 0, len(m.stats))
		for name := range m.stats {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			response[name] = m.stats[name]()
		}
		m.mu.RUnlock()

		c.JSON(http.StatusOK, response)
	}
}

func (m *Monitor) HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		checks, healthy := m.health.Run(c.Request.Context())

		overallStatus := StatusHealthy
		status := http.StatusOK
		if !healthy {
			overallStatus = StatusUnhealthy
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"status":    overallStatus,
			"timestamp": time.Now().UTC(),
			"checks":    checks,
			"uptime":    m.metrics.Uptime().Round(time.Second).String(),
		})
	}
}

func (m *Monitor) ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, healthy := m.health.Run(c.Request.Context()); !healthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "not ready",
				"timestamp": time.Now().UTC(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
		})
	}
}

func (m *Monitor) LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"timestamp": time.Now().UTC(),
			"uptime":    m.metrics.Uptime().Round(time.Second).String(),
		})
	}
}

// RegisterRoutes mounts /health, /health/ready, /health/live and /metrics.
func (m *Monitor) RegisterRoutes(router gin.IRouter) {
	router.GET("/health", m.HealthHandler())
	router.GET("/health/ready", m.ReadinessHandler())
	router.GET("/health/live", m.LivenessHandler())
	router.GET("/metrics", m.MetricsHandler())
}
