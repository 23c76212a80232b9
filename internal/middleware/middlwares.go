package middleware

import (
	"net/http"
	"time"

	"github.com/amankumarsingh77/cloud-video-converter/internal/config"
	"github.com/amankumarsingh77/cloud-video-converter/pkg/logger"
	"github.com/amankumarsingh77/cloud-video-converter/pkg/secrets"
	"github.com/amankumarsingh77/cloud-video-converter/pkg/utils"
	"github.com/labstack/echo/v4"
)

type MiddlewareManager struct {
	cfg     *config.Config
	secrets *secrets.Cache
	origins []string
	logger  logger.Logger
	cpuFn   func(maxCPUUsage float64) (bool, float64)
}

// Middleware manager constructor
func NewMiddlewareManager(cfg *config.Config, secretCache *secrets.Cache, origins []string, logger logger.Logger) *MiddlewareManager {
	return &MiddlewareManager{
		cfg:     cfg,
		secrets: secretCache,
		origins: origins,
		logger:  logger,
		cpuFn:   utils.CheckCPUUsage,
	}
}

func (mw *MiddlewareManager) Origins() []string {
	return mw.origins
}

// RequestLoggerMiddleware logs every request once it has been served.
func (mw *MiddlewareManager) RequestLoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		req := c.Request()
		res := c.Response()
		mw.logger.Infof("RequestID: %s, Method: %s, URI: %s, Status: %v, Owner: %s, IP: %s, Time: %s",
			utils.GetRequestID(c),
			req.Method,
			req.URL.String(),
			res.Status,
			ownerFromContext(c),
			utils.GetIPAddress(c),
			time.Since(start),
		)
		return err
	}
}

// CPUGuardMiddleware refuses new work while CPU usage is above the configured limit.
func (mw *MiddlewareManager) CPUGuardMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, usage := mw.cpuFn(mw.cfg.Worker.MaxCPUUsage)
			if !ok {
				mw.logger.Warnf("CPU guard RequestID: %s, usage %.1f%% above limit %.1f%%",
					utils.GetRequestID(c), usage, mw.cfg.Worker.MaxCPUUsage)
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Server busy, try again later"})
			}
			return next(c)
		}
	}
}
