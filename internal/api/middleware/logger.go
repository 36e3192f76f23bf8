package middleware

import (
	"fmt"
	"time"

	"catalogsync/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapio"
)

// Logger writes one access line per request through the application logger.
func Logger(logger *logger.Logger, skipPaths ...string) gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    &zapio.Writer{Log: logger.Zap().WithOptions(zap.WithCaller(false)), Level: zap.InfoLevel},
		SkipPaths: skipPaths,
		Formatter: func(param gin.LogFormatterParams) string {
			line := fmt.Sprintf("%s %s %d %s %s",
				param.Method,
				param.Path,
				param.StatusCode,
				param.Latency.Round(time.Microsecond),
				param.ClientIP,
			)
			if param.ErrorMessage != "" {
				line += " " + param.ErrorMessage
			}
			return line + "\n"
		},
	})
}
