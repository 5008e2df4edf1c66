// file: internals/middlewares/logger/logger.go
package logger

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	helper "sekolahku_backend/internals/helpers"
)

// Init menyiapkan logrus global: JSON di produksi, teks saat dev.
func Init() {
	if os.Getenv("APP_ENV") == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logrus.SetOutput(os.Stdout)
}

// LoggerMiddleware mencatat semua request dengan field terstruktur.
func LoggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		// ErrorHandler baru jalan setelah middleware selesai, jadi status
		// untuk request yang error harus dipetakan sendiri di sini.
		status := c.Response().StatusCode()
		if err != nil {
			status = helper.StatusFromError(err)
		}
		logrus.WithFields(logrus.Fields{
			"reqid":   c.Locals("reqid"),
			"ip":      c.IP(),
			"method":  c.Method(),
			"path":    c.OriginalURL(),
			"status":  status,
			"latency": time.Since(start).String(),
		}).Info("request selesai")
		return err
	}
}
