// file: internals/configs/config.go
package configs

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			logrus.Warn("tidak menemukan .env file, menggunakan ENV dari sistem")
		} else {
			logrus.Info(".env file berhasil dimuat")
		}
	} else {
		logrus.Info("running in Railway, menggunakan ENV dari sistem")
	}

	for _, key := range []string{"DB_USER", "DB_HOST", "DB_NAME"} {
		if GetEnv(key) == "" {
			logrus.WithField("key", key).Warn("env belum diset")
		}
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}
