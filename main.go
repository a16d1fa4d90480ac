package main

import (
	"bitwise74/otp-api/app"
	"bitwise74/otp-api/config"
	"bitwise74/otp-api/pkg/logger"
	"errors"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	err := config.Setup()
	if err != nil {
		if errors.Is(err, config.ErrNoSecret) {
			os.Exit(0)
		}

		panic(err)
	}

	if err := logger.Setup(viper.GetString("app.log_level")); err != nil {
		panic(err)
	}
	defer zap.L().Sync()

	router, err := app.New()
	if err != nil {
		zap.L().Fatal("Failed to start", zap.Error(err))
	}

	addr := fmt.Sprintf(":%d", viper.GetInt("host.port"))
	zap.L().Info("Server starting", zap.String("addr", addr), zap.String("database", viper.GetString("database.driver")))

	if viper.GetBool("host.ssl.enabled") {
		err = router.RunTLS(addr, viper.GetString("host.ssl.certificate_path"), viper.GetString("host.ssl.certificate_key_path"))
	} else {
		err = router.Run(addr)
	}

	if err != nil {
		zap.L().Fatal("Server stopped", zap.Error(err))
	}
}
