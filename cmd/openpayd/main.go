// openpayd serves the cross-wallet payment orchestration API. Startup is
// sequenced and blocking: the network client must authenticate before the
// listener starts, and authentication failure terminates the process.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	openpay "github.com/vitwit/openpay"
	"github.com/vitwit/openpay/client"
	"github.com/vitwit/openpay/config"
	"github.com/vitwit/openpay/logger"
	"github.com/vitwit/openpay/metrics"
	"github.com/vitwit/openpay/server"
	"github.com/vitwit/openpay/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}

	logg := logger.NewZapLogger(cfg.LogLevel)

	key, err := utils.LoadEd25519PrivateKey(cfg.PrivateKeyPath)
	if err != nil {
		logg.Error("load signing key", map[string]any{"error": err.Error()})
		log.Fatalf("load signing key: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cl, err := client.NewAuthenticated(ctx, client.Config{
		WalletAddressURL: cfg.WalletAddressURL,
		KeyID:            cfg.KeyID,
		PrivateKey:       key,
		Timeout:          cfg.RequestTimeout,
		Logger:           logg,
	})
	if err != nil {
		logg.Error("authenticate payment network client", map[string]any{"error": err.Error()})
		log.Fatalf("authenticate payment network client: %v", err)
	}

	pay := openpay.New(cl,
		openpay.WithLogger(logg),
		openpay.WithMetrics(metrics.NewPrometheusRecorder()),
		openpay.WithTimeout(cfg.RequestTimeout),
	)

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(pay, server.Config{
		Port:          cfg.Port,
		AllowedOrigin: cfg.AllowedOrigin,
	}, logg)

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
