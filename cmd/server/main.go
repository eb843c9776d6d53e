package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/kedhead/embPO/internal/config"
	"github.com/kedhead/embPO/internal/db"
	"github.com/kedhead/embPO/internal/mailer"
	"github.com/kedhead/embPO/internal/server"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if os.Getenv("LOG_LEVEL") == "debug" {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg := config.Load()
	dbConn, err := db.ConnectAndMigrate(cfg.DatabaseDSN, log)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	if *migrateOnlyFlag {
		log.Info("migrations completed; exiting as requested")
		return
	}

	settingsPath, err := config.SettingsPath()
	if err != nil {
		log.WithError(err).Fatal("resolve settings path")
	}
	settings := config.LoadSettings(settingsPath)

	var mail mailer.Sender = mailer.Disabled{}
	mailCfg, err := mailer.LoadConfig()
	if err != nil {
		log.WithError(err).Warn("invalid SMTP configuration, email disabled")
	} else if mailCfg.Configured() {
		mail = mailer.NewSMTPSender(mailCfg, log)
	} else {
		log.Info("SMTP not configured, email endpoint will report failure")
	}

	handler := server.New(dbConn, cfg, settings, mail, log)
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: handler}

	go func() {
		log.WithFields(logrus.Fields{"env": cfg.Env, "addr": srv.Addr}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
	log.Info("server gracefully stopped")
}
