package db

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// Blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kedhead/embPO/internal/models"
)

// ConnectAndMigrate opens the order store and brings the schema up to date.
// The embedded sqlite file is the default deployment (single-user desktop
// backend); a postgres DSN switches drivers and optionally runs versioned
// SQL migrations instead of AutoMigrate.
func ConnectAndMigrate(rawDSN string, log *logrus.Logger) (*gorm.DB, error) {
	dsn := NormalizeDSN(rawDSN)
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is empty, check the environment configuration")
	}

	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var conn *gorm.DB
	var err error
	if IsPostgres(dsn) {
		for i := 0; i < 10; i++ {
			conn, err = gorm.Open(postgres.Open(dsn), cfg)
			if err == nil {
				break
			}
			log.WithError(err).Warn("retrying DB connection")
			time.Sleep(2 * time.Second)
		}
	} else {
		conn, err = gorm.Open(sqlite.Open(dsn), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if pingErr := conn.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	log.WithField("dsn", maskDSN(dsn)).Info("connected to order store")

	// MIGRATIONS=1 runs versioned SQL migrations via golang-migrate (postgres
	// deployments); otherwise AutoMigrate keeps the sqlite file current.
	if v := strings.ToLower(os.Getenv("MIGRATIONS")); (v == "1" || v == "true" || v == "yes") && IsPostgres(dsn) {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		if err := conn.AutoMigrate(&models.PurchaseOrder{}); err != nil {
			return nil, fmt.Errorf("automigrate %T: %w", &models.PurchaseOrder{}, err)
		}
	}
	return conn, nil
}

func runSQLMigrations(dsn string) error {
	src := os.Getenv("MIGRATIONS_PATH")
	if src == "" {
		src = "migrations"
	}
	m, err := migrate.New("file://"+src, dsn)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = m.Close()
	}()
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

var passwordRegex = regexp.MustCompile(`(password=)([^\s]+)`)

func maskDSN(dsn string) string {
	masked := passwordRegex.ReplaceAllString(dsn, `${1}***`)
	if u := strings.Index(masked, "://"); u >= 0 {
		if at := strings.Index(masked, "@"); at > u {
			masked = masked[:u+3] + "***" + masked[at:]
		}
	}
	return masked
}
