package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	identityapp "github.com/datadik/portal/internal/application/identity"
	"github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/infrastructure/auth"
	"github.com/datadik/portal/internal/infrastructure/config"
	"github.com/datadik/portal/internal/infrastructure/logger"
	"github.com/datadik/portal/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

func main() {
	var (
		loginID  string
		fullName string
		password string
		logLevel string
	)

	flag.StringVar(&loginID, "npsn", "", "Numeric login ID entered in the NPSN field (required)")
	flag.StringVar(&fullName, "name", "Admin Kecamatan", "Display name")
	flag.StringVar(&password, "password", "", "Initial password (default: $ADMIN_PASSWORD)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	if password == "" {
		password = os.Getenv("ADMIN_PASSWORD")
	}
	if loginID == "" || password == "" {
		fmt.Fprintln(os.Stderr, "Usage: create-admin -npsn <login> [-name <name>] [-password <password>]")
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	users := identityapp.NewUserService(
		persistence.NewGormProfileRepository(db.DB),
		auth.NewInMemoryTokenBlacklist(),
		cfg.JWT.RefreshTokenExpiration,
		log,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	info, err := users.Create(ctx, identityapp.CreateUserInput{
		NPSN:     loginID,
		FullName: fullName,
		Role:     identity.RoleDistrictAdmin,
		Password: password,
	})
	if err != nil {
		log.Fatal("Failed to create admin", zap.Error(err))
	}

	log.Info("Admin account created",
		zap.String("id", info.ID.String()),
		zap.String("email", info.Email),
		zap.String("role", string(info.Role)),
	)
}
