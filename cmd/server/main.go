package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tillpoint/internal/bootstrap"
	"tillpoint/internal/config"
	"tillpoint/internal/domain"
	"tillpoint/internal/httpapi"
	"tillpoint/internal/observability"
	"tillpoint/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := bootstrap.NewLogger(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := validateSecurityConfig(cfg); err != nil {
		logger.Error("invalid security configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	repo, err := bootstrap.OpenRepository(startCtx, cfg, logger)
	if err != nil {
		return err
	}
	parked, closeParked := bootstrap.OpenParkedSales(startCtx, cfg, logger)
	closers := []func() error{closeParked, repo.Close}

	metrics := observability.NewMetrics()
	svc := service.New(repo, parked, service.Options{
		TaxRate:       &cfg.TaxRate,
		ParkedSaleTTL: cfg.ParkedSaleTTL,
		Logger:        logger,
		Metrics:       metrics,
	})

	auth, err := httpapi.NewAuthManager(cfg.AuthSecret, cfg.AccessTokenTTL,
		httpapi.Account{Username: "admin", Password: cfg.AdminPassword, Role: domain.RoleAdmin},
		httpapi.Account{Username: "cashier", Password: cfg.CashierPassword, Role: domain.RoleCashier},
	)
	if err != nil {
		closeAll(logger, closers)
		return err
	}

	api := httpapi.New(svc, auth, httpapi.Options{
		AllowedOrigin: cfg.AllowedOrigin,
		Metrics:       metrics,
		Logger:        logger,
	})

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("tillpoint listening", "addr", cfg.Address(), "store", cfg.StoreDriver, "tax_rate", svc.TaxRate().String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		closeAll(logger, closers)
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", "error", err)
	}
	closeAll(logger, closers)

	logger.Info("server stopped")
	return nil
}

func closeAll(logger *slog.Logger, closers []func() error) {
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Warn("close error", "error", err)
		}
	}
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD must be set")
	}
	if err := validatePasswordStrength(cfg.AdminPassword); err != nil {
		return fmt.Errorf("ADMIN_PASSWORD is too weak: %w", err)
	}
	// A blank cashier password simply disables that login.
	if cfg.CashierPassword != "" {
		if err := validatePasswordStrength(cfg.CashierPassword); err != nil {
			return fmt.Errorf("CASHIER_PASSWORD is too weak: %w", err)
		}
	}
	return nil
}

// validatePasswordStrength rejects short passwords, passwords made of one
// repeated character, and a small list of well-known weak values.
func validatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("must be at least 8 characters")
	}

	known := map[string]bool{
		"password": true, "password1": true, "12345678": true, "123456789": true,
		"qwertyui": true, "qwerty123": true, "admin123": true, "cashier1": true,
		"letmein1": true, "11111111": true, "00000000": true, "abcdefgh": true,
	}
	if known[strings.ToLower(password)] {
		return fmt.Errorf("common password not allowed")
	}

	allSame := true
	for i := 1; i < len(password); i++ {
		if password[i] != password[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return fmt.Errorf("single repeated character not allowed")
	}

	// Ascending or descending runs such as 12345678 or hgfedcba.
	ascending, descending := true, true
	for i := 1; i < len(password); i++ {
		diff := int(password[i]) - int(password[i-1])
		if diff != 1 {
			ascending = false
		}
		if diff != -1 {
			descending = false
		}
	}
	if ascending || descending {
		return fmt.Errorf("sequential password not allowed")
	}

	return nil
}
