package commands

import (
	"database/sql"
	"fmt"

	"github.com/rafaavmsilva/Menu/src/config"
	"github.com/rafaavmsilva/Menu/src/database"
	"github.com/rafaavmsilva/Menu/src/logger"
	"github.com/rafaavmsilva/Menu/src/model"
	"github.com/rafaavmsilva/Menu/src/services"
)

// app is the wired service graph shared by the serve and import commands.
type app struct {
	db      *sql.DB
	store   *model.TransactionStore
	cnpj    *services.CNPJService
	uploads *services.UploadService
}

func newApp(cfg *config.AppConfig) (*app, error) {
	logger.L.Info("Initializing database...", "path", cfg.DatabasePath)
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	if err := database.ResetSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("resetting schema: %w", err)
	}

	store := model.NewTransactionStore(db)
	cnpj := services.NewCNPJService(services.CNPJServiceConfig{
		BaseURL:    cfg.CNPJLookupBaseURL,
		Timeout:    cfg.CNPJLookupTimeout,
		RetryPause: cfg.CNPJRetryPause,
	}, store)
	tracker := services.NewJobTracker(cfg.JobRetention, cfg.JobCleanupInterval)
	uploads := services.NewUploadService(tracker, store, cnpj, cfg.MaxConcurrentJobs)

	return &app{db: db, store: store, cnpj: cnpj, uploads: uploads}, nil
}

// Close waits for running jobs before closing the database.
func (a *app) Close() error {
	a.uploads.Wait()
	return a.db.Close()
}
