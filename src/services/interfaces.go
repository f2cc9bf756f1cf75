package services

import (
	"context"
	"errors"

	"github.com/rafaavmsilva/Menu/src/models"
)

var (
	ErrJobNotFound      = errors.New("process ID not found")
	ErrCNPJLookupFailed = errors.New("cnpj lookup failed")
)

// TransactionRepository is the slice of the persistence gateway the services need.
type TransactionRepository interface {
	InsertBatch(ctx context.Context, txs []models.Transaction) (int, error)
	RewriteDescriptions(ctx context.Context, needles []string, rewrite func(string) string) (int64, error)
}

// CompanyLookupService resolves CNPJs and manages the failed set.
type CompanyLookupService interface {
	Resolve(ctx context.Context, cnpj string) (*models.CompanyRecord, bool)
	FailedCNPJs() []string
	FailedCount() int
	RetryFailed(ctx context.Context) (*RetryReport, error)
}

// IngestionService accepts uploaded spreadsheets and reports their progress.
type IngestionService interface {
	Start(filePath, filename string) string
	Poll(processID string) (models.UploadJob, error)
}

// RetryReport partitions the failed set that a retry pass started from.
type RetryReport struct {
	Recovered    []string `json:"recovered"`
	StillFailing []string `json:"still_failing"`
	UpdatedRows  int64    `json:"updated_rows"`
	Message      string   `json:"message"`
}
