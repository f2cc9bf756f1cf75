package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/rafaavmsilva/Menu/src/logger"
	"github.com/rafaavmsilva/Menu/src/models"
	"github.com/rafaavmsilva/Menu/src/parsers/spreadsheet"
	"github.com/rafaavmsilva/Menu/src/processors"
	"golang.org/x/sync/semaphore"
)

// UploadService runs spreadsheet ingestion in the background and exposes
// its progress through a JobTracker.
type UploadService struct {
	tracker   *JobTracker
	store     TransactionRepository
	extractor *processors.CNPJExtractor
	slots     *semaphore.Weighted
	wg        sync.WaitGroup
}

func NewUploadService(tracker *JobTracker, store TransactionRepository, resolver processors.CompanyResolver, maxConcurrent int) *UploadService {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &UploadService{
		tracker:   tracker,
		store:     store,
		extractor: processors.NewCNPJExtractor(resolver),
		slots:     semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// Start registers a job for the stored file and returns its process id
// immediately. The file is removed only after a successful import.
func (s *UploadService) Start(filePath, filename string) string {
	id := s.tracker.Create(filename)
	ctx, _ := logger.With(context.Background(), "processID", id, "filename", filename)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx, id, filePath)
	}()
	return id
}

// Poll returns the job snapshot or ErrJobNotFound.
func (s *UploadService) Poll(processID string) (models.UploadJob, error) {
	job, ok := s.tracker.Get(processID)
	if !ok {
		return models.UploadJob{}, ErrJobNotFound
	}
	return job, nil
}

// Wait blocks until every started job has finished.
func (s *UploadService) Wait() {
	s.wg.Wait()
}

// Import runs the pipeline synchronously under a fresh job and returns its
// terminal snapshot.
func (s *UploadService) Import(ctx context.Context, filePath, filename string) (models.UploadJob, error) {
	id := s.tracker.Create(filename)
	ctx, _ = logger.With(ctx, "processID", id, "filename", filename)
	s.run(ctx, id, filePath)

	job, _ := s.tracker.Get(id)
	if job.Status == models.JobStatusError {
		return job, errors.New(job.Message)
	}
	return job, nil
}

func (s *UploadService) run(ctx context.Context, id, filePath string) {
	log := logger.FromContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic during upload processing", "panic", r)
			s.fail(ctx, id, fmt.Errorf("%v", r))
		}
	}()

	if !s.slots.TryAcquire(1) {
		s.tracker.Progress(id, 0, 0, MsgJobQueued)
		if err := s.slots.Acquire(ctx, 1); err != nil {
			s.fail(ctx, id, err)
			return
		}
	}
	defer s.slots.Release(1)

	inserted, skipped, err := s.ingest(ctx, id, filePath)
	if err != nil {
		s.fail(ctx, id, err)
		return
	}

	s.tracker.Finish(id, models.JobStatusCompleted,
		fmt.Sprintf("Processamento concluído! %d transações importadas.", inserted),
		func(job *models.UploadJob) {
			job.Inserted = inserted
			job.Skipped = skipped
		})
	log.Info("Upload processed", "inserted", inserted, "skipped", skipped)

	if err := os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("Failed to remove processed upload", "path", filePath, "error", err)
	}
}

func (s *UploadService) ingest(ctx context.Context, id, filePath string) (inserted, skipped int, err error) {
	log := logger.FromContext(ctx)

	sheet, err := spreadsheet.Read(filePath)
	if err != nil {
		return 0, 0, err
	}
	cols, err := processors.ResolveColumns(sheet.Headers)
	if err != nil {
		return 0, 0, err
	}

	total := len(sheet.Rows)
	s.tracker.Progress(id, 0, total, MsgJobStarting)
	log.Info("Spreadsheet loaded", "rows", total, "dateColumn", cols.Date, "descriptionColumn", cols.Description, "valueColumn", cols.Value)

	txs := make([]models.Transaction, 0, total)
	for i, row := range sheet.Rows {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}
		tx, ok := s.buildTransaction(ctx, row, cols, i, log)
		if ok {
			txs = append(txs, tx)
		} else {
			skipped++
		}
		s.tracker.Progress(id, i+1, total, fmt.Sprintf("Processando linha %d de %d", i+1, total))
	}

	inserted, err = s.store.InsertBatch(ctx, txs)
	if err != nil {
		return 0, 0, fmt.Errorf("saving transactions: %w", err)
	}
	skipped += len(txs) - inserted
	return inserted, skipped, nil
}

func (s *UploadService) buildTransaction(ctx context.Context, row spreadsheet.Row, cols processors.ColumnMap, index int, log *slog.Logger) (models.Transaction, bool) {
	normalized, err := processors.NormalizeRow(row, cols)
	if err != nil {
		log.Debug("Skipping row", "row", index+1, "error", err)
		return models.Transaction{}, false
	}

	label := processors.Classify(normalized.Description, normalized.Value)
	description, document := s.extractor.Enrich(ctx, normalized.Description, label)

	return models.Transaction{
		Date:            normalized.Date,
		Description:     description,
		Document:        document,
		Value:           normalized.Value,
		Type:            label,
		TransactionType: processors.TransactionType(normalized.Value),
	}, true
}

func (s *UploadService) fail(ctx context.Context, id string, err error) {
	logger.FromContext(ctx).Error("Upload processing failed", "error", err)
	s.tracker.Finish(id, models.JobStatusError, fmt.Sprintf("Erro: %v", err), nil)
}
