package model

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rafaavmsilva/Menu/src/logger"
	"github.com/rafaavmsilva/Menu/src/models"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// TransactionFilter narrows List results. Zero values mean no restriction.
type TransactionFilter struct {
	Type  string
	Types []string
	Limit int
}

// TransactionStore is the persistence gateway for the transactions table.
type TransactionStore struct {
	db *sql.DB
}

func NewTransactionStore(db *sql.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

// InsertBatch writes all transactions inside a single database transaction and
// returns how many rows were actually inserted. A row that fails to insert is
// logged and skipped; only a failure to begin or commit aborts the batch.
func (s *TransactionStore) InsertBatch(ctx context.Context, txs []models.Transaction) (int, error) {
	log := logger.FromContext(ctx)

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx, `INSERT INTO transactions
		(date, description, document, value, type, identifier, transaction_type)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i, tx := range txs {
		_, err := stmt.ExecContext(ctx,
			tx.Date.Format(dateLayout),
			tx.Description,
			nullIfEmpty(tx.Document),
			tx.Value.InexactFloat64(),
			tx.Type,
			nullIfEmpty(tx.Identifier),
			tx.TransactionType,
		)
		if err != nil {
			log.Warn("Skipping transaction that failed to insert", "index", i, "description", tx.Description, "error", err)
			continue
		}
		inserted++
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transactions: %w", err)
	}
	return inserted, nil
}

// List returns persisted transactions, newest date first.
func (s *TransactionStore) List(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error) {
	query := `SELECT id, date, description, document, value, type, identifier, transaction_type, created_at FROM transactions`
	var (
		where []string
		args  []any
	)
	if filter.Type != "" {
		where = append(where, `type = ?`)
		args = append(args, filter.Type)
	}
	if len(filter.Types) > 0 {
		where = append(where, `type IN (`+placeholders(len(filter.Types))+`)`)
		for _, t := range filter.Types {
			args = append(args, t)
		}
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY date DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	txs := []models.Transaction{}
	for rows.Next() {
		var (
			tx                            models.Transaction
			date                          string
			document, identifier, created sql.NullString
			value                         float64
		)
		if err := rows.Scan(&tx.ID, &date, &tx.Description, &document, &value, &tx.Type, &identifier, &tx.TransactionType, &created); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if tx.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("invalid stored date %q for transaction %d: %w", date, tx.ID, err)
		}
		tx.Document = document.String
		tx.Identifier = identifier.String
		tx.Value = decimal.NewFromFloat(value)
		tx.CreatedAt = parseTimestamp(created.String)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// SummarizeByType groups persisted transactions by classification label,
// leaving out the labels in exclude. Details lists each row as
// "description (value)" in date order.
func (s *TransactionStore) SummarizeByType(ctx context.Context, exclude ...string) ([]models.TypeSummary, error) {
	query := `SELECT type, description, value FROM transactions`
	args := make([]any, 0, len(exclude))
	if len(exclude) > 0 {
		query += ` WHERE type NOT IN (` + placeholders(len(exclude)) + `)`
		for _, t := range exclude {
			args = append(args, t)
		}
	}
	query += ` ORDER BY type, date, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize transactions: %w", err)
	}
	defer rows.Close()

	summaries := []models.TypeSummary{}
	for rows.Next() {
		var (
			label, description string
			raw                float64
		)
		if err := rows.Scan(&label, &description, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		if n := len(summaries); n == 0 || summaries[n-1].Type != label {
			summaries = append(summaries, models.TypeSummary{Type: label, Total: decimal.Zero, Details: []string{}})
		}
		current := &summaries[len(summaries)-1]
		value := decimal.NewFromFloat(raw)
		current.Count++
		current.Total = current.Total.Add(value)
		current.Details = append(current.Details, fmt.Sprintf("%s (%s)", description, value.StringFixed(2)))
	}
	for i := range summaries {
		summaries[i].Total = summaries[i].Total.Round(2)
	}
	return summaries, rows.Err()
}

// Count returns the number of persisted transactions.
func (s *TransactionStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

// RewriteDescriptions applies rewrite to every description that contains any
// of the needles and stores the result when it changed. It returns the number
// of updated rows.
func (s *TransactionStore) RewriteDescriptions(ctx context.Context, needles []string, rewrite func(string) string) (int64, error) {
	if len(needles) == 0 {
		return 0, nil
	}

	clauses := make([]string, len(needles))
	args := make([]any, len(needles))
	for i, needle := range needles {
		clauses[i] = "instr(description, ?) > 0"
		args[i] = needle
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	rows, err := dbTx.QueryContext(ctx, `SELECT id, description FROM transactions WHERE `+strings.Join(clauses, " OR "), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to query descriptions: %w", err)
	}

	type change struct {
		id          int64
		description string
	}
	var changes []change
	for rows.Next() {
		var (
			id   int64
			desc string
		)
		if err := rows.Scan(&id, &desc); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan description: %w", err)
		}
		if updated := rewrite(desc); updated != desc {
			changes = append(changes, change{id: id, description: updated})
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	var updated int64
	for _, c := range changes {
		res, err := dbTx.ExecContext(ctx, `UPDATE transactions SET description = ? WHERE id = ?`, c.description, c.id)
		if err != nil {
			return 0, fmt.Errorf("failed to update transaction %d: %w", c.id, err)
		}
		n, _ := res.RowsAffected()
		updated += n
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit description updates: %w", err)
	}
	return updated, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05Z"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
