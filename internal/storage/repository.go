// Package storage is the SQLite-backed datasource.Backend. Transactions and
// savings groups live in two tables; dates are stored as epoch milliseconds
// the way the original document store kept them.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Jexxy1517/CashFlowReportApp/internal/core"
	"github.com/Jexxy1517/CashFlowReportApp/internal/datasource"
	"github.com/Jexxy1517/CashFlowReportApp/internal/log"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db     *sql.DB
	feed   *feed
	logger *log.Logger
}

func NewSQLiteStore(dbPath string, logger *log.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = log.New(log.Config{})
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		feed:   newFeed(),
		logger: logger.WithComponent(log.ComponentStorage),
	}, nil
}

func (s *SQLiteStore) Close() error {
	s.feed.close()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	t.EnsureID()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, title, amount_cents, type, category, date_ms, account, owner_id, group_id, receipt_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Amount.Cents, string(t.Type), t.Category,
		t.Date.UnixMilli(), t.Account, t.OwnerID,
		nullable(t.GroupID), nullable(t.ReceiptURL))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "transaction saved",
		log.FieldTitle, t.Title,
		log.FieldAmountCents, t.Amount.Cents,
		log.FieldGroupID, t.GroupID)

	s.notify(ctx)
	return nil
}

func (s *SQLiteStore) UpdateTransaction(ctx context.Context, t *core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET title = ?, amount_cents = ?, type = ?, category = ?, date_ms = ?, receipt_url = ?
		WHERE id = ?`,
		t.Title, t.Amount.Cents, string(t.Type), t.Category,
		t.Date.UnixMilli(), nullable(t.ReceiptURL), t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return datasource.ErrNotFound
	}
	s.notify(ctx)
	return nil
}

func (s *SQLiteStore) DeleteTransaction(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return datasource.ErrNotFound
	}
	s.notify(ctx)
	return nil
}

func (s *SQLiteStore) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx, selectTransaction+` WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, datasource.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) ListTransactions(ctx context.Context, f datasource.Filter) ([]core.Transaction, error) {
	query := selectTransaction
	var args []any
	if f.GroupID != "" {
		query += ` WHERE group_id = ?`
		args = append(args, f.GroupID)
	} else {
		query += ` WHERE owner_id = ? AND group_id IS NULL`
		args = append(args, f.OwnerID)
	}
	query += ` ORDER BY date_ms DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateGroup(ctx context.Context, g *core.SavingsGroup) error {
	if err := g.Validate(); err != nil {
		return err
	}
	members, err := json.Marshal(g.Members)
	if err != nil {
		return fmt.Errorf("marshal members: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO savings_groups (id, name, owner_id, members_json, created_at_ms)
		VALUES (?, ?, ?, ?, ?)`,
		g.ID, g.Name, g.OwnerID, string(members), g.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetGroup(ctx context.Context, id string) (core.SavingsGroup, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, owner_id, members_json, created_at_ms
		FROM savings_groups WHERE id = ?`, id)
	g, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SavingsGroup{}, datasource.ErrNotFound
	}
	if err != nil {
		return core.SavingsGroup{}, fmt.Errorf("get group: %w", err)
	}
	return g, nil
}

func (s *SQLiteStore) AddGroupMember(ctx context.Context, groupID, userID string) error {
	g, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	g = g.WithMember(userID)
	members, err := json.Marshal(g.Members)
	if err != nil {
		return fmt.Errorf("marshal members: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE savings_groups SET members_json = ? WHERE id = ?`,
		string(members), groupID)
	if err != nil {
		return fmt.Errorf("update group members: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListGroups(ctx context.Context, userID string) ([]core.SavingsGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, owner_id, members_json, created_at_ms
		FROM savings_groups ORDER BY created_at_ms DESC`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var out []core.SavingsGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		// Membership lives in a JSON column, so the containment check
		// happens here rather than in SQL.
		if g.HasMember(userID) {
			out = append(out, g)
		}
	}
	return out, rows.Err()
}

// Watch implements datasource.Source on top of the change feed.
func (s *SQLiteStore) Watch(ctx context.Context, f datasource.Filter) (datasource.Subscription, error) {
	records, err := s.ListTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("initial snapshot: %w", err)
	}
	return s.feed.watch(f, datasource.Update{Records: records}), nil
}

// notify re-queries all watched scopes after a committed mutation. The
// background context keeps the push alive when the caller's request context
// ends right after the write.
func (s *SQLiteStore) notify(ctx context.Context) {
	s.feed.broadcast(func(f datasource.Filter) ([]core.Transaction, error) {
		return s.ListTransactions(context.WithoutCancel(ctx), f)
	})
}

const selectTransaction = `
	SELECT id, title, amount_cents, type, category, date_ms, account, owner_id, group_id, receipt_url
	FROM transactions`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t          core.Transaction
		typ        string
		dateMs     int64
		groupID    sql.NullString
		receiptURL sql.NullString
	)
	err := row.Scan(&t.ID, &t.Title, &t.Amount.Cents, &typ, &t.Category,
		&dateMs, &t.Account, &t.OwnerID, &groupID, &receiptURL)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	t.Date = time.UnixMilli(dateMs)
	t.GroupID = groupID.String
	t.ReceiptURL = receiptURL.String
	return t, nil
}

func scanGroup(row rowScanner) (core.SavingsGroup, error) {
	var (
		g           core.SavingsGroup
		membersJSON string
		createdMs   int64
	)
	if err := row.Scan(&g.ID, &g.Name, &g.OwnerID, &membersJSON, &createdMs); err != nil {
		return core.SavingsGroup{}, err
	}
	if err := json.Unmarshal([]byte(membersJSON), &g.Members); err != nil {
		return core.SavingsGroup{}, fmt.Errorf("decode members: %w", err)
	}
	g.CreatedAt = time.UnixMilli(createdMs)
	return g, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
