// Package supabase is a hosted datasource.Backend on Supabase's PostgREST
// API. It mirrors the SQLite backend's behavior; the real-time feed is
// approximated by polling, pushing a fresh snapshot whenever the scope's
// record set changes.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/supabase-community/supabase-go"

	"github.com/Jexxy1517/CashFlowReportApp/internal/core"
	"github.com/Jexxy1517/CashFlowReportApp/internal/datasource"
	"github.com/Jexxy1517/CashFlowReportApp/internal/log"
)

const (
	transactionsTable = "transactions"
	groupsTable       = "savings_groups"
)

type Store struct {
	client       *supabase.Client
	pollInterval time.Duration
	logger       *log.Logger

	mu     sync.Mutex
	closed chan struct{}
}

func NewStore(url, key string, pollInterval time.Duration, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(log.Config{})
	}
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return &Store{
		client:       client,
		pollInterval: pollInterval,
		logger:       logger.WithComponent(log.ComponentStorage),
		closed:       make(chan struct{}),
	}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
	return nil
}

// transactionRow is the PostgREST wire shape of a transaction. Dates travel
// as epoch milliseconds, group/receipt as nullable columns.
type transactionRow struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Cents      int64   `json:"amount_cents"`
	Type       string  `json:"type"`
	Category   string  `json:"category"`
	DateMs     int64   `json:"date_ms"`
	Account    string  `json:"account"`
	OwnerID    string  `json:"owner_id"`
	GroupID    *string `json:"group_id"`
	ReceiptURL *string `json:"receipt_url"`
}

type groupRow struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	OwnerID     string   `json:"owner_id"`
	Members     []string `json:"members"`
	CreatedAtMs int64    `json:"created_at_ms"`
}

func toRow(t core.Transaction) transactionRow {
	row := transactionRow{
		ID:       t.ID,
		Title:    t.Title,
		Cents:    t.Amount.Cents,
		Type:     string(t.Type),
		Category: t.Category,
		DateMs:   t.Date.UnixMilli(),
		Account:  t.Account,
		OwnerID:  t.OwnerID,
	}
	if t.GroupID != "" {
		row.GroupID = &t.GroupID
	}
	if t.ReceiptURL != "" {
		row.ReceiptURL = &t.ReceiptURL
	}
	return row
}

func fromRow(r transactionRow) core.Transaction {
	t := core.Transaction{
		ID:       r.ID,
		Title:    r.Title,
		Amount:   core.Money{Cents: r.Cents},
		Type:     core.TransactionType(r.Type),
		Category: r.Category,
		Date:     time.UnixMilli(r.DateMs),
		Account:  r.Account,
		OwnerID:  r.OwnerID,
	}
	if r.GroupID != nil {
		t.GroupID = *r.GroupID
	}
	if r.ReceiptURL != nil {
		t.ReceiptURL = *r.ReceiptURL
	}
	return t
}

func (s *Store) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	t.EnsureID()
	_, _, err := s.client.From(transactionsTable).
		Insert(toRow(*t), false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *Store) UpdateTransaction(ctx context.Context, t *core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	_, _, err := s.client.From(transactionsTable).
		Update(toRow(*t), "", "").
		Eq("id", t.ID).
		Execute()
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	_, _, err := s.client.From(transactionsTable).
		Delete("", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	data, _, err := s.client.From(transactionsTable).
		Select("*", "", false).
		Eq("id", id).
		Execute()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	var rows []transactionRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction: %w", err)
	}
	if len(rows) == 0 {
		return core.Transaction{}, datasource.ErrNotFound
	}
	return fromRow(rows[0]), nil
}

func (s *Store) ListTransactions(ctx context.Context, f datasource.Filter) ([]core.Transaction, error) {
	query := s.client.From(transactionsTable).Select("*", "", false)
	if f.GroupID != "" {
		query = query.Eq("group_id", f.GroupID)
	} else {
		query = query.Eq("owner_id", f.OwnerID).Is("group_id", "null")
	}
	data, _, err := query.Order("date_ms.desc", nil).Execute()
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	var rows []transactionRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse transactions: %w", err)
	}
	out := make([]core.Transaction, len(rows))
	for i, r := range rows {
		out[i] = fromRow(r)
	}
	return out, nil
}

func (s *Store) CreateGroup(ctx context.Context, g *core.SavingsGroup) error {
	if err := g.Validate(); err != nil {
		return err
	}
	row := groupRow{
		ID:          g.ID,
		Name:        g.Name,
		OwnerID:     g.OwnerID,
		Members:     g.Members,
		CreatedAtMs: g.CreatedAt.UnixMilli(),
	}
	_, _, err := s.client.From(groupsTable).
		Insert(row, false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	return nil
}

func (s *Store) GetGroup(ctx context.Context, id string) (core.SavingsGroup, error) {
	data, _, err := s.client.From(groupsTable).
		Select("*", "", false).
		Eq("id", id).
		Execute()
	if err != nil {
		return core.SavingsGroup{}, fmt.Errorf("get group: %w", err)
	}
	var rows []groupRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return core.SavingsGroup{}, fmt.Errorf("parse group: %w", err)
	}
	if len(rows) == 0 {
		return core.SavingsGroup{}, datasource.ErrNotFound
	}
	r := rows[0]
	return core.SavingsGroup{
		ID:        r.ID,
		Name:      r.Name,
		OwnerID:   r.OwnerID,
		Members:   r.Members,
		CreatedAt: time.UnixMilli(r.CreatedAtMs),
	}, nil
}

func (s *Store) AddGroupMember(ctx context.Context, groupID, userID string) error {
	g, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	g = g.WithMember(userID)
	_, _, err = s.client.From(groupsTable).
		Update(map[string]any{"members": g.Members}, "", "").
		Eq("id", groupID).
		Execute()
	if err != nil {
		return fmt.Errorf("update group members: %w", err)
	}
	return nil
}

func (s *Store) ListGroups(ctx context.Context, userID string) ([]core.SavingsGroup, error) {
	data, _, err := s.client.From(groupsTable).
		Select("*", "", false).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	var rows []groupRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse groups: %w", err)
	}
	var out []core.SavingsGroup
	for _, r := range rows {
		g := core.SavingsGroup{
			ID:        r.ID,
			Name:      r.Name,
			OwnerID:   r.OwnerID,
			Members:   r.Members,
			CreatedAt: time.UnixMilli(r.CreatedAtMs),
		}
		if g.HasMember(userID) {
			out = append(out, g)
		}
	}
	return out, nil
}

// Watch polls the scope on an interval and pushes a snapshot whenever the
// record set changed. PostgREST has no push channel, so this approximates
// the hosted listener; the poll interval bounds staleness.
func (s *Store) Watch(ctx context.Context, f datasource.Filter) (datasource.Subscription, error) {
	records, err := s.ListTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("initial snapshot: %w", err)
	}

	sub := &pollSubscription{
		ch:   make(chan datasource.Update, 1),
		stop: make(chan struct{}),
	}
	sub.ch <- datasource.Update{Records: records}

	go s.poll(f, sub, digest(records))
	return sub, nil
}

func (s *Store) poll(f datasource.Filter, sub *pollSubscription, lastDigest string) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-sub.stop:
			return
		case <-s.closed:
			return
		case <-ticker.C:
		}

		records, err := s.ListTransactions(context.Background(), f)
		if err != nil {
			s.logger.Error("poll failed", log.FieldError, err)
			sub.push(datasource.Update{Err: err})
			// Force a fresh snapshot push once the query recovers.
			lastDigest = ""
			continue
		}
		d := digest(records)
		if d == lastDigest {
			continue
		}
		lastDigest = d
		sub.push(datasource.Update{Records: records})
	}
}

func digest(records []core.Transaction) string {
	b, err := json.Marshal(records)
	if err != nil {
		return ""
	}
	return string(b)
}

type pollSubscription struct {
	ch   chan datasource.Update
	stop chan struct{}
	mu   sync.Mutex
	done bool
}

func (p *pollSubscription) Updates() <-chan datasource.Update {
	return p.ch
}

func (p *pollSubscription) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return
	}
	p.done = true
	close(p.stop)
	close(p.ch)
}

// push delivers latest-wins and tolerates a concurrent Cancel.
func (p *pollSubscription) push(u datasource.Update) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return
	}
	select {
	case p.ch <- u:
	default:
		select {
		case <-p.ch:
		default:
		}
		p.ch <- u
	}
}
