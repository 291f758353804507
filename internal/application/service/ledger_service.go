package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/receipt-ledger/internal/application/dispatcher"
	"github.com/garyjia/receipt-ledger/internal/application/port"
	"github.com/garyjia/receipt-ledger/internal/domain/entity"
	"github.com/garyjia/receipt-ledger/internal/domain/event"
)

// DefaultLedgerKey is the record key the ledger is stored under.
const DefaultLedgerKey = "expenses"

// maxIDAttempts bounds id regeneration on collision.
const maxIDAttempts = 8

var (
	ErrLedgerCorrupt   = errors.New("stored ledger failed validation")
	ErrLedgerNotLoaded = errors.New("ledger not loaded")
	ErrIDExhausted     = errors.New("could not allocate a unique expense id")
)

// CorruptPolicy decides what Load does with a stored ledger that fails
// validation.
type CorruptPolicy string

const (
	// CorruptReject fails Load with ErrLedgerCorrupt and leaves storage alone.
	CorruptReject CorruptPolicy = "reject"
	// CorruptReset starts from an empty ledger. Storage is overwritten by
	// the next successful mutation.
	CorruptReset CorruptPolicy = "reset"
)

// IsValid checks if the policy is one of the defined constants
func (p CorruptPolicy) IsValid() bool {
	return p == CorruptReject || p == CorruptReset
}

// LedgerService owns the ordered collection of expenses and keeps it in
// step with durable storage. Every mutation is written through before it
// becomes visible, so storage and memory never diverge.
type LedgerService interface {
	// Load reads the ledger from storage. Missing storage is an empty ledger.
	Load(ctx context.Context) ([]entity.Expense, error)

	// Append validates data, assigns a fresh id and creation time, and
	// inserts the expense at the head of the ledger.
	Append(ctx context.Context, data entity.ReceiptData) (entity.Expense, error)

	// Remove deletes the expense with the given id and reports whether one
	// was deleted. An unknown id is a no-op.
	Remove(ctx context.Context, id string) (bool, error)

	// Entries returns a copy of the ledger, most recently created first.
	Entries() []entity.Expense

	// Get looks up a single expense.
	Get(id string) (entity.Expense, bool)
}

// LedgerOption configures a LedgerService
type LedgerOption func(*ledgerService)

// WithLedgerKey overrides the storage key.
func WithLedgerKey(key string) LedgerOption {
	return func(s *ledgerService) { s.key = key }
}

// WithCorruptPolicy sets how Load treats invalid stored data.
func WithCorruptPolicy(p CorruptPolicy) LedgerOption {
	return func(s *ledgerService) { s.policy = p }
}

// WithLedgerClock sets the clock used for createdAt.
func WithLedgerClock(c Clock) LedgerOption {
	return func(s *ledgerService) { s.clock = c }
}

// WithIDGenerator replaces the random id source.
func WithIDGenerator(gen func() string) LedgerOption {
	return func(s *ledgerService) { s.newID = gen }
}

type ledgerService struct {
	store      port.RecordStore
	dispatcher dispatcher.Dispatcher
	logger     Logger

	key    string
	policy CorruptPolicy
	clock  Clock
	newID  func() string

	mu            sync.RWMutex
	loaded        bool
	entries       []entity.Expense
	index         map[string]struct{}
	lastCreatedAt int64
}

// NewLedgerService creates a ledger backed by store. disp may be nil.
func NewLedgerService(store port.RecordStore, disp dispatcher.Dispatcher, logger Logger, opts ...LedgerOption) LedgerService {
	if logger == nil {
		logger = nopLogger{}
	}
	s := &ledgerService{
		store:      store,
		dispatcher: disp,
		logger:     logger,
		key:        DefaultLedgerKey,
		policy:     CorruptReject,
		clock:      time.Now,
		newID:      uuid.NewString,
		index:      make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ledgerService) Load(ctx context.Context) ([]entity.Expense, error) {
	raw, err := s.store.Get(ctx, s.key)
	switch {
	case errors.Is(err, port.ErrRecordNotFound):
		raw = nil
	case err != nil:
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	entries, err := decodeLedger(raw)
	if err != nil {
		if s.policy != CorruptReset {
			s.logger.Error("Stored ledger is invalid", "key", s.key, "error", err)
			return nil, fmt.Errorf("%w: %v", ErrLedgerCorrupt, err)
		}
		s.logger.Warn("Stored ledger is invalid, starting empty", "key", s.key, "error", err)
		entries = []entity.Expense{}
	}

	s.mu.Lock()
	s.entries = entries
	s.index = make(map[string]struct{}, len(entries))
	s.lastCreatedAt = 0
	for _, e := range entries {
		s.index[e.ID] = struct{}{}
		if e.CreatedAt > s.lastCreatedAt {
			s.lastCreatedAt = e.CreatedAt
		}
	}
	s.loaded = true
	out := s.snapshot()
	s.mu.Unlock()

	s.logger.Info("Ledger loaded", "key", s.key, "count", len(out))
	publish(ctx, s.dispatcher, s.logger, event.NewEvent(event.TypeLedgerLoaded, map[string]interface{}{
		event.KeyCount: len(out),
	}))
	return out, nil
}

func (s *ledgerService) Append(ctx context.Context, data entity.ReceiptData) (entity.Expense, error) {
	if err := data.Validate(); err != nil {
		return entity.Expense{}, fmt.Errorf("invalid receipt: %w", err)
	}

	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return entity.Expense{}, ErrLedgerNotLoaded
	}

	id, err := s.allocateID()
	if err != nil {
		s.mu.Unlock()
		return entity.Expense{}, err
	}

	createdAt := s.clock().UnixMilli()
	if createdAt <= s.lastCreatedAt {
		createdAt = s.lastCreatedAt + 1
	}
	exp := entity.NewExpense(id, data, createdAt)

	next := make([]entity.Expense, 0, len(s.entries)+1)
	next = append(next, exp)
	next = append(next, s.entries...)

	if err := s.persist(ctx, next); err != nil {
		s.mu.Unlock()
		return entity.Expense{}, err
	}
	s.entries = next
	s.index[id] = struct{}{}
	s.lastCreatedAt = createdAt
	s.mu.Unlock()

	s.logger.Info("Expense added", "expense_id", id, "date", exp.Date, "amount", exp.Amount)
	publish(ctx, s.dispatcher, s.logger, event.NewEvent(event.TypeExpenseAdded, map[string]interface{}{
		event.KeyExpense:   exp,
		event.KeyExpenseID: id,
		event.KeyDate:      exp.Date,
	}))
	return exp, nil
}

func (s *ledgerService) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return false, ErrLedgerNotLoaded
	}
	if _, ok := s.index[id]; !ok {
		s.mu.Unlock()
		return false, nil
	}

	var removed entity.Expense
	next := make([]entity.Expense, 0, len(s.entries)-1)
	for _, e := range s.entries {
		if e.ID == id {
			removed = e
			continue
		}
		next = append(next, e)
	}

	if err := s.persist(ctx, next); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.entries = next
	delete(s.index, id)
	s.mu.Unlock()

	s.logger.Info("Expense removed", "expense_id", id)
	publish(ctx, s.dispatcher, s.logger, event.NewEvent(event.TypeExpenseRemoved, map[string]interface{}{
		event.KeyExpense:   removed,
		event.KeyExpenseID: id,
		event.KeyDate:      removed.Date,
	}))
	return true, nil
}

func (s *ledgerService) Entries() []entity.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *ledgerService) Get(id string) (entity.Expense, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return entity.Expense{}, false
}

// snapshot copies the entries. Callers hold s.mu.
func (s *ledgerService) snapshot() []entity.Expense {
	out := make([]entity.Expense, len(s.entries))
	copy(out, s.entries)
	return out
}

// allocateID draws ids until one is not already in the ledger. Callers hold s.mu.
func (s *ledgerService) allocateID() (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := s.newID()
		if id == "" {
			continue
		}
		if _, taken := s.index[id]; !taken {
			return id, nil
		}
		s.logger.Warn("Expense id collision, regenerating", "expense_id", id, "attempt", attempt+1)
	}
	return "", ErrIDExhausted
}

func (s *ledgerService) persist(ctx context.Context, entries []entity.Expense) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	if err := s.store.Put(ctx, s.key, raw); err != nil {
		s.logger.Error("Failed to persist ledger", "key", s.key, "error", err)
		return fmt.Errorf("failed to persist ledger: %w", err)
	}
	return nil
}

// decodeLedger parses the stored JSON array and checks every entry.
// Empty input is an empty ledger.
func decodeLedger(raw []byte) ([]entity.Expense, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []entity.Expense{}, nil
	}
	if raw[0] != '[' {
		return nil, errors.New("ledger record is not a JSON array")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var entries []entity.Expense
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode ledger: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("decode ledger: trailing data after array")
	}

	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("entry %d: duplicate id %q", i, e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	if entries == nil {
		entries = []entity.Expense{}
	}
	return entries, nil
}
