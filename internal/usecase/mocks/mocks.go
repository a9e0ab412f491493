package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/reconledger/internal/domain"
	"github.com/iho/reconledger/internal/usecase"
)

// MockInstrumentRepository is an in-memory InstrumentRepository.
type MockInstrumentRepository struct {
	mu          sync.RWMutex
	instruments map[string]*domain.Instrument

	CreateFunc      func(ctx context.Context, tx usecase.Transaction, instrument *domain.Instrument) error
	GetByIDFunc     func(ctx context.Context, id string) (*domain.Instrument, error)
	ListByOwnerFunc func(ctx context.Context, ownerID string) ([]*domain.Instrument, error)
}

func NewMockInstrumentRepository(instruments ...*domain.Instrument) *MockInstrumentRepository {
	m := &MockInstrumentRepository{instruments: make(map[string]*domain.Instrument)}
	for _, i := range instruments {
		m.instruments[i.ID] = i
	}
	return m
}

func (m *MockInstrumentRepository) Create(ctx context.Context, tx usecase.Transaction, instrument *domain.Instrument) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, instrument)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instruments[instrument.ID] = instrument
	return nil
}

func (m *MockInstrumentRepository) GetByID(ctx context.Context, id string) (*domain.Instrument, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i, ok := m.instruments[id]; ok {
		return i, nil
	}
	return nil, domain.ErrInstrumentNotFound
}

func (m *MockInstrumentRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Instrument, error) {
	return m.GetByID(ctx, id)
}

func (m *MockInstrumentRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Instrument, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, ownerID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Instrument
	for _, i := range m.instruments {
		if i.OwnerID == ownerID {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

// MockLedgerTransactionRepository is an in-memory LedgerTransactionRepository.
// It stores copies so callers cannot mutate stored rows by accident.
type MockLedgerTransactionRepository struct {
	mu  sync.RWMutex
	txs map[string]domain.LedgerTransaction

	CreateFunc         func(ctx context.Context, tx usecase.Transaction, t *domain.LedgerTransaction) error
	UpdateFunc         func(ctx context.Context, tx usecase.Transaction, t *domain.LedgerTransaction) error
	ListCandidatesFunc func(ctx context.Context, tx usecase.Transaction, instrumentID string, from, to time.Time) ([]*domain.LedgerTransaction, error)
}

func NewMockLedgerTransactionRepository(txs ...*domain.LedgerTransaction) *MockLedgerTransactionRepository {
	m := &MockLedgerTransactionRepository{txs: make(map[string]domain.LedgerTransaction)}
	for _, t := range txs {
		m.txs[t.ID] = *t
	}
	return m
}

// Snapshot returns a copy of a stored transaction, or nil.
func (m *MockLedgerTransactionRepository) Snapshot(id string) *domain.LedgerTransaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.txs[id]; ok {
		return &t
	}
	return nil
}

// All returns copies of every stored transaction ordered by id.
func (m *MockLedgerTransactionRepository) All() []*domain.LedgerTransaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.LedgerTransaction, 0, len(m.txs))
	for _, t := range m.txs {
		out = append(out, &t)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

func (m *MockLedgerTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, t *domain.LedgerTransaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txs[t.ID]; ok {
		return fmt.Errorf("duplicate ledger transaction %s", t.ID)
	}
	m.txs[t.ID] = *t
	return nil
}

func (m *MockLedgerTransactionRepository) Update(ctx context.Context, tx usecase.Transaction, t *domain.LedgerTransaction) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txs[t.ID]; !ok {
		return domain.ErrTransactionNotFound
	}
	m.txs[t.ID] = *t
	return nil
}

func (m *MockLedgerTransactionRepository) GetByID(ctx context.Context, id string) (*domain.LedgerTransaction, error) {
	if t := m.Snapshot(id); t != nil {
		return t, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockLedgerTransactionRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.LedgerTransaction, error) {
	var out []*domain.LedgerTransaction
	for _, id := range ids {
		if t := m.Snapshot(id); t != nil {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MockLedgerTransactionRepository) GetBySourceMessage(ctx context.Context, instrumentID, messageID string) (*domain.LedgerTransaction, error) {
	for _, t := range m.All() {
		if t.InstrumentID == instrumentID && t.SourceMessageID == messageID {
			return t, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockLedgerTransactionRepository) ListCandidates(ctx context.Context, tx usecase.Transaction, instrumentID string, from, to time.Time) ([]*domain.LedgerTransaction, error) {
	if m.ListCandidatesFunc != nil {
		return m.ListCandidatesFunc(ctx, tx, instrumentID, from, to)
	}
	var out []*domain.LedgerTransaction
	for _, t := range m.All() {
		if t.InstrumentID != instrumentID || t.State == domain.StateCancelled {
			continue
		}
		if t.Date.Before(from) || t.Date.After(to) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *MockLedgerTransactionRepository) List(ctx context.Context, filter usecase.LedgerFilter) ([]*domain.LedgerTransaction, error) {
	var out []*domain.LedgerTransaction
	for _, t := range m.All() {
		if filter.OwnerID != "" && t.OwnerID != filter.OwnerID {
			continue
		}
		if filter.InstrumentID != "" && t.InstrumentID != filter.InstrumentID {
			continue
		}
		if filter.State != "" && t.State != filter.State {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *MockLedgerTransactionRepository) SumContributing(ctx context.Context, tx usecase.Transaction, ownerID string, before *time.Time) (map[string]decimal.Decimal, error) {
	sums := make(map[string]decimal.Decimal)
	for _, t := range m.All() {
		if t.OwnerID != ownerID || !t.Contributes() {
			continue
		}
		if before != nil && !t.Date.Before(*before) {
			continue
		}
		sums[t.InstrumentID] = sums[t.InstrumentID].Add(t.Amount)
	}
	return sums, nil
}

func (m *MockLedgerTransactionRepository) ConfirmPendingBefore(ctx context.Context, ownerID string, before, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, t := range m.txs {
		if ownerID != "" && t.OwnerID != ownerID {
			continue
		}
		if t.State == domain.StatePending && t.CreatedAt.Before(before) {
			_ = t.Confirm(now)
			m.txs[id] = t
			n++
		}
	}
	return n, nil
}

func (m *MockLedgerTransactionRepository) CountUnlinkedReconciled(ctx context.Context, ownerID string) (int, error) {
	n := 0
	for _, t := range m.All() {
		if t.OwnerID == ownerID && t.Validate() != nil {
			n++
		}
	}
	return n, nil
}

// MockReportRepository is an in-memory ReportRepository.
type MockReportRepository struct {
	mu      sync.RWMutex
	reports map[string]*usecase.StoredReport
	order   []string

	CreateFunc func(ctx context.Context, tx usecase.Transaction, report *usecase.StoredReport) error
}

func NewMockReportRepository() *MockReportRepository {
	return &MockReportRepository{reports: make(map[string]*usecase.StoredReport)}
}

// Count returns the number of stored reports.
func (m *MockReportRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.reports)
}

func (m *MockReportRepository) Create(ctx context.Context, tx usecase.Transaction, report *usecase.StoredReport) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, report)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reports {
		if r.Report.Scope.InstrumentID == report.Report.Scope.InstrumentID && r.Report.Fingerprint == report.Report.Fingerprint {
			return fmt.Errorf("duplicate fingerprint %s", report.Report.Fingerprint)
		}
	}
	m.reports[report.Report.ID] = report
	m.order = append(m.order, report.Report.ID)
	return nil
}

func (m *MockReportRepository) GetByID(ctx context.Context, id string) (*usecase.StoredReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.reports[id]; ok {
		return r, nil
	}
	return nil, domain.ErrReportNotFound
}

func (m *MockReportRepository) GetByFingerprint(ctx context.Context, instrumentID, fingerprint string) (*usecase.StoredReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.reports {
		if r.Report.Scope.InstrumentID == instrumentID && r.Report.Fingerprint == fingerprint {
			return r, nil
		}
	}
	return nil, domain.ErrReportNotFound
}

func (m *MockReportRepository) GetByMatchID(ctx context.Context, matchID string) (*usecase.StoredReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.reports {
		if _, ok := r.Report.Match(matchID); ok {
			return r, nil
		}
	}
	return nil, domain.ErrMatchNotFound
}

func (m *MockReportRepository) ListByInstrument(ctx context.Context, instrumentID string, limit, offset int) ([]*domain.ReconciliationReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.ReconciliationReport
	for i := len(m.order) - 1; i >= 0; i-- {
		r := m.reports[m.order[i]]
		if r.Report.Scope.InstrumentID == instrumentID {
			out = append(out, r.Report)
		}
	}
	return out, nil
}

// MockSnapshotRepository is an in-memory SnapshotRepository.
type MockSnapshotRepository struct {
	mu        sync.RWMutex
	snapshots []*domain.PatrimonySnapshot

	CreateFunc func(ctx context.Context, tx usecase.Transaction, snapshot *domain.PatrimonySnapshot) error
}

func NewMockSnapshotRepository() *MockSnapshotRepository {
	return &MockSnapshotRepository{}
}

// Count returns the number of stored snapshots.
func (m *MockSnapshotRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.snapshots)
}

func (m *MockSnapshotRepository) Create(ctx context.Context, tx usecase.Transaction, snapshot *domain.PatrimonySnapshot) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, snapshot)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, snapshot)
	return nil
}

func (m *MockSnapshotRepository) Latest(ctx context.Context, ownerID string) (*domain.PatrimonySnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.snapshots) - 1; i >= 0; i-- {
		if m.snapshots[i].OwnerID == ownerID {
			return m.snapshots[i], nil
		}
	}
	return nil, domain.ErrSnapshotNotFound
}

func (m *MockSnapshotRepository) List(ctx context.Context, ownerID string, limit, offset int) ([]*domain.PatrimonySnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.PatrimonySnapshot
	for i := len(m.snapshots) - 1; i >= 0; i-- {
		if m.snapshots[i].OwnerID == ownerID {
			out = append(out, m.snapshots[i])
		}
	}
	return out, nil
}

// MockResolutionRepository is an in-memory ResolutionRepository.
type MockResolutionRepository struct {
	mu          sync.RWMutex
	resolutions map[string]*domain.MatchResolution
}

func NewMockResolutionRepository() *MockResolutionRepository {
	return &MockResolutionRepository{resolutions: make(map[string]*domain.MatchResolution)}
}

func (m *MockResolutionRepository) Create(ctx context.Context, tx usecase.Transaction, resolution *domain.MatchResolution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.resolutions[resolution.MatchID]; ok {
		return domain.ErrMatchAlreadyResolved
	}
	m.resolutions[resolution.MatchID] = resolution
	return nil
}

func (m *MockResolutionRepository) GetByMatchID(ctx context.Context, matchID string) (*domain.MatchResolution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resolutions[matchID], nil
}

func (m *MockResolutionRepository) ListByReport(ctx context.Context, reportID string) ([]*domain.MatchResolution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.MatchResolution
	for _, r := range m.resolutions {
		if r.ReportID == reportID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].MatchID < out[b].MatchID })
	return out, nil
}

// MockOutboxRepository is an in-memory OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

// Events returns every recorded event.
func (m *MockOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.OutboxEvent{}, m.events...)
}

// EventsOfType returns recorded events of one type.
func (m *MockOutboxRepository) EventsOfType(eventType string) []*domain.OutboxEvent {
	var out []*domain.OutboxEvent
	for _, e := range m.Events() {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	for _, e := range m.events {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	m.events = kept
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)

	mu    sync.Mutex
	Begun []*MockTransaction
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	tx := &MockTransaction{}
	m.mu.Lock()
	m.Begun = append(m.Begun, tx)
	m.mu.Unlock()
	return tx, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
	Committed    bool
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	m.Committed = true
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	Prefix       string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{Prefix: "mock-id"}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("%s-%04d", m.Prefix, m.counter)
}

// MockRetrier runs the operation once, or up to Attempts times while it fails.
type MockRetrier struct {
	Attempts int
	Calls    int
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	attempts := max(m.Attempts, 1)
	var err error
	for range attempts {
		m.Calls++
		if err = operation(); err == nil {
			return nil
		}
	}
	return err
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	DeleteFunc      func(ctx context.Context, key string) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MockIdempotencyStore) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Value returns what is stored under key.
func (m *MockIdempotencyStore) Value(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}
