package testutil

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/udisondev/rcskills/internal/game/progression"
	"github.com/udisondev/rcskills/internal/model"
)

// MockStore — in-memory имплементация хранилища игроков для unit тестов.
// Не требует реального PostgreSQL. Считает вызовы Save.
type MockStore struct {
	mu      sync.Mutex
	players map[uuid.UUID]*model.Player

	saves   int
	inserts int
	deletes int

	// SaveErr, если задан, возвращается из Save.
	SaveErr error
}

// NewMockStore создаёт пустой MockStore.
func NewMockStore() *MockStore {
	return &MockStore{players: make(map[uuid.UUID]*model.Player)}
}

// Put кладёт игрока без учёта в счётчиках.
func (m *MockStore) Put(p *model.Player) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[p.ID()] = p
}

func (m *MockStore) Load(_ context.Context, id uuid.UUID) (*model.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.players[id], nil
}

func (m *MockStore) Insert(_ context.Context, p *model.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.players[p.ID()]; exists {
		return fmt.Errorf("player %s already exists", p.ID())
	}
	m.players[p.ID()] = p
	m.inserts++
	return nil
}

func (m *MockStore) Save(_ context.Context, p *model.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.players[p.ID()] = p
	m.saves++
	return nil
}

func (m *MockStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.players, id)
	m.deletes++
	return nil
}

func (m *MockStore) FindByTemplate(_ context.Context, templateID uuid.UUID) ([]*model.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*model.Player
	for _, p := range m.players {
		for _, s := range p.Skills() {
			if s.Template != nil && s.Template.ID == templateID {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

// Saves возвращает число успешных Save.
func (m *MockStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Inserts возвращает число Insert.
func (m *MockStore) Inserts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inserts
}

// Deletes возвращает число Delete.
func (m *MockStore) Deletes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletes
}

// Withdrawal — одно списание MockWallet.
type Withdrawal struct {
	PlayerID uuid.UUID
	Amount   float64
	Memo     map[string]string
}

// MockWallet — in-memory кошелёк.
type MockWallet struct {
	mu          sync.Mutex
	balances    map[uuid.UUID]float64
	withdrawals []Withdrawal

	// Err, если задан, возвращается из Has и Withdraw.
	Err error
}

// NewMockWallet создаёт пустой кошелёк.
func NewMockWallet() *MockWallet {
	return &MockWallet{balances: make(map[uuid.UUID]float64)}
}

// Deposit зачисляет сумму игроку.
func (w *MockWallet) Deposit(id uuid.UUID, amount float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balances[id] += amount
}

// Balance возвращает текущий баланс.
func (w *MockWallet) Balance(id uuid.UUID) float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balances[id]
}

// Withdrawals возвращает копию журнала списаний.
func (w *MockWallet) Withdrawals() []Withdrawal {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Withdrawal(nil), w.withdrawals...)
}

func (w *MockWallet) Has(_ context.Context, id uuid.UUID, amount float64) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Err != nil {
		return false, w.Err
	}
	return w.balances[id] >= amount, nil
}

func (w *MockWallet) Withdraw(_ context.Context, id uuid.UUID, amount float64, memo map[string]string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Err != nil {
		return false, w.Err
	}
	if w.balances[id] < amount {
		return false, nil
	}
	w.balances[id] -= amount
	w.withdrawals = append(w.withdrawals, Withdrawal{PlayerID: id, Amount: amount, Memo: memo})
	return true, nil
}

func (w *MockWallet) Format(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64) + " coins"
}

// MockPermissions — набор выданных прав по игрокам.
type MockPermissions struct {
	mu    sync.Mutex
	nodes map[uuid.UUID]map[string]bool
}

// NewMockPermissions создаёт пустой набор прав.
func NewMockPermissions() *MockPermissions {
	return &MockPermissions{nodes: make(map[uuid.UUID]map[string]bool)}
}

// Grant выдаёт права игроку.
func (m *MockPermissions) Grant(id uuid.UUID, nodes ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.nodes[id] == nil {
		m.nodes[id] = make(map[string]bool)
	}
	for _, n := range nodes {
		m.nodes[id][n] = true
	}
}

func (m *MockPermissions) Has(id uuid.UUID, node string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nodes[id][node]
}

// MockExpRecorder собирает записи истории опыта.
type MockExpRecorder struct {
	mu      sync.Mutex
	records []progression.ExpRecord
}

func (m *MockExpRecorder) RecordExp(_ context.Context, rec progression.ExpRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Records возвращает копию записанной истории.
func (m *MockExpRecorder) Records() []progression.ExpRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]progression.ExpRecord(nil), m.records...)
}
