package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"papertrade/internal/model"
)

// Memory is an in-process Store used by tests and local development. Update
// mutates a copy of the whole state and swaps it in on commit, so a failed
// callback leaves nothing behind.
type Memory struct {
	mu    sync.Mutex
	state *memState
}

type memState struct {
	accounts     map[string]model.Account
	instruments  map[string]model.Instrument
	positions    map[string]model.Position
	transactions []model.Transaction
	ticks        []model.PriceTick
	valuations   []model.ValuationSnapshot
	watches      map[string][]string
}

func NewMemory() *Memory {
	return &Memory{state: &memState{
		accounts:    make(map[string]model.Account),
		instruments: make(map[string]model.Instrument),
		positions:   make(map[string]model.Position),
		watches:     make(map[string][]string),
	}}
}

func (m *Memory) Update(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.state.clone()
	if err := fn(&memTx{state: next}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.state = next
	return nil
}

func (m *Memory) View(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	// Hand out a clone so stray writes cannot leak into committed state.
	return fn(&memTx{state: m.state.clone()})
}

func (s *memState) clone() *memState {
	next := &memState{
		accounts:     make(map[string]model.Account, len(s.accounts)),
		instruments:  make(map[string]model.Instrument, len(s.instruments)),
		positions:    make(map[string]model.Position, len(s.positions)),
		transactions: append([]model.Transaction(nil), s.transactions...),
		ticks:        append([]model.PriceTick(nil), s.ticks...),
		valuations:   append([]model.ValuationSnapshot(nil), s.valuations...),
		watches:      make(map[string][]string, len(s.watches)),
	}
	for id, a := range s.accounts {
		next.accounts[id] = a
	}
	for id, in := range s.instruments {
		next.instruments[id] = in
	}
	for id, p := range s.positions {
		next.positions[id] = p
	}
	for id, w := range s.watches {
		next.watches[id] = append([]string(nil), w...)
	}
	return next
}

type memTx struct {
	state *memState
}

func (t *memTx) Account(_ context.Context, id string) (model.Account, error) {
	a, ok := t.state.accounts[id]
	if !ok {
		return model.Account{}, ErrAccountNotFound
	}
	return a, nil
}

func (t *memTx) AccountByEmail(_ context.Context, email string) (model.Account, error) {
	for _, a := range t.state.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return model.Account{}, ErrAccountNotFound
}

func (t *memTx) CreateAccount(_ context.Context, a model.Account) (string, error) {
	for _, existing := range t.state.accounts {
		if existing.Email == a.Email {
			return "", ErrEmailTaken
		}
	}
	a.ID = uuid.NewString()
	t.state.accounts[a.ID] = a
	return a.ID, nil
}

func (t *memTx) SaveAccount(_ context.Context, a model.Account) error {
	if _, ok := t.state.accounts[a.ID]; !ok {
		return ErrAccountNotFound
	}
	t.state.accounts[a.ID] = a
	return nil
}

func (t *memTx) ListAccountIDs(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(t.state.accounts))
	for id := range t.state.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (t *memTx) Instrument(_ context.Context, id string) (model.Instrument, error) {
	in, ok := t.state.instruments[id]
	if !ok {
		return model.Instrument{}, ErrInstrumentNotFound
	}
	return in, nil
}

func (t *memTx) InstrumentByTicker(_ context.Context, ticker string) (model.Instrument, error) {
	for _, in := range t.state.instruments {
		if in.Ticker == ticker {
			return in, nil
		}
	}
	return model.Instrument{}, ErrInstrumentNotFound
}

func (t *memTx) ListInstruments(_ context.Context) ([]model.Instrument, error) {
	out := make([]model.Instrument, 0, len(t.state.instruments))
	for _, in := range t.state.instruments {
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out, nil
}

func (t *memTx) CreateInstrument(_ context.Context, in model.Instrument) (string, error) {
	for _, existing := range t.state.instruments {
		if existing.Ticker == in.Ticker {
			return "", ErrTickerTaken
		}
	}
	in.ID = uuid.NewString()
	t.state.instruments[in.ID] = in
	return in.ID, nil
}

func (t *memTx) SaveInstrument(_ context.Context, in model.Instrument) error {
	if _, ok := t.state.instruments[in.ID]; !ok {
		return ErrInstrumentNotFound
	}
	t.state.instruments[in.ID] = in
	return nil
}

func (t *memTx) DeleteInstrument(_ context.Context, id string) error {
	if _, ok := t.state.instruments[id]; !ok {
		return ErrInstrumentNotFound
	}
	delete(t.state.instruments, id)
	for accountID, watched := range t.state.watches {
		kept := watched[:0]
		for _, instrumentID := range watched {
			if instrumentID != id {
				kept = append(kept, instrumentID)
			}
		}
		t.state.watches[accountID] = kept
	}
	return nil
}

func (t *memTx) Position(_ context.Context, id string) (model.Position, error) {
	p, ok := t.state.positions[id]
	if !ok {
		return model.Position{}, ErrPositionNotFound
	}
	return p, nil
}

func (t *memTx) PositionByTicker(_ context.Context, accountID, ticker string) (model.Position, error) {
	for _, p := range t.state.positions {
		if p.AccountID == accountID && p.Ticker == ticker {
			return p, nil
		}
	}
	return model.Position{}, ErrPositionNotFound
}

func (t *memTx) ListPositionsByAccount(_ context.Context, accountID string) ([]model.Position, error) {
	var out []model.Position
	for _, p := range t.state.positions {
		if p.AccountID == accountID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out, nil
}

func (t *memTx) CreatePosition(_ context.Context, p model.Position) (string, error) {
	p.ID = uuid.NewString()
	t.state.positions[p.ID] = p
	return p.ID, nil
}

func (t *memTx) SavePosition(_ context.Context, p model.Position) error {
	if _, ok := t.state.positions[p.ID]; !ok {
		return ErrPositionNotFound
	}
	t.state.positions[p.ID] = p
	return nil
}

func (t *memTx) DeletePosition(_ context.Context, id string) error {
	if _, ok := t.state.positions[id]; !ok {
		return ErrPositionNotFound
	}
	delete(t.state.positions, id)
	return nil
}

func (t *memTx) AppendTransaction(_ context.Context, txn model.Transaction) (string, error) {
	txn.ID = uuid.NewString()
	t.state.transactions = append(t.state.transactions, txn)
	return txn.ID, nil
}

func (t *memTx) ListTransactionsByAccount(_ context.Context, accountID string) ([]model.Transaction, error) {
	var out []model.Transaction
	for _, txn := range t.state.transactions {
		if txn.AccountID == accountID {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (t *memTx) AppendPriceTick(_ context.Context, tick model.PriceTick) (string, error) {
	tick.ID = uuid.NewString()
	t.state.ticks = append(t.state.ticks, tick)
	return tick.ID, nil
}

func (t *memTx) LatestPriceTick(_ context.Context, ticker string) (model.PriceTick, error) {
	found := false
	var latest model.PriceTick
	for _, tick := range t.state.ticks {
		if tick.Ticker != ticker {
			continue
		}
		// Equal timestamps resolve to the later append.
		if !found || !tick.Timestamp.Before(latest.Timestamp) {
			latest = tick
			found = true
		}
	}
	if !found {
		return model.PriceTick{}, ErrNoPriceTick
	}
	return latest, nil
}

func (t *memTx) PriceHistory(_ context.Context, ticker string) ([]model.PriceTick, error) {
	var out []model.PriceTick
	for i := len(t.state.ticks) - 1; i >= 0; i-- {
		if t.state.ticks[i].Ticker == ticker {
			out = append(out, t.state.ticks[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (t *memTx) AppendValuation(_ context.Context, v model.ValuationSnapshot) (string, error) {
	v.ID = uuid.NewString()
	t.state.valuations = append(t.state.valuations, v)
	return v.ID, nil
}

func (t *memTx) ListValuationsByAccount(_ context.Context, accountID string) ([]model.ValuationSnapshot, error) {
	var out []model.ValuationSnapshot
	for _, v := range t.state.valuations {
		if v.AccountID == accountID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (t *memTx) AddWatch(_ context.Context, accountID, instrumentID string) error {
	for _, id := range t.state.watches[accountID] {
		if id == instrumentID {
			return ErrWatchExists
		}
	}
	t.state.watches[accountID] = append(t.state.watches[accountID], instrumentID)
	return nil
}

func (t *memTx) RemoveWatch(_ context.Context, accountID, instrumentID string) error {
	watched := t.state.watches[accountID]
	for i, id := range watched {
		if id == instrumentID {
			t.state.watches[accountID] = append(watched[:i], watched[i+1:]...)
			return nil
		}
	}
	return ErrWatchNotFound
}

func (t *memTx) ListWatchedInstrumentIDs(_ context.Context, accountID string) ([]string, error) {
	return append([]string(nil), t.state.watches[accountID]...), nil
}
