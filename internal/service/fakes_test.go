package service

import (
	"context"
	"sync"
	"time"

	"github.com/colectra/backend/internal/domain"
)

// In-memory stores mirroring the guarantees of the SQL repositories, so
// service behavior is tested without a database.

type memUsers struct {
	users map[string]*domain.User // by id
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]*domain.User)}
}

func (m *memUsers) Create(ctx context.Context, u *domain.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memUsers) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return m.users[id], nil
}

func (m *memUsers) Exists(ctx context.Context, email string) (bool, error) {
	u, _ := m.FindByEmail(ctx, email)
	return u != nil, nil
}

func (m *memUsers) ListAll(ctx context.Context) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memUsers) Delete(ctx context.Context, id string) error {
	delete(m.users, id)
	return nil
}

type kvEntry struct {
	value   string
	expires time.Time // zero means never
}

type memKV struct {
	mu      sync.Mutex
	entries map[string]kvEntry
	purged  int
}

func newMemKV() *memKV {
	return &memKV{entries: make(map[string]kvEntry)}
}

func (m *memKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok || (!e.expires.IsZero() && time.Now().After(e.expires)) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *memKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := kvEntry{value: value}
	if ttl > 0 {
		e.expires = time.Now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *memKV) PurgeExpired(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, e := range m.entries {
		if !e.expires.IsZero() && time.Now().After(e.expires) {
			delete(m.entries, k)
		}
	}
	m.purged++
	return nil
}

type memWallets struct {
	wallets map[string]*domain.Wallet // by id
	txs     []*domain.Transaction
}

func newMemWallets() *memWallets {
	return &memWallets{wallets: make(map[string]*domain.Wallet)}
}

func (m *memWallets) add(userID string, balance int64) *domain.Wallet {
	w := &domain.Wallet{
		ID:      domain.NewID(),
		UserID:  userID,
		Balance: balance,
		Kind:    domain.WalletKindStandard,
	}
	m.wallets[w.ID] = w
	return w
}

func (m *memWallets) byUser(userID string) *domain.Wallet {
	for _, w := range m.wallets {
		if w.UserID == userID {
			return w
		}
	}
	return nil
}

func (m *memWallets) Create(ctx context.Context, w *domain.Wallet) error {
	if m.byUser(w.UserID) != nil {
		return domain.ErrConflict("wallet already exists for this user")
	}
	m.wallets[w.ID] = w
	return nil
}

func (m *memWallets) FindByUser(ctx context.Context, userID string) (*domain.Wallet, error) {
	return m.byUser(userID), nil
}

func (m *memWallets) FindByID(ctx context.Context, id string) (*domain.Wallet, error) {
	return m.wallets[id], nil
}

func (m *memWallets) Transfer(ctx context.Context, rec *domain.Transaction, fromID, toID string) error {
	from, ok := m.wallets[fromID]
	if !ok {
		return domain.ErrNotFound("wallet not found")
	}
	to, ok := m.wallets[toID]
	if !ok {
		return domain.ErrNotFound("wallet not found")
	}
	if from.Balance < rec.Amount {
		return domain.ErrInsufficientFunds("insufficient wallet balance")
	}
	from.Balance -= rec.Amount
	to.Balance += rec.Amount
	rec.Status = domain.TxStatusCompleted
	m.txs = append(m.txs, rec)
	return nil
}

func (m *memWallets) Deposit(ctx context.Context, rec *domain.Transaction, walletID string) error {
	w, ok := m.wallets[walletID]
	if !ok {
		return domain.ErrNotFound("wallet not found")
	}
	w.Balance += rec.Amount
	rec.Status = domain.TxStatusCompleted
	m.txs = append(m.txs, rec)
	return nil
}

func (m *memWallets) ListTransactions(ctx context.Context, walletID string) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	for _, tx := range m.txs {
		if tx.SourceWalletID == walletID || tx.DestWalletID == walletID {
			out = append(out, tx)
		}
	}
	return out, nil
}

type memNotifs struct {
	notifs  []*domain.Notification
	failErr error // when set, Create fails
}

func (m *memNotifs) Create(ctx context.Context, n *domain.Notification) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.notifs = append(m.notifs, n)
	return nil
}

func (m *memNotifs) forUser(userID string) []*domain.Notification {
	var out []*domain.Notification
	for _, n := range m.notifs {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

type memClients struct {
	clients map[string]*domain.Client // by id
}

func newMemClients() *memClients {
	return &memClients{clients: make(map[string]*domain.Client)}
}

func (m *memClients) add(userID string) *domain.Client {
	c := &domain.Client{
		ID:      domain.NewID(),
		UserID:  userID,
		Address: "12 Riverside Rd",
		QRToken: domain.NewID(),
	}
	m.clients[c.ID] = c
	return c
}

func (m *memClients) FindByUser(ctx context.Context, userID string) (*domain.Client, error) {
	for _, c := range m.clients {
		if c.UserID == userID {
			return c, nil
		}
	}
	return nil, nil
}

func (m *memClients) FindByQRToken(ctx context.Context, token string) (*domain.Client, error) {
	for _, c := range m.clients {
		if c.QRToken == token {
			return c, nil
		}
	}
	return nil, nil
}

type memTariffs struct {
	tariffs map[string]*domain.Tariff
}

func newMemTariffs() *memTariffs {
	return &memTariffs{tariffs: make(map[string]*domain.Tariff)}
}

func (m *memTariffs) add(agencyID string, price int64) *domain.Tariff {
	t := &domain.Tariff{
		ID:       domain.NewID(),
		AgencyID: agencyID,
		Label:    "Weekly pickup",
		Plan:     domain.PlanStandard,
		Price:    price,
	}
	m.tariffs[t.ID] = t
	return t
}

func (m *memTariffs) FindByID(ctx context.Context, id string) (*domain.Tariff, error) {
	return m.tariffs[id], nil
}

type memAgencies struct {
	agencies map[string]*domain.Agency
}

func newMemAgencies() *memAgencies {
	return &memAgencies{agencies: make(map[string]*domain.Agency)}
}

func (m *memAgencies) add(ownerUserID, name string) *domain.Agency {
	a := &domain.Agency{
		ID:          domain.NewID(),
		OwnerUserID: ownerUserID,
		Name:        name,
		City:        "Douala",
	}
	m.agencies[a.ID] = a
	return a
}

func (m *memAgencies) FindByID(ctx context.Context, id string) (*domain.Agency, error) {
	return m.agencies[id], nil
}

// memSubs implements SubscriptionStore with the same atomicity the SQL
// repository provides: CreatePaid either applies every effect or none.
type memSubs struct {
	subs      map[string]*domain.Subscription
	wallets   *memWallets
	clients   *memClients
	roster    map[string]map[string]bool // agencyID -> clientID set
	expireErr map[string]error           // per-sub forced Expire failure
	markErr   error                      // forced MarkRenewalNotified failure
}

func newMemSubs(wallets *memWallets, clients *memClients) *memSubs {
	return &memSubs{
		subs:      make(map[string]*domain.Subscription),
		wallets:   wallets,
		clients:   clients,
		roster:    make(map[string]map[string]bool),
		expireErr: make(map[string]error),
	}
}

func (m *memSubs) FindActiveByUser(ctx context.Context, userID string) (*domain.Subscription, error) {
	var latest *domain.Subscription
	for _, s := range m.subs {
		if s.UserID != userID || s.Status != domain.SubStatusActive {
			continue
		}
		if latest == nil || s.EndDate.After(latest.EndDate) {
			latest = s
		}
	}
	return latest, nil
}

func (m *memSubs) ListByUser(ctx context.Context, userID string) ([]*domain.SubscriptionResponse, error) {
	var out []*domain.SubscriptionResponse
	for _, s := range m.subs {
		if s.UserID == userID {
			out = append(out, &domain.SubscriptionResponse{Subscription: *s})
		}
	}
	return out, nil
}

func (m *memSubs) ListAll(ctx context.Context) ([]*domain.SubscriptionResponse, error) {
	var out []*domain.SubscriptionResponse
	for _, s := range m.subs {
		out = append(out, &domain.SubscriptionResponse{Subscription: *s})
	}
	return out, nil
}

func (m *memSubs) CreatePaid(ctx context.Context, sub *domain.Subscription, rec *domain.Transaction, payerWalletID, agencyOwnerUserID, clientID string) error {
	payer, ok := m.wallets.wallets[payerWalletID]
	if !ok {
		return domain.ErrNotFound("wallet not found")
	}
	if payer.Balance < rec.Amount {
		return domain.ErrInsufficientFunds("insufficient wallet balance")
	}

	owner := m.wallets.byUser(agencyOwnerUserID)
	if owner == nil {
		owner = m.wallets.add(agencyOwnerUserID, 0)
	}
	payer.Balance -= rec.Amount
	owner.Balance += rec.Amount
	rec.DestWalletID = owner.ID
	rec.Status = domain.TxStatusCompleted
	m.wallets.txs = append(m.wallets.txs, rec)

	if c, ok := m.clients.clients[clientID]; ok {
		agencyID := sub.AgencyID
		c.SubscribedAgencyID = &agencyID
	}
	if m.roster[sub.AgencyID] == nil {
		m.roster[sub.AgencyID] = make(map[string]bool)
	}
	m.roster[sub.AgencyID][clientID] = true

	cp := *sub
	m.subs[sub.ID] = &cp
	return nil
}

func (m *memSubs) ListExpiring(ctx context.Context, now, cutoff time.Time) ([]*domain.Subscription, error) {
	var out []*domain.Subscription
	for _, s := range m.subs {
		if s.Status == domain.SubStatusActive && !s.RenewalNotified &&
			s.EndDate.After(now) && !s.EndDate.After(cutoff) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSubs) MarkRenewalNotified(ctx context.Context, id string) error {
	if m.markErr != nil {
		return m.markErr
	}
	if s, ok := m.subs[id]; ok {
		s.RenewalNotified = true
	}
	return nil
}

func (m *memSubs) ListExpired(ctx context.Context, now time.Time) ([]*domain.Subscription, error) {
	var out []*domain.Subscription
	for _, s := range m.subs {
		if s.Status == domain.SubStatusActive && !s.EndDate.After(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSubs) Expire(ctx context.Context, sub *domain.Subscription) error {
	if err := m.expireErr[sub.ID]; err != nil {
		return err
	}
	stored, ok := m.subs[sub.ID]
	if !ok || stored.Status != domain.SubStatusActive {
		return nil
	}
	stored.Status = domain.SubStatusCanceled

	if c, _ := m.clients.FindByUser(ctx, stored.UserID); c != nil {
		delete(m.roster[stored.AgencyID], c.ID)
		if c.SubscribedAgencyID != nil && *c.SubscribedAgencyID == stored.AgencyID {
			c.SubscribedAgencyID = nil
		}
	}
	return nil
}

type memZones struct {
	zones map[string]*domain.Zone
}

func newMemZones() *memZones {
	return &memZones{zones: make(map[string]*domain.Zone)}
}

func (m *memZones) add(agencyID string) *domain.Zone {
	z := &domain.Zone{ID: domain.NewID(), AgencyID: agencyID, Name: "Bonapriso", District: "Littoral"}
	m.zones[z.ID] = z
	return z
}

func (m *memZones) FindByID(ctx context.Context, id string) (*domain.Zone, error) {
	return m.zones[id], nil
}

type memEmployees struct {
	employees map[string]*domain.Employee
}

func newMemEmployees() *memEmployees {
	return &memEmployees{employees: make(map[string]*domain.Employee)}
}

func (m *memEmployees) add(agencyID, userID, job string) *domain.Employee {
	e := &domain.Employee{ID: domain.NewID(), AgencyID: agencyID, UserID: userID, Job: job, Active: true}
	m.employees[e.ID] = e
	return e
}

func (m *memEmployees) FindByID(ctx context.Context, id string) (*domain.Employee, error) {
	return m.employees[id], nil
}

func (m *memEmployees) FindByUserAndAgency(ctx context.Context, userID, agencyID string) (*domain.Employee, error) {
	for _, e := range m.employees {
		if e.UserID == userID && e.AgencyID == agencyID {
			return e, nil
		}
	}
	return nil, nil
}

type memRounds struct {
	rounds map[string]*domain.CollectionRound
	scans  []*domain.CollectionScan
}

func newMemRounds() *memRounds {
	return &memRounds{rounds: make(map[string]*domain.CollectionRound)}
}

func (m *memRounds) CreateRound(ctx context.Context, round *domain.CollectionRound) error {
	m.rounds[round.ID] = round
	return nil
}

func (m *memRounds) FindRound(ctx context.Context, id string) (*domain.CollectionRound, error) {
	return m.rounds[id], nil
}

func (m *memRounds) ListRoundsByAgency(ctx context.Context, agencyID string) ([]*domain.CollectionRound, error) {
	var out []*domain.CollectionRound
	for _, r := range m.rounds {
		if r.AgencyID == agencyID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRounds) UpdateRoundStatus(ctx context.Context, id, from, to string) (bool, error) {
	r, ok := m.rounds[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	return true, nil
}

func (m *memRounds) DeactivateFinished(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, r := range m.rounds {
		if r.Status == domain.RoundStatusActive && r.EndsAt.Before(now) {
			r.Status = domain.RoundStatusCompleted
			n++
		}
	}
	return n, nil
}

func (m *memRounds) CreateScan(ctx context.Context, s *domain.CollectionScan) error {
	for _, existing := range m.scans {
		if existing.RoundID == s.RoundID && existing.ClientID == s.ClientID {
			return domain.ErrConflict("client already scanned in this round")
		}
	}
	m.scans = append(m.scans, s)
	return nil
}

func (m *memRounds) ListScansByRound(ctx context.Context, roundID string) ([]*domain.CollectionScan, error) {
	var out []*domain.CollectionScan
	for _, s := range m.scans {
		if s.RoundID == roundID {
			out = append(out, s)
		}
	}
	return out, nil
}

type capturePublisher struct {
	agencyIDs []string
	scans     []*domain.CollectionScan
}

func (p *capturePublisher) PublishScan(agencyID string, scan *domain.CollectionScan) {
	p.agencyIDs = append(p.agencyIDs, agencyID)
	p.scans = append(p.scans, scan)
}
