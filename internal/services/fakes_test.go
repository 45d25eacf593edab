package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/xcellar-wallet/internal/models"
	"github.com/sbilibin2017/xcellar-wallet/internal/repositories"
	"github.com/shopspring/decimal"
)

type fakeTxKey struct{}

// fakeLedger is an in-memory ledger. Units of work run one at a time and roll
// back every write when fn fails, like a serializable database.
type fakeLedger struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users         map[uuid.UUID]*models.UserDB
	balances      map[uuid.UUID]decimal.Decimal
	txs           map[string]models.TransactionDB
	notifications map[string]models.NotificationDB
	credits       int

	emailLookups int
	// GetByEmail reports not found this many times first
	missingLookups int
	createErrs     []error
	creditErr      error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		users:         map[uuid.UUID]*models.UserDB{},
		balances:      map[uuid.UUID]decimal.Decimal{},
		txs:           map[string]models.TransactionDB{},
		notifications: map[string]models.NotificationDB{},
	}
}

func (f *fakeLedger) addUser(email string, userType models.UserType, withProfile bool) *models.UserDB {
	f.mu.Lock()
	defer f.mu.Unlock()

	u := &models.UserDB{UserID: uuid.New(), Email: email, UserType: userType, IsActive: true}
	f.users[u.UserID] = u
	if withProfile {
		f.balances[u.UserID] = decimal.Zero
	}
	return u
}

func (f *fakeLedger) deleteUser(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
}

// seedPending stores a PENDING deposit created age ago.
func (f *fakeLedger) seedPending(reference string, userID uuid.UUID, amount string, age time.Duration) models.TransactionDB {
	f.mu.Lock()
	defer f.mu.Unlock()

	a := decimal.RequireFromString(amount)
	txn := models.TransactionDB{
		ID:            uuid.New(),
		UserID:        userID,
		Type:          models.TransactionDeposit,
		Status:        models.StatusPending,
		PaymentMethod: models.PaymentDVA,
		Amount:        a,
		NetAmount:     a,
		Reference:     reference,
		Metadata:      []byte("{}"),
		CreatedAt:     time.Now().Add(-age),
	}
	f.txs[reference] = txn
	return txn
}

func (f *fakeLedger) balance(id uuid.UUID) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[id]
}

func (f *fakeLedger) tx(reference string) models.TransactionDB {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.txs[reference]
}

func (f *fakeLedger) creditCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.credits
}

func (f *fakeLedger) notificationCount(txnID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.notifications {
		if v.TransactionID != nil && *v.TransactionID == txnID {
			n++
		}
	}
	return n
}

func (f *fakeLedger) countStatus(status models.Status) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.txs {
		if v.Status == status {
			n++
		}
	}
	return n
}

type fakeSnapshot struct {
	balances      map[uuid.UUID]decimal.Decimal
	txs           map[string]models.TransactionDB
	notifications map[string]models.NotificationDB
	credits       int
}

func (f *fakeLedger) snapshot() fakeSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := fakeSnapshot{
		balances:      make(map[uuid.UUID]decimal.Decimal, len(f.balances)),
		txs:           make(map[string]models.TransactionDB, len(f.txs)),
		notifications: make(map[string]models.NotificationDB, len(f.notifications)),
		credits:       f.credits,
	}
	for k, v := range f.balances {
		s.balances[k] = v
	}
	for k, v := range f.txs {
		s.txs[k] = v
	}
	for k, v := range f.notifications {
		s.notifications[k] = v
	}
	return s
}

func (f *fakeLedger) restore(s fakeSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances, f.txs, f.notifications, f.credits = s.balances, s.txs, s.notifications, s.credits
}

// --- TxManager ---

func (f *fakeLedger) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}

	f.txMu.Lock()
	defer f.txMu.Unlock()

	snap := f.snapshot()
	if err := fn(context.WithValue(ctx, fakeTxKey{}, true)); err != nil {
		f.restore(snap)
		return err
	}
	return nil
}

// --- UserReader ---

func (f *fakeLedger) GetByEmail(ctx context.Context, email string) (*models.UserDB, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.emailLookups++
	if f.emailLookups <= f.missingLookups {
		return nil, repositories.ErrUserNotFound
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeLedger) GetByID(ctx context.Context, userID uuid.UUID) (*models.UserDB, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// --- TransactionStore ---

func (f *fakeLedger) Create(ctx context.Context, t *models.TransactionDB) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return false, err
		}
	}
	if _, ok := f.txs[t.Reference]; ok {
		return false, nil
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if len(t.Metadata) == 0 {
		t.Metadata = []byte("{}")
	}
	t.CreatedAt, t.UpdatedAt = time.Now(), time.Now()
	f.txs[t.Reference] = *t
	return true, nil
}

func (f *fakeLedger) GetByReference(ctx context.Context, reference string) (*models.TransactionDB, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.txs[reference]
	if !ok {
		return nil, repositories.ErrTransactionNotFound
	}
	return &t, nil
}

func (f *fakeLedger) GetByReferenceForUpdate(ctx context.Context, reference string) (*models.TransactionDB, error) {
	return f.GetByReference(ctx, reference)
}

func (f *fakeLedger) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.Status, metadata map[string]any) error {
	if !models.CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", repositories.ErrInvalidTransition, from, to)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for ref, t := range f.txs {
		if t.ID != id {
			continue
		}
		if t.Status != from {
			return repositories.ErrStatusConflict
		}
		t.Status = to
		if to == models.StatusSuccess {
			now := time.Now()
			t.CompletedAt = &now
		}
		doc := map[string]any{}
		_ = json.Unmarshal(t.Metadata, &doc)
		for k, v := range metadata {
			doc[k] = v
		}
		t.Metadata, _ = json.Marshal(doc)
		f.txs[ref] = t
		return nil
	}
	return repositories.ErrStatusConflict
}

func (f *fakeLedger) ListPendingBefore(ctx context.Context, txType models.TransactionType, before time.Time, limit int) ([]models.TransactionDB, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.TransactionDB
	for _, t := range f.txs {
		if t.Type == txType && t.Status == models.StatusPending && t.CreatedAt.Before(before) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeLedger) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.TransactionDB, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.TransactionDB
	for _, t := range f.txs {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

// --- BalanceStore ---

func (f *fakeLedger) CreateProfile(ctx context.Context, userType models.UserType, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.balances[userID]; !ok {
		f.balances[userID] = decimal.Zero
	}
	return nil
}

func (f *fakeLedger) Credit(ctx context.Context, userType models.UserType, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if !userType.HasBalance() {
		return decimal.Zero, repositories.ErrUnknownAccountType
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.creditErr != nil {
		return decimal.Zero, f.creditErr
	}
	b, ok := f.balances[userID]
	if !ok {
		return decimal.Zero, repositories.ErrProfileNotFound
	}
	b = b.Add(amount)
	f.balances[userID] = b
	f.credits++
	return b, nil
}

func (f *fakeLedger) Debit(ctx context.Context, userType models.UserType, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.balances[userID]
	if !ok || b.LessThan(amount) {
		return decimal.Zero, repositories.ErrInsufficientFunds
	}
	b = b.Sub(amount)
	f.balances[userID] = b
	return b, nil
}

func (f *fakeLedger) GetBalance(ctx context.Context, userType models.UserType, userID uuid.UUID) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.balances[userID]
	if !ok {
		return decimal.Zero, repositories.ErrProfileNotFound
	}
	return b, nil
}

// fakeNotifications adapts fakeLedger to NotificationStore; its Create would
// clash with the transaction store's.
type fakeNotifications struct {
	l *fakeLedger
}

func (n fakeNotifications) Create(ctx context.Context, notification *models.NotificationDB) (bool, error) {
	n.l.mu.Lock()
	defer n.l.mu.Unlock()

	key := string(notification.Type)
	if notification.TransactionID != nil {
		key = notification.TransactionID.String() + "/" + key
	}
	if _, ok := n.l.notifications[key]; ok {
		return false, nil
	}
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	n.l.notifications[key] = *notification
	return true, nil
}

func (n fakeNotifications) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.NotificationDB, error) {
	return nil, nil
}

func (n fakeNotifications) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return nil
}

// --- gateway, publisher, workflows ---

// fakeGateway reports the amount recorded in its ledger unless setAmount
// overrides it.
type fakeGateway struct {
	mu       sync.Mutex
	ledger   *fakeLedger
	statuses map[string]string
	amounts  map[string]int64
	errs     map[string]error
	calls    map[string]int
	onVerify func(reference string)
}

func newFakeGateway(l *fakeLedger) *fakeGateway {
	return &fakeGateway{
		ledger:   l,
		statuses: map[string]string{},
		amounts:  map[string]int64{},
		errs:     map[string]error{},
		calls:    map[string]int{},
	}
}

func (g *fakeGateway) setAmount(reference string, minor int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.amounts[reference] = minor
}

func (g *fakeGateway) set(reference, vendorStatus string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[reference] = vendorStatus
}

func (g *fakeGateway) VerifyTransaction(ctx context.Context, reference string) (*models.GatewayVerification, error) {
	g.mu.Lock()
	g.calls[reference]++
	status, err, hook := g.statuses[reference], g.errs[reference], g.onVerify
	amount, ok := g.amounts[reference]
	g.mu.Unlock()

	if hook != nil {
		hook(reference)
	}
	if err != nil {
		return nil, err
	}
	if !ok && g.ledger != nil {
		amount = models.ToMinorUnits(g.ledger.tx(reference).Amount)
	}
	return &models.GatewayVerification{
		Reference:    reference,
		VendorStatus: status,
		Status:       models.MapGatewayStatus(status),
		AmountMinor:  amount,
	}, nil
}

func (g *fakeGateway) InitializeTransaction(ctx context.Context, email string, amountMinor int64, reference string) (*models.GatewayCheckout, error) {
	return &models.GatewayCheckout{Reference: reference}, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []models.TransactionEvent
}

func (p *fakePublisher) Publish(ctx context.Context, event models.TransactionEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fakeFirer struct {
	mu    sync.Mutex
	fired []string
}

func (w *fakeFirer) Fire(ctx context.Context, workflowID, name string, data map[string]any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fired = append(w.fired, name)
}

func (w *fakeFirer) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.fired)
}
