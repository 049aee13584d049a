package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/diagnosis/restaurant-management/pkg/events"
	"github.com/diagnosis/restaurant-management/services/identity/internal/domain"
	"github.com/diagnosis/restaurant-management/services/identity/internal/repository"
)

// memStore is an in-memory repository.Store. InTx snapshots state and
// restores it when fn fails, mirroring a database rollback.
type memStore struct {
	accounts map[uuid.UUID]domain.Account
	codes    []domain.VerificationCode
	roles    map[uuid.UUID][]domain.RoleGrant
	inTx     bool

	failCodeCreate error
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[uuid.UUID]domain.Account{},
		roles:    map[uuid.UUID][]domain.RoleGrant{},
	}
}

func (s *memStore) Accounts() repository.AccountRepository           { return memAccounts{s} }
func (s *memStore) Verifications() repository.VerificationRepository { return memCodes{s} }
func (s *memStore) Roles() repository.RoleRepository                 { return memRoles{s} }

func (s *memStore) InTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	accounts := make(map[uuid.UUID]domain.Account, len(s.accounts))
	for k, v := range s.accounts {
		accounts[k] = v
	}
	codes := append([]domain.VerificationCode(nil), s.codes...)

	s.inTx = true
	err := fn(s)
	s.inTx = false
	if err != nil {
		s.accounts = accounts
		s.codes = codes
	}
	return err
}

func (s *memStore) account(email string) *domain.Account {
	for _, a := range s.accounts {
		if a.Email == email {
			a := a
			return &a
		}
	}
	return nil
}

func (s *memStore) codesFor(id uuid.UUID) []domain.VerificationCode {
	var out []domain.VerificationCode
	for _, c := range s.codes {
		if c.AccountID == id {
			out = append(out, c)
		}
	}
	return out
}

type memAccounts struct{ s *memStore }

func (r memAccounts) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	return r.s.account(email), nil
}

func (r memAccounts) FindByEmailForUpdate(ctx context.Context, email string) (*domain.Account, error) {
	return r.FindByEmail(ctx, email)
}

func (r memAccounts) FindByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r memAccounts) Create(_ context.Context, acc *domain.Account) error {
	if r.s.account(acc.Email) != nil {
		return repository.ErrDuplicateEmail
	}
	acc.ID = uuid.New()
	acc.CreatedAt = time.Now().UTC()
	acc.UpdatedAt = acc.CreatedAt
	r.s.accounts[acc.ID] = *acc
	return nil
}

func (r memAccounts) Update(_ context.Context, acc *domain.Account) error {
	acc.UpdatedAt = time.Now().UTC()
	r.s.accounts[acc.ID] = *acc
	return nil
}

type memCodes struct{ s *memStore }

func (r memCodes) Create(_ context.Context, code *domain.VerificationCode) error {
	if r.s.failCodeCreate != nil {
		return r.s.failCodeCreate
	}
	code.ID = uuid.New()
	r.s.codes = append(r.s.codes, *code)
	return nil
}

func (r memCodes) Latest(_ context.Context, accountID uuid.UUID) (*domain.VerificationCode, error) {
	for i := len(r.s.codes) - 1; i >= 0; i-- {
		if r.s.codes[i].AccountID == accountID {
			c := r.s.codes[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (r memCodes) LatestActive(_ context.Context, accountID uuid.UUID, now time.Time) (*domain.VerificationCode, error) {
	for i := len(r.s.codes) - 1; i >= 0; i-- {
		c := r.s.codes[i]
		if c.AccountID == accountID && c.Active(now) {
			return &c, nil
		}
	}
	return nil, nil
}

func (r memCodes) MarkUsed(_ context.Context, id uuid.UUID) error {
	for i := range r.s.codes {
		if r.s.codes[i].ID == id {
			r.s.codes[i].IsUsed = true
		}
	}
	return nil
}

func (r memCodes) InvalidateActive(_ context.Context, accountID uuid.UUID) (int64, error) {
	var n int64
	for i := range r.s.codes {
		if r.s.codes[i].AccountID == accountID && !r.s.codes[i].IsUsed {
			r.s.codes[i].IsUsed = true
			n++
		}
	}
	return n, nil
}

type memRoles struct{ s *memStore }

func (r memRoles) ListForAccount(_ context.Context, accountID uuid.UUID) ([]domain.RoleGrant, error) {
	return r.s.roles[accountID], nil
}

type sentMail struct {
	to, name, code string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendVerificationEmail(_ context.Context, toEmail, toName, code string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: toEmail, name: toName, code: code})
	return nil
}

func (m *fakeMailer) last() sentMail {
	if len(m.sent) == 0 {
		return sentMail{}
	}
	return m.sent[len(m.sent)-1]
}

type fakeBus struct {
	mu       sync.Mutex
	subjects []string
}

func (b *fakeBus) Publish(_ context.Context, subject string, _ interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subjects = append(b.subjects, subject)
	return nil
}

func (b *fakeBus) Close() error { return nil }

func (b *fakeBus) count(subject string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, s := range b.subjects {
		if s == subject {
			n++
		}
	}
	return n
}

var _ events.Publisher = (*fakeBus)(nil)
