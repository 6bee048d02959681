package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"billed/internal/core"
	"billed/internal/store"
)

// Ensure interface conformance
var (
	_ store.BillStore     = (*Store)(nil)
	_ store.BillGetter    = (*Store)(nil)
	_ store.EmailLister   = (*Store)(nil)
	_ store.ReceiptReader = (*Store)(nil)
	_ store.UserStore     = (*Store)(nil)
)

type Store struct {
	mu       sync.Mutex
	bills    []core.Bill
	receipts map[string]core.Receipt
	users    map[string]core.User
}

func New(bills []core.Bill) *Store {
	return &Store{
		bills:    append([]core.Bill(nil), bills...),
		receipts: make(map[string]core.Receipt),
		users:    make(map[string]core.User),
	}
}

// NewFromFiles seeds the store from base/bills.json when present, falling
// back to the built-in fixtures, and registers the demo accounts.
func NewFromFiles(base string) *Store {
	bills := readBills(filepath.Join(base, "bills.json"))
	if len(bills) == 0 {
		bills = Fixtures()
	}
	s := New(bills)
	for _, u := range []struct {
		email, password string
		typ             core.UserType
	}{
		{DemoEmployee, "employee", core.UserTypeEmployee},
		{DemoAdmin, "admin", core.UserTypeAdmin},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			slog.Warn("Failed to hash demo password", "email", u.email, "error", err)
			continue
		}
		s.users[u.email] = core.User{Email: u.email, Type: u.typ, PasswordHash: string(hash)}
	}
	return s
}

// List returns the bills sorted by raw date, latest first.
func (s *Store) List(_ context.Context) ([]core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Bill(nil), s.bills...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

// ListByEmail returns the bills of one employee, latest first.
func (s *Store) ListByEmail(ctx context.Context, email string) ([]core.Bill, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Bill, 0, len(all))
	for _, b := range all {
		if strings.EqualFold(b.Email, email) {
			out = append(out, b)
		}
	}
	return out, nil
}

// Create stores the bill and its receipt.
func (s *Store) Create(_ context.Context, nb store.NewBill) (core.Bill, error) {
	b := nb.Bill
	if b.Status == "" {
		b.Status = core.StatusPending
	}
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = uuid.NewString()
	if nb.Receipt != nil {
		r := *nb.Receipt
		r.ID = uuid.NewString()
		s.receipts[r.ID] = r
		b.FileName = r.Name
		b.FileURL = store.ReceiptURL(r.ID)
	}
	s.bills = append(s.bills, b)
	return b, nil
}

// Get returns the bill with the given id.
func (s *Store) Get(_ context.Context, id string) (core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bills {
		if b.ID == id {
			return b, nil
		}
	}
	return core.Bill{}, fmt.Errorf("bill %s: %w", id, core.ErrNotFound)
}

// Receipt returns an uploaded receipt.
func (s *Store) Receipt(_ context.Context, id string) (core.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.receipts[id]
	if !ok {
		return core.Receipt{}, fmt.Errorf("receipt %s: %w", id, core.ErrNotFound)
	}
	return r, nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(u.Email))
	if _, ok := s.users[email]; ok {
		return fmt.Errorf("user %s already exists", email)
	}
	u.Email = email
	s.users[email] = u
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return core.User{}, fmt.Errorf("user %s: %w", email, core.ErrNotFound)
	}
	return u, nil
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func readBills(path string) []core.Bill {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var wire []store.WireBill
	if err := json.Unmarshal(data, &wire); err != nil {
		slog.Warn("Ignoring malformed bills seed file", "path", path, "error", err)
		return nil
	}
	out := make([]core.Bill, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.ToCore())
	}
	return out
}
