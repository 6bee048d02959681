package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"billed/internal/core"
	"billed/internal/store"
)

var (
	_ store.BillStore     = (*Repository)(nil)
	_ store.BillGetter    = (*Repository)(nil)
	_ store.EmailLister   = (*Repository)(nil)
	_ store.ReceiptReader = (*Repository)(nil)
	_ store.UserStore     = (*Repository)(nil)
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
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

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const billColumns = `id, date, status, amount_cents, vat_cents, pct, type, name,
	commentary, comment_admin, file_url, file_name, email`

// List returns every bill, latest date first.
func (r *Repository) List(ctx context.Context) ([]core.Bill, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+billColumns+` FROM bills ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()
	return scanBills(rows)
}

// ListByEmail returns the bills of one employee, latest date first.
func (r *Repository) ListByEmail(ctx context.Context, email string) ([]core.Bill, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+billColumns+` FROM bills
		WHERE email = ? COLLATE NOCASE ORDER BY date DESC, created_at DESC`, email)
	if err != nil {
		return nil, fmt.Errorf("list bills of %s: %w", email, err)
	}
	defer rows.Close()
	return scanBills(rows)
}

// Create inserts the receipt and the bill in one transaction.
func (r *Repository) Create(ctx context.Context, nb store.NewBill) (core.Bill, error) {
	b := nb.Bill
	if b.Status == "" {
		b.Status = core.StatusPending
	}
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	b.ID = uuid.NewString()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Bill{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var receiptID sql.NullString
	if nb.Receipt != nil {
		receiptID = sql.NullString{String: uuid.NewString(), Valid: true}
		ct := nb.Receipt.ContentType
		if ct == "" {
			ct = core.ContentTypeFor(nb.Receipt.Name)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO receipts (id, name, content_type, data) VALUES (?, ?, ?, ?)`,
			receiptID.String, nb.Receipt.Name, ct, nb.Receipt.Data); err != nil {
			return core.Bill{}, fmt.Errorf("insert receipt: %w", err)
		}
		b.FileName = nb.Receipt.Name
		b.FileURL = store.ReceiptURL(receiptID.String)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO bills (`+billColumns+`, receipt_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Date, string(b.Status), b.Amount.Cents, b.VAT.Cents, b.Pct, b.Type, b.Name,
		b.Commentary, b.CommentAdmin, b.FileURL, b.FileName, b.Email, receiptID); err != nil {
		return core.Bill{}, fmt.Errorf("insert bill: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Bill{}, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Bill saved to SQLite",
		"id", b.ID,
		"email", b.Email,
		"amount_cents", b.Amount.Cents,
		"date", b.Date)
	return b, nil
}

func (r *Repository) Get(ctx context.Context, id string) (core.Bill, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+billColumns+` FROM bills WHERE id = ?`, id)
	if err != nil {
		return core.Bill{}, fmt.Errorf("get bill: %w", err)
	}
	defer rows.Close()
	bills, err := scanBills(rows)
	if err != nil {
		return core.Bill{}, err
	}
	if len(bills) == 0 {
		return core.Bill{}, fmt.Errorf("bill %s: %w", id, core.ErrNotFound)
	}
	return bills[0], nil
}

func (r *Repository) Receipt(ctx context.Context, id string) (core.Receipt, error) {
	rec := core.Receipt{ID: id}
	err := r.db.QueryRowContext(ctx,
		`SELECT name, content_type, data FROM receipts WHERE id = ?`, id).
		Scan(&rec.Name, &rec.ContentType, &rec.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Receipt{}, fmt.Errorf("receipt %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Receipt{}, fmt.Errorf("get receipt: %w", err)
	}
	return rec, nil
}

// PendingExport returns up to limit bills not yet exported, oldest first.
func (r *Repository) PendingExport(ctx context.Context, limit int) ([]core.Bill, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+billColumns+` FROM bills
		WHERE exported_at IS NULL ORDER BY created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending export bills: %w", err)
	}
	defer rows.Close()
	return scanBills(rows)
}

// IsExported reports whether the bill has been written to the export sheet.
func (r *Repository) IsExported(ctx context.Context, id string) (bool, error) {
	var exported bool
	err := r.db.QueryRowContext(ctx,
		`SELECT exported_at IS NOT NULL FROM bills WHERE id = ?`, id).Scan(&exported)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("bill %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("check bill export: %w", err)
	}
	return exported, nil
}

// MarkExported records that a bill has been written to the export sheet.
func (r *Repository) MarkExported(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bills SET exported_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark bill exported: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("bill %s: %w", id, core.ErrNotFound)
	}
	slog.InfoContext(ctx, "Bill marked as exported", "id", id)
	return nil
}

func (r *Repository) CreateUser(ctx context.Context, u core.User) error {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, type, password_hash) VALUES (?, ?, ?)`,
		email, string(u.Type), u.PasswordHash); err != nil {
		return fmt.Errorf("create user %s: %w", email, err)
	}
	return nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	var u core.User
	var typ string
	err := r.db.QueryRowContext(ctx,
		`SELECT email, type, password_hash FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email))).Scan(&u.Email, &typ, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("user %s: %w", email, core.ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u.Type = core.UserType(typ)
	return u, nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT email, type, password_hash FROM users ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		var u core.User
		var typ string
		if err := rows.Scan(&u.Email, &typ, &u.PasswordHash); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Type = core.UserType(typ)
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanBills(rows *sql.Rows) ([]core.Bill, error) {
	bills := []core.Bill{}
	for rows.Next() {
		var b core.Bill
		var status string
		if err := rows.Scan(&b.ID, &b.Date, &status, &b.Amount.Cents, &b.VAT.Cents, &b.Pct,
			&b.Type, &b.Name, &b.Commentary, &b.CommentAdmin, &b.FileURL, &b.FileName, &b.Email); err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		b.Status = core.Status(status)
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bills: %w", err)
	}
	return bills, nil
}
