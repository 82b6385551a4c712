/*
Package sqlite provides the SQLite-backed implementation of the
storage interfaces.

PURPOSE:
  Implements ledger.TxStore, ledger.AuditLog, documents.AssetStore and
  documents.StockLevels on a single SQLite database, so one *Store can
  back the posting engine, report layer and all document adapters.

IMMUTABILITY:
  - journal_entries and journal_entry_lines take INSERTs only, plus
    the single status flip in MarkReversed (guarded to posted rows)
  - No DELETE statements exist for entries, lines or audit rows
  - Corrections happen via reversal entries

NUMBERING:
  Entry numbers decompose into (prefix, year, seq) columns with a
  unique index, so sequence allocation is a MAX() per prefix and year
  and duplicate numbers are rejected by the database itself.

WAL MODE:
  Opened with WAL and foreign keys on; ":memory:" works for tests.

SEE ALSO:
  - ledger/store.go: Interface definitions
  - ledger/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/gearupae/gearuperp/documents"
	"github.com/gearupae/gearuperp/ledger"
)

const dateFormat = "2006-01-02"

// dbtx is the subset of *sql.DB and *sql.Tx the queries need.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
	queries
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, queries: queries{db: db}}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		category TEXT,
		is_contra BOOLEAN NOT NULL DEFAULT FALSE,
		is_system BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		opening_balance TEXT NOT NULL DEFAULT '0'
	);

	CREATE TABLE IF NOT EXISTS account_mappings (
		transaction_type TEXT PRIMARY KEY,
		module TEXT NOT NULL,
		account_code TEXT NOT NULL REFERENCES accounts(code)
	);

	CREATE TABLE IF NOT EXISTS tax_codes (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		rate TEXT NOT NULL DEFAULT '0',
		tax_type TEXT NOT NULL,
		sales_account_code TEXT,
		purchase_account_code TEXT,
		is_default BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE TABLE IF NOT EXISTS fiscal_years (
		code TEXT PRIMARY KEY,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		is_closed BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE TABLE IF NOT EXISTS accounting_periods (
		name TEXT PRIMARY KEY,
		fiscal_year_code TEXT NOT NULL REFERENCES fiscal_years(code),
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		is_locked BOOLEAN NOT NULL DEFAULT FALSE
	);

	-- Insert-only; MarkReversed flips status once
	CREATE TABLE IF NOT EXISTS journal_entries (
		entry_number TEXT PRIMARY KEY,
		prefix TEXT NOT NULL,
		entry_year INTEGER NOT NULL,
		entry_seq INTEGER NOT NULL,
		date TEXT NOT NULL,
		reference TEXT,
		description TEXT,
		entry_type TEXT NOT NULL,
		source_module TEXT,
		status TEXT NOT NULL,
		total_debit TEXT NOT NULL,
		total_credit TEXT NOT NULL,
		system_generated BOOLEAN NOT NULL DEFAULT FALSE,
		posted_by TEXT,
		posted_at TEXT,
		reversed_by TEXT,
		reversal_of TEXT
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_sequence
		ON journal_entries(prefix, entry_year, entry_seq);
	CREATE INDEX IF NOT EXISTS idx_entries_date
		ON journal_entries(date);
	CREATE INDEX IF NOT EXISTS idx_entries_reference
		ON journal_entries(reference) WHERE reference IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_entries_source
		ON journal_entries(source_module);

	CREATE TABLE IF NOT EXISTS journal_entry_lines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entry_number TEXT NOT NULL REFERENCES journal_entries(entry_number),
		line_no INTEGER NOT NULL,
		account_code TEXT NOT NULL REFERENCES accounts(code),
		description TEXT,
		debit TEXT NOT NULL DEFAULT '0',
		credit TEXT NOT NULL DEFAULT '0'
	);

	CREATE INDEX IF NOT EXISTS idx_lines_entry
		ON journal_entry_lines(entry_number);
	-- Balance queries join lines to entries by account (hot path)
	CREATE INDEX IF NOT EXISTS idx_lines_account
		ON journal_entry_lines(account_code);

	-- Append-only audit trail
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at TEXT NOT NULL,
		actor TEXT NOT NULL,
		action TEXT NOT NULL,
		entry_number TEXT,
		changes_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_audit_entry
		ON audit_log(entry_number);

	-- Fixed asset register
	CREATE TABLE IF NOT EXISTS assets (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		cost TEXT NOT NULL,
		salvage TEXT NOT NULL DEFAULT '0',
		useful_life_months INTEGER NOT NULL,
		method TEXT NOT NULL,
		acquired_on TEXT,
		accumulated_depreciation TEXT NOT NULL DEFAULT '0',
		disposed BOOLEAN NOT NULL DEFAULT FALSE
	);

	-- On-hand quantity per item
	CREATE TABLE IF NOT EXISTS stock_items (
		item_code TEXT PRIMARY KEY,
		on_hand TEXT NOT NULL DEFAULT '0'
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&queries{db: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// queries holds every storage method; it runs against either the
// database handle or an open transaction.
type queries struct {
	db dbtx
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (q *queries) SaveAccount(ctx context.Context, a ledger.Account) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO accounts (code, name, type, category, is_contra, is_system, is_active, opening_balance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			category = excluded.category,
			is_contra = excluded.is_contra,
			is_system = excluded.is_system,
			is_active = excluded.is_active,
			opening_balance = excluded.opening_balance
	`, a.Code, a.Name, a.Type, a.Category, a.IsContra, a.IsSystem, a.IsActive, a.OpeningBalance.String())
	return err
}

func (q *queries) GetAccount(ctx context.Context, code string) (*ledger.Account, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT code, name, type, category, is_contra, is_system, is_active, opening_balance
		FROM accounts WHERE code = ?
	`, code)

	var a ledger.Account
	var category sql.NullString
	var opening string
	err := row.Scan(&a.Code, &a.Name, &a.Type, &category, &a.IsContra, &a.IsSystem, &a.IsActive, &opening)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.Category = category.String
	a.OpeningBalance = mustParse(opening)
	return &a, nil
}

func (q *queries) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT code, name, type, category, is_contra, is_system, is_active, opening_balance
		FROM accounts ORDER BY code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		var a ledger.Account
		var category sql.NullString
		var opening string
		if err := rows.Scan(&a.Code, &a.Name, &a.Type, &category, &a.IsContra, &a.IsSystem, &a.IsActive, &opening); err != nil {
			return nil, err
		}
		a.Category = category.String
		a.OpeningBalance = mustParse(opening)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// =============================================================================
// ACCOUNT MAPPINGS
// =============================================================================

func (q *queries) SaveMapping(ctx context.Context, m ledger.AccountMapping) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO account_mappings (transaction_type, module, account_code)
		VALUES (?, ?, ?)
		ON CONFLICT(transaction_type) DO UPDATE SET
			module = excluded.module,
			account_code = excluded.account_code
	`, m.TransactionType, m.Module, m.AccountCode)
	return err
}

func (q *queries) GetMapping(ctx context.Context, transactionType string) (*ledger.AccountMapping, error) {
	var m ledger.AccountMapping
	err := q.db.QueryRowContext(ctx, `
		SELECT transaction_type, module, account_code FROM account_mappings WHERE transaction_type = ?
	`, transactionType).Scan(&m.TransactionType, &m.Module, &m.AccountCode)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (q *queries) ListMappings(ctx context.Context) ([]ledger.AccountMapping, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT transaction_type, module, account_code FROM account_mappings ORDER BY transaction_type
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mappings []ledger.AccountMapping
	for rows.Next() {
		var m ledger.AccountMapping
		if err := rows.Scan(&m.TransactionType, &m.Module, &m.AccountCode); err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

// =============================================================================
// TAX CODES
// =============================================================================

func (q *queries) SaveTaxCode(ctx context.Context, tc ledger.TaxCode) error {
	if tc.IsDefault {
		// Exactly one default at a time.
		if _, err := q.db.ExecContext(ctx, `UPDATE tax_codes SET is_default = FALSE`); err != nil {
			return err
		}
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO tax_codes (code, name, rate, tax_type, sales_account_code, purchase_account_code, is_default)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			rate = excluded.rate,
			tax_type = excluded.tax_type,
			sales_account_code = excluded.sales_account_code,
			purchase_account_code = excluded.purchase_account_code,
			is_default = excluded.is_default
	`, tc.Code, tc.Name, tc.Rate.String(), tc.Type,
		nullString(tc.SalesAccountCode), nullString(tc.PurchaseAccountCode), tc.IsDefault)
	return err
}

func (q *queries) GetTaxCode(ctx context.Context, code string) (*ledger.TaxCode, error) {
	return q.taxCodeWhere(ctx, "code = ?", code)
}

func (q *queries) DefaultTaxCode(ctx context.Context) (*ledger.TaxCode, error) {
	return q.taxCodeWhere(ctx, "is_default = TRUE")
}

func (q *queries) taxCodeWhere(ctx context.Context, where string, args ...any) (*ledger.TaxCode, error) {
	var tc ledger.TaxCode
	var rate string
	var sales, purchase sql.NullString
	err := q.db.QueryRowContext(ctx, `
		SELECT code, name, rate, tax_type, sales_account_code, purchase_account_code, is_default
		FROM tax_codes WHERE `+where+` LIMIT 1
	`, args...).Scan(&tc.Code, &tc.Name, &rate, &tc.Type, &sales, &purchase, &tc.IsDefault)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	tc.Rate = mustParse(rate)
	tc.SalesAccountCode = sales.String
	tc.PurchaseAccountCode = purchase.String
	return &tc, nil
}

func (q *queries) ListTaxCodes(ctx context.Context) ([]ledger.TaxCode, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT code, name, rate, tax_type, sales_account_code, purchase_account_code, is_default
		FROM tax_codes ORDER BY is_default DESC, code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var taxCodes []ledger.TaxCode
	for rows.Next() {
		var tc ledger.TaxCode
		var rate string
		var sales, purchase sql.NullString
		if err := rows.Scan(&tc.Code, &tc.Name, &rate, &tc.Type, &sales, &purchase, &tc.IsDefault); err != nil {
			return nil, err
		}
		tc.Rate = mustParse(rate)
		tc.SalesAccountCode = sales.String
		tc.PurchaseAccountCode = purchase.String
		taxCodes = append(taxCodes, tc)
	}
	return taxCodes, rows.Err()
}

// =============================================================================
// FISCAL CALENDAR
// =============================================================================

func (q *queries) SaveFiscalYear(ctx context.Context, fy ledger.FiscalYear) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO fiscal_years (code, start_date, end_date, is_closed)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			is_closed = excluded.is_closed
	`, fy.Code, fy.Start.Format(dateFormat), fy.End.Format(dateFormat), fy.IsClosed)
	return err
}

// SavePeriod inserts or refreshes a period's boundaries. The lock flag
// is only written on first insert; existing locks belong to
// SetPeriodLock and survive a calendar refresh.
func (q *queries) SavePeriod(ctx context.Context, p ledger.AccountingPeriod) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO accounting_periods (name, fiscal_year_code, start_date, end_date, is_locked)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			fiscal_year_code = excluded.fiscal_year_code,
			start_date = excluded.start_date,
			end_date = excluded.end_date
	`, p.Name, p.FiscalYearCode, p.Start.Format(dateFormat), p.End.Format(dateFormat), p.IsLocked)
	return err
}

func (q *queries) FiscalYearFor(ctx context.Context, date time.Time) (*ledger.FiscalYear, error) {
	d := ledger.DateOnly(date).Format(dateFormat)
	var fy ledger.FiscalYear
	var start, end string
	err := q.db.QueryRowContext(ctx, `
		SELECT code, start_date, end_date, is_closed FROM fiscal_years
		WHERE start_date <= ? AND end_date >= ? LIMIT 1
	`, d, d).Scan(&fy.Code, &start, &end, &fy.IsClosed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	fy.Start, _ = time.Parse(dateFormat, start)
	fy.End, _ = time.Parse(dateFormat, end)
	return &fy, nil
}

func (q *queries) PeriodFor(ctx context.Context, date time.Time) (*ledger.AccountingPeriod, error) {
	d := ledger.DateOnly(date).Format(dateFormat)
	var p ledger.AccountingPeriod
	var start, end string
	err := q.db.QueryRowContext(ctx, `
		SELECT name, fiscal_year_code, start_date, end_date, is_locked FROM accounting_periods
		WHERE start_date <= ? AND end_date >= ? LIMIT 1
	`, d, d).Scan(&p.Name, &p.FiscalYearCode, &start, &end, &p.IsLocked)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Start, _ = time.Parse(dateFormat, start)
	p.End, _ = time.Parse(dateFormat, end)
	return &p, nil
}

func (q *queries) ListPeriods(ctx context.Context) ([]ledger.AccountingPeriod, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT name, fiscal_year_code, start_date, end_date, is_locked FROM accounting_periods
		ORDER BY start_date
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []ledger.AccountingPeriod
	for rows.Next() {
		var p ledger.AccountingPeriod
		var start, end string
		if err := rows.Scan(&p.Name, &p.FiscalYearCode, &start, &end, &p.IsLocked); err != nil {
			return nil, err
		}
		p.Start, _ = time.Parse(dateFormat, start)
		p.End, _ = time.Parse(dateFormat, end)
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (q *queries) SetPeriodLock(ctx context.Context, name string, locked bool) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE accounting_periods SET is_locked = ? WHERE name = ?`, locked, name)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("unknown period %q", name)
	}
	return nil
}

// =============================================================================
// JOURNAL ENTRIES
// =============================================================================

func (q *queries) NextEntrySequence(ctx context.Context, prefix string, year int) (int, error) {
	var maxSeq int
	err := q.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(entry_seq), 0) FROM journal_entries WHERE prefix = ? AND entry_year = ?
	`, prefix, year).Scan(&maxSeq)
	if err != nil {
		return 0, err
	}
	return maxSeq + 1, nil
}

func (q *queries) InsertEntry(ctx context.Context, e *ledger.JournalEntry) error {
	prefix, year, seq, err := ledger.ParseEntryNumber(e.EntryNumber)
	if err != nil {
		return err
	}

	var postedAt any
	if !e.PostedAt.IsZero() {
		postedAt = e.PostedAt.UTC().Format(time.RFC3339)
	}
	_, err = q.db.ExecContext(ctx, `
		INSERT INTO journal_entries
		(entry_number, prefix, entry_year, entry_seq, date, reference, description, entry_type,
		 source_module, status, total_debit, total_credit, system_generated, posted_by, posted_at,
		 reversed_by, reversal_of)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.EntryNumber, prefix, year, seq,
		ledger.DateOnly(e.Date).Format(dateFormat),
		nullString(e.Reference), nullString(e.Description), e.Type, e.SourceModule, e.Status,
		e.TotalDebit.String(), e.TotalCredit.String(), e.SystemGenerated,
		nullString(e.PostedBy), postedAt, nullString(e.ReversedBy), nullString(e.ReversalOf))
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("duplicate entry number %q: %w", e.EntryNumber, err)
		}
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	for i, line := range e.Lines {
		_, err := q.db.ExecContext(ctx, `
			INSERT INTO journal_entry_lines (entry_number, line_no, account_code, description, debit, credit)
			VALUES (?, ?, ?, ?, ?, ?)
		`, e.EntryNumber, i+1, line.AccountCode, nullString(line.Description),
			line.Debit.String(), line.Credit.String())
		if err != nil {
			return fmt.Errorf("failed to insert line %d: %w", i+1, err)
		}
	}
	return nil
}

func (q *queries) GetEntry(ctx context.Context, entryNumber string) (*ledger.JournalEntry, error) {
	entries, err := q.queryEntries(ctx, "WHERE entry_number = ?", entryNumber)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

func (q *queries) ListEntries(ctx context.Context, f ledger.EntryFilter) ([]ledger.JournalEntry, error) {
	where := "WHERE 1=1"
	var args []any
	if f.SourceModule != "" {
		where += " AND source_module = ?"
		args = append(args, f.SourceModule)
	}
	if f.Status != "" {
		where += " AND status = ?"
		args = append(args, f.Status)
	}
	if f.From != nil {
		where += " AND date >= ?"
		args = append(args, ledger.DateOnly(*f.From).Format(dateFormat))
	}
	if f.To != nil {
		where += " AND date <= ?"
		args = append(args, ledger.DateOnly(*f.To).Format(dateFormat))
	}
	return q.queryEntries(ctx, where, args...)
}

func (q *queries) queryEntries(ctx context.Context, where string, args ...any) ([]ledger.JournalEntry, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT entry_number, date, reference, description, entry_type, source_module, status,
		       total_debit, total_credit, system_generated, posted_by, posted_at, reversed_by, reversal_of
		FROM journal_entries `+where+` ORDER BY date, entry_number
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ledger.JournalEntry
	for rows.Next() {
		var e ledger.JournalEntry
		var date string
		var reference, description, postedBy, postedAt, reversedBy, reversalOf sql.NullString
		var totalDebit, totalCredit string
		if err := rows.Scan(&e.EntryNumber, &date, &reference, &description, &e.Type, &e.SourceModule,
			&e.Status, &totalDebit, &totalCredit, &e.SystemGenerated, &postedBy, &postedAt,
			&reversedBy, &reversalOf); err != nil {
			return nil, err
		}
		e.Date, _ = time.Parse(dateFormat, date)
		e.Reference = reference.String
		e.Description = description.String
		e.TotalDebit = mustParse(totalDebit)
		e.TotalCredit = mustParse(totalCredit)
		e.PostedBy = postedBy.String
		if postedAt.Valid {
			e.PostedAt, _ = time.Parse(time.RFC3339, postedAt.String)
		}
		e.ReversedBy = reversedBy.String
		e.ReversalOf = reversalOf.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range entries {
		lines, err := q.entryLines(ctx, entries[i].EntryNumber)
		if err != nil {
			return nil, err
		}
		entries[i].Lines = lines
	}
	return entries, nil
}

func (q *queries) entryLines(ctx context.Context, entryNumber string) ([]ledger.JournalEntryLine, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT account_code, description, debit, credit
		FROM journal_entry_lines WHERE entry_number = ? ORDER BY line_no
	`, entryNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []ledger.JournalEntryLine
	for rows.Next() {
		var line ledger.JournalEntryLine
		var description sql.NullString
		var debit, credit string
		if err := rows.Scan(&line.AccountCode, &description, &debit, &credit); err != nil {
			return nil, err
		}
		line.Description = description.String
		line.Debit = mustParse(debit)
		line.Credit = mustParse(credit)
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// MarkReversed flips a posted entry to reversed. This is the only
// UPDATE the entries table ever sees, and it only touches posted rows.
func (q *queries) MarkReversed(ctx context.Context, entryNumber, reversalNumber string) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE journal_entries SET status = ?, reversed_by = ?
		WHERE entry_number = ? AND status = ?
	`, ledger.StatusReversed, reversalNumber, entryNumber, ledger.StatusPosted)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ledger.ErrEntryNotFound, entryNumber)
	}
	return nil
}

func (q *queries) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	// Reversed entries do not count: a charge reversed as posted in
	// error may be re-posted under the same reference.
	var count int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM journal_entries WHERE reference = ? AND status != ?`,
		reference, ledger.StatusReversed).Scan(&count)
	return count > 0, err
}

// =============================================================================
// POSTED-LINE READ MODEL
// =============================================================================

func (q *queries) PostedLines(ctx context.Context, f ledger.LineFilter) ([]ledger.PostedLine, error) {
	// Reversed entries stay in; their reversal entries cancel them out.
	where := `WHERE e.status IN (?, ?)`
	args := []any{ledger.StatusPosted, ledger.StatusReversed}

	codes := f.AccountCodes
	if f.AccountCode != "" {
		codes = append([]string{f.AccountCode}, codes...)
	}
	if len(codes) > 0 {
		where += " AND l.account_code IN (?" + strings.Repeat(", ?", len(codes)-1) + ")"
		for _, code := range codes {
			args = append(args, code)
		}
	}
	if f.From != nil {
		where += " AND e.date >= ?"
		args = append(args, ledger.DateOnly(*f.From).Format(dateFormat))
	}
	if f.To != nil {
		where += " AND e.date <= ?"
		args = append(args, ledger.DateOnly(*f.To).Format(dateFormat))
	}

	rows, err := q.db.QueryContext(ctx, `
		SELECT e.entry_number, e.date, e.reference, e.reversal_of, e.source_module,
		       l.account_code, l.description, l.debit, l.credit
		FROM journal_entry_lines l
		JOIN journal_entries e ON e.entry_number = l.entry_number
		`+where+`
		ORDER BY e.date, e.entry_number, l.line_no
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []ledger.PostedLine
	for rows.Next() {
		var line ledger.PostedLine
		var date string
		var reference, reversalOf, sourceModule, description sql.NullString
		var debit, credit string
		if err := rows.Scan(&line.EntryNumber, &date, &reference, &reversalOf, &sourceModule,
			&line.AccountCode, &description, &debit, &credit); err != nil {
			return nil, err
		}
		line.Date, _ = time.Parse(dateFormat, date)
		line.Reference = reference.String
		line.ReversalOf = reversalOf.String
		line.SourceModule = sourceModule.String
		line.Description = description.String
		line.Debit = mustParse(debit)
		line.Credit = mustParse(credit)
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// =============================================================================
// AUDIT LOG (ledger.AuditLog)
// =============================================================================

func (q *queries) Append(ctx context.Context, entry ledger.AuditEntry) error {
	changesJSON, err := json.Marshal(entry.Changes)
	if err != nil {
		return err
	}
	_, err = q.db.ExecContext(ctx, `
		INSERT INTO audit_log (at, actor, action, entry_number, changes_json)
		VALUES (?, ?, ?, ?, ?)
	`, entry.At.UTC().Format(time.RFC3339), entry.Actor, entry.Action,
		nullString(entry.EntryNumber), string(changesJSON))
	return err
}

func (q *queries) List(ctx context.Context, entryNumber string) ([]ledger.AuditEntry, error) {
	query := `SELECT at, actor, action, entry_number, changes_json FROM audit_log`
	var args []any
	if entryNumber != "" {
		query += ` WHERE entry_number = ?`
		args = append(args, entryNumber)
	}
	query += ` ORDER BY id`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ledger.AuditEntry
	for rows.Next() {
		var e ledger.AuditEntry
		var at string
		var number, changesJSON sql.NullString
		if err := rows.Scan(&at, &e.Actor, &e.Action, &number, &changesJSON); err != nil {
			return nil, err
		}
		e.At, _ = time.Parse(time.RFC3339, at)
		e.EntryNumber = number.String
		if changesJSON.Valid && changesJSON.String != "" {
			if err := json.Unmarshal([]byte(changesJSON.String), &e.Changes); err != nil {
				return nil, err
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// ASSET REGISTER (documents.AssetStore)
// =============================================================================

func (q *queries) SaveAsset(ctx context.Context, a documents.FixedAsset) error {
	var acquired any
	if !a.AcquiredOn.IsZero() {
		acquired = ledger.DateOnly(a.AcquiredOn).Format(dateFormat)
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO assets (code, name, cost, salvage, useful_life_months, method, acquired_on,
		                    accumulated_depreciation, disposed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			cost = excluded.cost,
			salvage = excluded.salvage,
			useful_life_months = excluded.useful_life_months,
			method = excluded.method,
			acquired_on = excluded.acquired_on,
			accumulated_depreciation = excluded.accumulated_depreciation,
			disposed = excluded.disposed
	`, a.Code, a.Name, a.Cost.String(), a.Salvage.String(), a.UsefulLifeMonths, a.Method,
		acquired, a.AccumulatedDepreciation.String(), a.Disposed)
	return err
}

func (q *queries) GetAsset(ctx context.Context, code string) (*documents.FixedAsset, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT code, name, cost, salvage, useful_life_months, method, acquired_on,
		       accumulated_depreciation, disposed
		FROM assets WHERE code = ?
	`, code)

	var a documents.FixedAsset
	var cost, salvage, accum string
	var acquired sql.NullString
	err := row.Scan(&a.Code, &a.Name, &cost, &salvage, &a.UsefulLifeMonths, &a.Method,
		&acquired, &accum, &a.Disposed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.Cost = mustParse(cost)
	a.Salvage = mustParse(salvage)
	a.AccumulatedDepreciation = mustParse(accum)
	if acquired.Valid {
		a.AcquiredOn, _ = time.Parse(dateFormat, acquired.String)
	}
	return &a, nil
}

func (q *queries) ListAssets(ctx context.Context) ([]documents.FixedAsset, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT code, name, cost, salvage, useful_life_months, method, acquired_on,
		       accumulated_depreciation, disposed
		FROM assets ORDER BY code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []documents.FixedAsset
	for rows.Next() {
		var a documents.FixedAsset
		var cost, salvage, accum string
		var acquired sql.NullString
		if err := rows.Scan(&a.Code, &a.Name, &cost, &salvage, &a.UsefulLifeMonths, &a.Method,
			&acquired, &accum, &a.Disposed); err != nil {
			return nil, err
		}
		a.Cost = mustParse(cost)
		a.Salvage = mustParse(salvage)
		a.AccumulatedDepreciation = mustParse(accum)
		if acquired.Valid {
			a.AcquiredOn, _ = time.Parse(dateFormat, acquired.String)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// =============================================================================
// STOCK LEVELS (documents.StockLevels)
// =============================================================================

func (q *queries) OnHand(ctx context.Context, itemCode string) (decimal.Decimal, error) {
	var onHand string
	err := q.db.QueryRowContext(ctx,
		`SELECT on_hand FROM stock_items WHERE item_code = ?`, itemCode).Scan(&onHand)
	if err == sql.ErrNoRows {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return mustParse(onHand), nil
}

func (q *queries) Apply(ctx context.Context, itemCode string, delta decimal.Decimal) error {
	// Quantities are decimal strings, so the arithmetic stays in Go.
	onHand, err := q.OnHand(ctx, itemCode)
	if err != nil {
		return err
	}
	_, err = q.db.ExecContext(ctx, `
		INSERT INTO stock_items (item_code, on_hand) VALUES (?, ?)
		ON CONFLICT(item_code) DO UPDATE SET on_hand = excluded.on_hand
	`, itemCode, onHand.Add(delta).String())
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func mustParse(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
