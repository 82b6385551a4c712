// Package store provides an in-memory ledger.TxStore for tests and dev.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gearupae/gearuperp/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	accounts    map[string]ledger.Account
	mappings    map[string]ledger.AccountMapping
	taxCodes    map[string]ledger.TaxCode
	fiscalYears map[string]ledger.FiscalYear
	periods     map[string]ledger.AccountingPeriod
	entries     map[string]*ledger.JournalEntry
	entryOrder  []string
	audit       []ledger.AuditEntry
}

func NewMemory() *Memory {
	return &Memory{
		accounts:    make(map[string]ledger.Account),
		mappings:    make(map[string]ledger.AccountMapping),
		taxCodes:    make(map[string]ledger.TaxCode),
		fiscalYears: make(map[string]ledger.FiscalYear),
		periods:     make(map[string]ledger.AccountingPeriod),
		entries:     make(map[string]*ledger.JournalEntry),
	}
}

// WithTx runs fn directly against the store. The memory store offers
// no rollback; the engine's validate-before-write ordering keeps test
// state consistent anyway.
func (m *Memory) WithTx(_ context.Context, fn func(ledger.Store) error) error {
	return fn(m)
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (m *Memory) SaveAccount(_ context.Context, a ledger.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.Code] = a
	return nil
}

func (m *Memory) GetAccount(_ context.Context, code string) (*ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.accounts[code]; ok {
		return &a, nil
	}
	return nil, nil
}

func (m *Memory) ListAccounts(_ context.Context) ([]ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	accounts := make([]ledger.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Code < accounts[j].Code })
	return accounts, nil
}

// =============================================================================
// MAPPINGS AND TAX CODES
// =============================================================================

func (m *Memory) SaveMapping(_ context.Context, mapping ledger.AccountMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mappings[mapping.TransactionType] = mapping
	return nil
}

func (m *Memory) GetMapping(_ context.Context, transactionType string) (*ledger.AccountMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if mapping, ok := m.mappings[transactionType]; ok {
		return &mapping, nil
	}
	return nil, nil
}

func (m *Memory) ListMappings(_ context.Context) ([]ledger.AccountMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mappings := make([]ledger.AccountMapping, 0, len(m.mappings))
	for _, mapping := range m.mappings {
		mappings = append(mappings, mapping)
	}
	sort.Slice(mappings, func(i, j int) bool {
		return mappings[i].TransactionType < mappings[j].TransactionType
	})
	return mappings, nil
}

func (m *Memory) SaveTaxCode(_ context.Context, tc ledger.TaxCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tc.IsDefault {
		for code, existing := range m.taxCodes {
			existing.IsDefault = false
			m.taxCodes[code] = existing
		}
	}
	m.taxCodes[tc.Code] = tc
	return nil
}

func (m *Memory) GetTaxCode(_ context.Context, code string) (*ledger.TaxCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if tc, ok := m.taxCodes[code]; ok {
		return &tc, nil
	}
	return nil, nil
}

func (m *Memory) DefaultTaxCode(_ context.Context) (*ledger.TaxCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, tc := range m.taxCodes {
		if tc.IsDefault {
			return &tc, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListTaxCodes(_ context.Context) ([]ledger.TaxCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	taxCodes := make([]ledger.TaxCode, 0, len(m.taxCodes))
	for _, tc := range m.taxCodes {
		taxCodes = append(taxCodes, tc)
	}
	sort.Slice(taxCodes, func(i, j int) bool { return taxCodes[i].Code < taxCodes[j].Code })
	return taxCodes, nil
}

// =============================================================================
// FISCAL CALENDAR
// =============================================================================

func (m *Memory) SaveFiscalYear(_ context.Context, fy ledger.FiscalYear) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fiscalYears[fy.Code] = fy
	return nil
}

func (m *Memory) SavePeriod(_ context.Context, p ledger.AccountingPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// A calendar refresh must not drop an existing lock.
	if existing, ok := m.periods[p.Name]; ok {
		p.IsLocked = existing.IsLocked
	}
	m.periods[p.Name] = p
	return nil
}

func (m *Memory) FiscalYearFor(_ context.Context, date time.Time) (*ledger.FiscalYear, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, fy := range m.fiscalYears {
		if fy.Contains(date) {
			return &fy, nil
		}
	}
	return nil, nil
}

func (m *Memory) PeriodFor(_ context.Context, date time.Time) (*ledger.AccountingPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.periods {
		if p.Contains(date) {
			return &p, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListPeriods(_ context.Context) ([]ledger.AccountingPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	periods := make([]ledger.AccountingPeriod, 0, len(m.periods))
	for _, p := range m.periods {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Start.Before(periods[j].Start) })
	return periods, nil
}

func (m *Memory) SetPeriodLock(_ context.Context, name string, locked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.periods[name]
	if !ok {
		return fmt.Errorf("unknown period %q", name)
	}
	p.IsLocked = locked
	m.periods[name] = p
	return nil
}

// =============================================================================
// JOURNAL ENTRIES
// =============================================================================

func (m *Memory) NextEntrySequence(_ context.Context, prefix string, year int) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	maxSeq := 0
	for _, e := range m.entries {
		p, y, seq, err := ledger.ParseEntryNumber(e.EntryNumber)
		if err != nil || p != prefix || y != year {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq + 1, nil
}

func (m *Memory) InsertEntry(_ context.Context, e *ledger.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[e.EntryNumber]; exists {
		return fmt.Errorf("duplicate entry number %q", e.EntryNumber)
	}
	clone := *e
	clone.Lines = append([]ledger.JournalEntryLine(nil), e.Lines...)
	m.entries[e.EntryNumber] = &clone
	m.entryOrder = append(m.entryOrder, e.EntryNumber)
	return nil
}

func (m *Memory) GetEntry(_ context.Context, entryNumber string) (*ledger.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[entryNumber]
	if !ok {
		return nil, nil
	}
	clone := *e
	clone.Lines = append([]ledger.JournalEntryLine(nil), e.Lines...)
	return &clone, nil
}

func (m *Memory) ListEntries(_ context.Context, f ledger.EntryFilter) ([]ledger.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []ledger.JournalEntry
	for _, number := range m.entryOrder {
		e := m.entries[number]
		if f.SourceModule != "" && e.SourceModule != f.SourceModule {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if f.From != nil && ledger.DateOnly(e.Date).Before(ledger.DateOnly(*f.From)) {
			continue
		}
		if f.To != nil && ledger.DateOnly(e.Date).After(ledger.DateOnly(*f.To)) {
			continue
		}
		clone := *e
		clone.Lines = append([]ledger.JournalEntryLine(nil), e.Lines...)
		entries = append(entries, clone)
	}
	return entries, nil
}

func (m *Memory) MarkReversed(_ context.Context, entryNumber, reversalNumber string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[entryNumber]
	if !ok {
		return fmt.Errorf("%w: %s", ledger.ErrEntryNotFound, entryNumber)
	}
	e.Status = ledger.StatusReversed
	e.ReversedBy = reversalNumber
	return nil
}

func (m *Memory) ReferenceExists(_ context.Context, reference string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.Reference == reference && e.Status != ledger.StatusReversed {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) PostedLines(_ context.Context, f ledger.LineFilter) ([]ledger.PostedLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[string]bool)
	if f.AccountCode != "" {
		wanted[f.AccountCode] = true
	}
	for _, code := range f.AccountCodes {
		wanted[code] = true
	}

	var lines []ledger.PostedLine
	for _, number := range m.entryOrder {
		e := m.entries[number]
		if e.Status != ledger.StatusPosted && e.Status != ledger.StatusReversed {
			continue
		}
		if f.From != nil && ledger.DateOnly(e.Date).Before(ledger.DateOnly(*f.From)) {
			continue
		}
		if f.To != nil && ledger.DateOnly(e.Date).After(ledger.DateOnly(*f.To)) {
			continue
		}
		for _, line := range e.Lines {
			if len(wanted) > 0 && !wanted[line.AccountCode] {
				continue
			}
			lines = append(lines, ledger.PostedLine{
				EntryNumber:  e.EntryNumber,
				Date:         e.Date,
				Reference:    e.Reference,
				ReversalOf:   e.ReversalOf,
				SourceModule: e.SourceModule,
				AccountCode:  line.AccountCode,
				Description:  line.Description,
				Debit:        line.Debit,
				Credit:       line.Credit,
			})
		}
	}
	return lines, nil
}

// =============================================================================
// AUDIT LOG
// =============================================================================

func (m *Memory) Append(_ context.Context, entry ledger.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, entry)
	return nil
}

func (m *Memory) List(_ context.Context, entryNumber string) ([]ledger.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if entryNumber == "" {
		return append([]ledger.AuditEntry(nil), m.audit...), nil
	}
	var entries []ledger.AuditEntry
	for _, e := range m.audit {
		if e.EntryNumber == entryNumber {
			entries = append(entries, e)
		}
	}
	return entries, nil
}
