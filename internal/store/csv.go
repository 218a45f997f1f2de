package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/recoup/coupon-engine/internal/model"
)

// csvHeader is the current on-disk schema. Legacy files predate the
// deposit column and are migrated once at load time.
var csvHeader = []string{
	"coupon", "label", "result", "stake", "odds", "deposit",
	"cumulative_deposits", "cumulative_stake", "gross_payout", "balance", "net_profit",
}

// targetFileName is the sidecar holding the persisted profit target.
const targetFileName = "profit_target.txt"

// WarnFunc is called once per malformed numeric cell replaced by zero
// during a load. line is 1-based over data rows.
type WarnFunc func(line int, column, value string)

// CSVStore persists the ledger as a single CSV file. Saves are atomic
// (temp file in the same directory, then rename). Numeric cells are parsed
// permissively — malformed values become zero and fire the warning callback
// so hand-edited files stay loadable without masking mistakes silently.
type CSVStore struct {
	path           string
	initialDeposit decimal.Decimal // credited to the first row when migrating a legacy file
	warn           WarnFunc
	mu             sync.Mutex
}

// NewCSVStore creates a CSV-file-backed store. initialDeposit is applied to
// the first row if a legacy file (no deposit column) is migrated; pass zero
// when no starting capital should be synthesized. warn may be nil.
func NewCSVStore(path string, initialDeposit decimal.Decimal, warn WarnFunc) *CSVStore {
	return &CSVStore{path: path, initialDeposit: initialDeposit, warn: warn}
}

// Path returns the ledger file location.
func (s *CSVStore) Path() string { return s.path }

// Load reads the full coupon sequence. A missing file yields an empty
// sequence. Files in the legacy schema are migrated and rewritten in place
// after a timestamped backup of the original is taken.
func (s *CSVStore) Load(_ context.Context) ([]model.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // legacy rows may be shorter than the current header
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read ledger file: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	idx := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		idx[strings.TrimSpace(name)] = i
	}
	_, hasDeposit := idx["deposit"]

	coupons := make([]model.Coupon, 0, len(records)-1)
	for line, rec := range records[1:] {
		coupons = append(coupons, s.decodeRow(rec, idx, line+1))
	}

	if !hasDeposit {
		for i := range coupons {
			coupons[i].Deposit = decimal.Zero
			if coupons[i].Label == "" {
				coupons[i].Label = fmt.Sprintf("Coupon #%d", coupons[i].ID)
			}
		}
		if len(coupons) > 0 && s.initialDeposit.IsPositive() {
			coupons[0].Deposit = s.initialDeposit.Round(2)
		}
		if _, err := s.backupLocked("pre_migration"); err != nil {
			return nil, fmt.Errorf("backup before migration: %w", err)
		}
		if err := s.saveLocked(coupons); err != nil {
			return nil, fmt.Errorf("rewrite migrated ledger: %w", err)
		}
	}

	return coupons, nil
}

// Save atomically replaces the ledger file.
func (s *CSVStore) Save(_ context.Context, coupons []model.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(coupons)
}

func (s *CSVStore) saveLocked(coupons []model.Coupon) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".coupons-*.csv")
	if err != nil {
		return fmt.Errorf("create temp ledger file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		tmp.Close()
		return err
	}
	for i := range coupons {
		c := &coupons[i]
		rec := []string{
			strconv.FormatInt(c.ID, 10),
			c.Label,
			string(c.Result),
			c.Stake.StringFixed(2),
			c.Odds.StringFixed(2),
			c.Deposit.StringFixed(2),
			c.CumulativeDeposits.StringFixed(2),
			c.CumulativeStake.StringFixed(2),
			c.GrossPayout.StringFixed(2),
			c.Balance.StringFixed(2),
			c.NetProfit.StringFixed(2),
		}
		if err := w.Write(rec); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("write ledger file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace ledger file: %w", err)
	}
	return nil
}

func (s *CSVStore) decodeRow(rec []string, idx map[string]int, line int) model.Coupon {
	var c model.Coupon

	rawID := s.cell(rec, idx, "coupon")
	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil || id <= 0 {
		if s.warn != nil && strings.TrimSpace(rawID) != "" {
			s.warn(line, "coupon", rawID)
		}
		id = int64(line) // positional fallback keeps the row addressable
	}
	c.ID = id
	c.Label = strings.TrimSpace(s.cell(rec, idx, "label"))
	c.Result = model.ParseResult(s.cell(rec, idx, "result"))
	c.Stake = s.amount(rec, idx, "stake", line)
	c.Deposit = s.amount(rec, idx, "deposit", line)

	if _, ok := idx["odds"]; ok {
		c.Odds = s.amount(rec, idx, "odds", line)
	} else {
		c.Odds = decimal.NewFromInt(1)
	}

	// Derived columns are loaded for completeness; callers recompute them.
	c.CumulativeDeposits = s.amount(rec, idx, "cumulative_deposits", line)
	c.CumulativeStake = s.amount(rec, idx, "cumulative_stake", line)
	c.GrossPayout = s.amount(rec, idx, "gross_payout", line)
	c.Balance = s.amount(rec, idx, "balance", line)
	c.NetProfit = s.amount(rec, idx, "net_profit", line)

	return c
}

func (s *CSVStore) cell(rec []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// amount parses a numeric cell permissively. Empty or absent cells default
// to zero silently; non-empty garbage becomes zero and fires the warning.
func (s *CSVStore) amount(rec []string, idx map[string]int, col string, line int) decimal.Decimal {
	raw := s.cell(rec, idx, col)
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero
	}
	d, ok := model.ParseAmount(raw)
	if !ok {
		if s.warn != nil {
			s.warn(line, col, raw)
		}
		return decimal.Zero
	}
	return d
}

// Backup copies the ledger file to <path>.backup_<timestamp> and returns
// the backup's path. A missing ledger file returns "" without error.
func (s *CSVStore) Backup() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backupLocked("")
}

func (s *CSVStore) backupLocked(suffix string) (string, error) {
	src, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer src.Close()

	if suffix == "" {
		suffix = "backup_" + time.Now().Format("20060102_150405")
	}
	name := s.path + "." + suffix

	dst, err := os.Create(name)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(name)
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return name, nil
}

// PruneBackups deletes the oldest timestamped backups beyond keep. Returns
// how many files were removed.
func (s *CSVStore) PruneBackups(keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches, err := filepath.Glob(s.path + ".backup_*")
	if err != nil {
		return 0, err
	}
	if keep < 0 {
		keep = 0
	}
	if len(matches) <= keep {
		return 0, nil
	}

	// Timestamped names sort chronologically.
	sort.Strings(matches)
	removed := 0
	for _, name := range matches[:len(matches)-keep] {
		if err := os.Remove(name); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Info describes the ledger file on disk.
type Info struct {
	Exists   bool      `json:"exists"`
	Size     int64     `json:"size"`
	Rows     int       `json:"rows"`
	Modified time.Time `json:"modified"`
}

// Info reports existence, size, data row count, and modification time of
// the ledger file.
func (s *CSVStore) Info() (Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Info{}, nil
	}
	if err != nil {
		return Info{}, err
	}

	info := Info{Exists: true, Size: st.Size(), Modified: st.ModTime()}

	f, err := os.Open(s.path)
	if err != nil {
		return info, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return info, err
	}
	if len(records) > 0 {
		info.Rows = len(records) - 1
	}
	return info, nil
}

// LoadTarget reads the persisted profit target from the sidecar file next
// to the ledger. ok is false when no target was ever saved.
func (s *CSVStore) LoadTarget(_ context.Context) (decimal.Decimal, bool, error) {
	data, err := os.ReadFile(s.targetPath())
	if errors.Is(err, fs.ErrNotExist) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	d, ok := model.ParseAmount(string(data))
	if !ok {
		return decimal.Zero, false, nil
	}
	return d, true, nil
}

// SaveTarget persists the profit target to the sidecar file.
func (s *CSVStore) SaveTarget(_ context.Context, target decimal.Decimal) error {
	return os.WriteFile(s.targetPath(), []byte(target.String()), 0o644)
}

func (s *CSVStore) targetPath() string {
	return filepath.Join(filepath.Dir(s.path), targetFileName)
}
