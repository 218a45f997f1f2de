package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/recoup/coupon-engine/internal/ledger"
	"github.com/recoup/coupon-engine/internal/model"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func newCSVStore(t *testing.T) *CSVStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coupons.csv")
	return NewCSVStore(path, decimal.Zero, nil)
}

func seedCoupons() []model.Coupon {
	coupons := []model.Coupon{
		{ID: 1, Label: "Opening deposit", Result: model.ResultWon, Stake: decimal.Zero, Odds: d(1), Deposit: d(100)},
		{ID: 2, Label: "Coupon, with comma", Result: model.ResultLost, Stake: d(10), Odds: d(2)},
		{ID: 3, Label: "Coupon #3", Result: model.ResultPending, Stake: d(25.5), Odds: d(1.85)},
	}
	ledger.Recompute(coupons)
	return coupons
}

// --- Load/Save tests ---

func TestCSVStore_LoadMissingFile(t *testing.T) {
	s := newCSVStore(t)
	coupons, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if coupons != nil {
		t.Errorf("expected nil sequence for missing file, got %d rows", len(coupons))
	}
}

func TestCSVStore_LoadHeaderOnly(t *testing.T) {
	s := newCSVStore(t)
	header := "coupon,label,result,stake,odds,deposit,cumulative_deposits,cumulative_stake,gross_payout,balance,net_profit\n"
	if err := os.WriteFile(s.Path(), []byte(header), 0o644); err != nil {
		t.Fatal(err)
	}

	coupons, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(coupons) != 0 {
		t.Errorf("expected empty sequence, got %d rows", len(coupons))
	}
}

func TestCSVStore_SaveLoadRoundtrip(t *testing.T) {
	s := newCSVStore(t)
	want := seedCoupons()

	if err := s.Save(context.Background(), want); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(got))
	}
	for i := range want {
		w, g := want[i], got[i]
		if g.ID != w.ID || g.Label != w.Label || g.Result != w.Result {
			t.Errorf("row %d: raw fields changed: %+v vs %+v", i, g, w)
		}
		if !g.Stake.Equal(w.Stake) || !g.Odds.Equal(w.Odds) || !g.Deposit.Equal(w.Deposit) {
			t.Errorf("row %d: monetary fields changed: stake=%s odds=%s deposit=%s",
				i, g.Stake, g.Odds, g.Deposit)
		}
		if !g.Balance.Equal(w.Balance) {
			t.Errorf("row %d: expected balance %s, got %s", i, w.Balance, g.Balance)
		}
	}
}

func TestCSVStore_SaveLeavesNoTempFiles(t *testing.T) {
	s := newCSVStore(t)
	if err := s.Save(context.Background(), seedCoupons()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(s.Path()), ".coupons-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
	if _, err := os.Stat(s.Path()); err != nil {
		t.Errorf("ledger file missing after save: %v", err)
	}
}

// --- Legacy migration tests ---

func TestCSVStore_LegacyMigration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coupons.csv")

	// Legacy schema: no deposit column, one row without a label.
	legacy := strings.Join([]string{
		"coupon,label,result,stake,odds,cumulative_stake,gross_payout,balance,net_profit",
		"1,First,WON,10.00,2.00,10.00,20.00,10.00,10.00",
		"2,,LOST,20.00,1.50,30.00,0.00,-10.00,-10.00",
	}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewCSVStore(path, d(500), nil)
	coupons, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(coupons) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(coupons))
	}

	// Initial capital lands on the first row only.
	if !coupons[0].Deposit.Equal(d(500)) {
		t.Errorf("expected first-row deposit 500.00, got %s", coupons[0].Deposit)
	}
	if !coupons[1].Deposit.IsZero() {
		t.Errorf("expected second-row deposit 0, got %s", coupons[1].Deposit)
	}

	// Missing labels get the generated name.
	if coupons[1].Label != "Coupon #2" {
		t.Errorf("expected generated label \"Coupon #2\", got %q", coupons[1].Label)
	}

	// The original file was backed up before the rewrite.
	if _, err := os.Stat(path + ".pre_migration"); err != nil {
		t.Errorf("pre-migration backup missing: %v", err)
	}

	// The rewritten file is in the current schema.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(strings.SplitN(string(data), "\n", 2)[0], "deposit") {
		t.Error("rewritten header should contain the deposit column")
	}

	// A second load is a plain read, not another migration.
	if _, err := s.Load(context.Background()); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	backups, _ := filepath.Glob(path + ".pre_migration*")
	if len(backups) != 1 {
		t.Errorf("expected exactly one pre-migration backup, got %v", backups)
	}
}

// --- Permissive parsing tests ---

func TestCSVStore_MalformedNumericWarns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coupons.csv")

	content := strings.Join([]string{
		"coupon,label,result,stake,odds,deposit,cumulative_deposits,cumulative_stake,gross_payout,balance,net_profit",
		"1,Bad stake,LOST,abc,2.00,,,,,,",
	}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	type warning struct {
		line          int
		column, value string
	}
	var warnings []warning
	s := NewCSVStore(path, decimal.Zero, func(line int, column, value string) {
		warnings = append(warnings, warning{line, column, value})
	})

	coupons, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(coupons) != 1 {
		t.Fatalf("expected 1 row, got %d", len(coupons))
	}

	// Garbage becomes zero and fires the callback; empty cells stay silent.
	if !coupons[0].Stake.IsZero() {
		t.Errorf("malformed stake must parse as zero, got %s", coupons[0].Stake)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected exactly 1 warning, got %d: %v", len(warnings), warnings)
	}
	if warnings[0].column != "stake" || warnings[0].value != "abc" || warnings[0].line != 1 {
		t.Errorf("unexpected warning: %+v", warnings[0])
	}
}

func TestCSVStore_CommaDecimalSeparator(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coupons.csv")

	content := strings.Join([]string{
		"coupon,label,result,stake,odds,deposit,cumulative_deposits,cumulative_stake,gross_payout,balance,net_profit",
		`1,Locale row,PENDING,"12,50","1,85",0.00,,,,,`,
	}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewCSVStore(path, decimal.Zero, nil)
	coupons, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !coupons[0].Stake.Equal(d(12.5)) {
		t.Errorf("expected stake 12.50, got %s", coupons[0].Stake)
	}
	if !coupons[0].Odds.Equal(d(1.85)) {
		t.Errorf("expected odds 1.85, got %s", coupons[0].Odds)
	}
}

func TestCSVStore_BadIDFallsBackToLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coupons.csv")

	content := strings.Join([]string{
		"coupon,label,result,stake,odds,deposit,cumulative_deposits,cumulative_stake,gross_payout,balance,net_profit",
		"x,Broken id,PENDING,5.00,2.00,0.00,,,,,",
		"7,Fine,PENDING,5.00,2.00,0.00,,,,,",
	}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	var warned bool
	s := NewCSVStore(path, decimal.Zero, func(int, string, string) { warned = true })
	coupons, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if coupons[0].ID != 1 {
		t.Errorf("expected positional fallback id 1, got %d", coupons[0].ID)
	}
	if coupons[1].ID != 7 {
		t.Errorf("expected id 7 preserved, got %d", coupons[1].ID)
	}
	if !warned {
		t.Error("expected a warning for the malformed id")
	}
}

// --- Backup tests ---

func TestCSVStore_BackupMissingFile(t *testing.T) {
	s := newCSVStore(t)
	name, err := s.Backup()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "" {
		t.Errorf("expected empty name for missing ledger, got %q", name)
	}
}

func TestCSVStore_BackupAndPrune(t *testing.T) {
	s := newCSVStore(t)
	if err := s.Save(context.Background(), seedCoupons()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	name, err := s.Backup()
	if err != nil {
		t.Fatalf("backup failed: %v", err)
	}
	if !strings.HasPrefix(name, s.Path()+".backup_") {
		t.Errorf("unexpected backup name: %q", name)
	}
	if _, err := os.Stat(name); err != nil {
		t.Errorf("backup file missing: %v", err)
	}

	// Two fake older backups; timestamped names sort chronologically.
	for _, stale := range []string{".backup_20200101_000000", ".backup_20210101_000000"} {
		if err := os.WriteFile(s.Path()+stale, []byte("old"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := s.PruneBackups(2)
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 backup removed, got %d", removed)
	}
	if _, err := os.Stat(s.Path() + ".backup_20200101_000000"); !os.IsNotExist(err) {
		t.Error("oldest backup should have been removed")
	}
	if _, err := os.Stat(name); err != nil {
		t.Errorf("newest backup should survive pruning: %v", err)
	}
}

func TestCSVStore_PruneNothingBelowKeep(t *testing.T) {
	s := newCSVStore(t)
	if err := s.Save(context.Background(), seedCoupons()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := s.Backup(); err != nil {
		t.Fatalf("backup failed: %v", err)
	}

	removed, err := s.PruneBackups(5)
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("expected nothing removed, got %d", removed)
	}
}

// --- Info tests ---

func TestCSVStore_Info(t *testing.T) {
	s := newCSVStore(t)

	info, err := s.Info()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Exists {
		t.Error("expected Exists=false before first save")
	}

	if err := s.Save(context.Background(), seedCoupons()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	info, err = s.Info()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !info.Exists {
		t.Error("expected Exists=true after save")
	}
	if info.Rows != 3 {
		t.Errorf("expected 3 data rows, got %d", info.Rows)
	}
	if info.Size <= 0 {
		t.Errorf("expected positive size, got %d", info.Size)
	}
	if info.Modified.IsZero() {
		t.Error("expected non-zero modification time")
	}
}

// --- Profit target sidecar tests ---

func TestCSVStore_TargetSidecar(t *testing.T) {
	s := newCSVStore(t)
	ctx := context.Background()

	_, ok, err := s.LoadTarget(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected ok=false before any target was saved")
	}

	if err := s.SaveTarget(ctx, d(150.5)); err != nil {
		t.Fatalf("save target failed: %v", err)
	}
	target, ok, err := s.LoadTarget(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true after save")
	}
	if !target.Equal(d(150.5)) {
		t.Errorf("expected target 150.5, got %s", target)
	}
}

func TestCSVStore_TargetSidecarGarbage(t *testing.T) {
	s := newCSVStore(t)
	sidecar := filepath.Join(filepath.Dir(s.Path()), "profit_target.txt")
	if err := os.WriteFile(sidecar, []byte("not a number"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, ok, err := s.LoadTarget(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected ok=false for unparseable sidecar")
	}
}
