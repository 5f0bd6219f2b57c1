package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/holiman/uint256"

	"github.com/yndnr/vftledger-go/internal/core/domain"
)

// testLedger runs CLI invocations against one data directory.
type testLedger struct {
	t      *testing.T
	config string
}

func newTestLedger(t *testing.T, extraConfig string) *testLedger {
	t.Helper()
	dir := t.TempDir()
	content := `
ledger:
  balances_capacities: [4, 4]
  allowances_capacities: [4]
  minimum_balance: "10"
  expiry_period: 100
storage:
  data_dir: ` + filepath.Join(dir, "data") + `
  snapshot_keep: 3
  badger:
    gc_interval: 1h
metrics:
  enabled: false
growth:
  enabled: false
log:
  level: error
` + extraConfig
	path := filepath.Join(dir, "vftledger.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return &testLedger{t: t, config: path}
}

// run executes one command as caller and returns its stdout.
func (l *testLedger) run(caller string, args ...string) (string, error) {
	l.t.Helper()
	var out bytes.Buffer
	app := App()
	app.Writer = &out
	app.ErrWriter = io.Discard

	argv := []string{"vftledger", "-c", l.config, "-o", "json", "--block", "5"}
	if caller != "" {
		argv = append(argv, "--caller", caller)
	}
	argv = append(argv, args...)
	err := app.Run(argv)
	return out.String(), err
}

func (l *testLedger) must(caller string, args ...string) string {
	l.t.Helper()
	out, err := l.run(caller, args...)
	if err != nil {
		l.t.Fatalf("%s: error = %v", strings.Join(args, " "), err)
	}
	return out
}

// ready initializes the ledger and allocates every shard.
func (l *testLedger) ready() *testLedger {
	l.t.Helper()
	l.must("", "init")
	l.must("@admin", "shards", "grow")
	return l
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	return v
}

func (l *testLedger) balance(name string) string {
	l.t.Helper()
	return decode[balanceRow](l.t, l.must("", "balance", "@"+name)).Balance
}

func TestInit(t *testing.T) {
	l := newTestLedger(t, "")

	res := decode[initResult](t, l.must("", "init"))
	if res.BalanceShards != 2 || res.AllowanceShards != 1 {
		t.Errorf("shards = %d/%d, want 2/1", res.BalanceShards, res.AllowanceShards)
	}
	if res.MinimumBalance != "10" || res.ExpiryPeriod != 100 {
		t.Errorf("init = %+v", res)
	}
	if res.Fingerprint == "" {
		t.Error("init should report the fingerprint")
	}

	if _, err := l.run("", "init"); err == nil {
		t.Error("second init should fail without --force")
	}
	if _, err := l.run("", "init", "--force"); err != nil {
		t.Errorf("init --force error = %v", err)
	}
}

func TestNotInitialized(t *testing.T) {
	l := newTestLedger(t, "")
	_, err := l.run("@alice", "balance", "@alice")
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("error = %v, want ErrNotInitialized", err)
	}
}

func TestShards(t *testing.T) {
	l := newTestLedger(t, "")
	l.must("", "init")

	rows := decode[[]shardRow](t, l.must("", "shards", "stats"))
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	for _, r := range rows {
		if r.Allocated {
			t.Errorf("shard %s/%d should start unallocated", r.Ledger, r.Index)
		}
	}

	// Nothing fits before allocation.
	if _, err := l.run("@admin", "mint", "@alice", "100"); !errors.Is(err, domain.ErrCapacityOverflow) {
		t.Errorf("mint error = %v, want ErrCapacityOverflow", err)
	}

	rows = decode[[]shardRow](t, l.must("@admin", "shards", "grow", "--ledger", "balances", "--count", "1"))
	if !rows[0].Allocated || rows[1].Allocated {
		t.Errorf("grow --count 1 = %+v", rows)
	}

	l.must("@admin", "shards", "append", "--ledger", "allowances", "8")
	if _, err := l.run("@admin", "shards", "append", "5"); !errors.Is(err, domain.ErrInvalidCapacity) {
		t.Errorf("append 5 error = %v, want ErrInvalidCapacity", err)
	}

	rows = decode[[]shardRow](t, l.must("@admin", "shards", "grow"))
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}
	for _, r := range rows {
		if !r.Allocated {
			t.Errorf("shard %s/%d should be allocated", r.Ledger, r.Index)
		}
	}
}

func TestMintAndTransfer(t *testing.T) {
	l := newTestLedger(t, "").ready()

	res := decode[opResult](t, l.must("@admin", "mint", "@alice", "1_000"))
	if !res.Changed || res.Amount != "1000" || res.Fingerprint == "" {
		t.Errorf("mint = %+v", res)
	}

	res = decode[opResult](t, l.must("@alice", "transfer", "@bob", "40"))
	if !res.Changed {
		t.Errorf("transfer = %+v", res)
	}
	if got := l.balance("alice"); got != "960" {
		t.Errorf("alice = %s, want 960", got)
	}
	if got := l.balance("bob"); got != "40" {
		t.Errorf("bob = %s, want 40", got)
	}

	if _, err := l.run("@bob", "transfer", "@carol", "5"); !errors.Is(err, domain.ErrBelowMinimum) {
		t.Errorf("dust transfer error = %v, want ErrBelowMinimum", err)
	}
	if _, err := l.run("@bob", "transfer", "@carol", "41"); !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Errorf("overdraft error = %v, want ErrInsufficientBalance", err)
	}

	res = decode[opResult](t, l.must("@bob", "transfer-all", "@carol"))
	if !res.Changed {
		t.Errorf("transfer-all = %+v", res)
	}
	row := decode[balanceRow](t, l.must("", "balance", "@bob"))
	if row.Balance != "0" || row.Stored {
		t.Errorf("bob after transfer-all = %+v", row)
	}

	supply := decode[supplyResult](t, l.must("", "supply"))
	if supply.TotalSupply != "1000" || supply.Unused != "0" || supply.MinimumBalance != "10" {
		t.Errorf("supply = %+v", supply)
	}

	list := decode[[]balanceRow](t, l.must("", "list", "balances"))
	if len(list) != 2 {
		t.Errorf("list balances = %+v, want alice and carol", list)
	}
}

func TestBurn(t *testing.T) {
	l := newTestLedger(t, "").ready()
	l.must("@admin", "mint", "@alice", "100")

	l.must("@admin", "burn", "@alice", "95")
	supply := decode[supplyResult](t, l.must("", "supply"))
	if supply.TotalSupply != "5" || supply.Unused != "5" {
		t.Errorf("supply after burn = %+v", supply)
	}

	res := decode[opResult](t, l.must("@admin", "burn-unused"))
	if res.Amount != "5" || !res.Changed {
		t.Errorf("burn-unused = %+v", res)
	}

	l.must("@admin", "mint", "@bob", "50")
	res = decode[opResult](t, l.must("@admin", "burn-all", "@bob"))
	if res.Amount != "50" {
		t.Errorf("burn-all = %+v", res)
	}
	supply = decode[supplyResult](t, l.must("", "supply"))
	if supply.TotalSupply != "0" {
		t.Errorf("supply = %+v, want zero", supply)
	}
}

func TestApproveAndTransferFrom(t *testing.T) {
	l := newTestLedger(t, "").ready()
	l.must("@admin", "mint", "@alice", "1000")

	res := decode[opResult](t, l.must("@alice", "approve", "@bob", "100"))
	if !res.Changed {
		t.Errorf("approve = %+v", res)
	}

	l.must("@bob", "transfer-from", "@alice", "@carol", "30")
	allowance := decode[allowanceRow](t, l.must("", "allowance", "@alice", "@bob"))
	if allowance.Amount != "70" || allowance.Expiry != 105 {
		t.Errorf("allowance = %+v, want 70 expiring at 105", allowance)
	}
	if got := l.balance("carol"); got != "30" {
		t.Errorf("carol = %s, want 30", got)
	}

	if _, err := l.run("@bob", "transfer-from", "@alice", "@carol", "71"); !errors.Is(err, domain.ErrInsufficientAllowance) {
		t.Errorf("error = %v, want ErrInsufficientAllowance", err)
	}

	l.must("@admin", "approve-from", "@carol", "@bob", "max")
	list := decode[[]allowanceRow](t, l.must("", "list", "allowances"))
	if len(list) != 2 {
		t.Fatalf("list allowances = %+v", list)
	}
	infinite := new(uint256.Int).SetAllOne().Dec()
	found := false
	for _, a := range list {
		if a.Owner == domain.DeriveAccountID("carol").String() {
			found = a.Amount == infinite
		}
	}
	if !found {
		t.Errorf("infinite allowance should list as %s: %+v", infinite, list)
	}

	l.must("@bob", "transfer-all-from", "@carol", "@bob")
	if got := l.balance("bob"); got != "30" {
		t.Errorf("bob = %s, want 30", got)
	}
}

func TestRemoveExpired(t *testing.T) {
	l := newTestLedger(t, "").ready()
	l.must("@alice", "approve", "@bob", "10")

	if _, err := l.run("@carol", "remove-expired", "@alice", "@bob"); !errors.Is(err, domain.ErrAllowanceNotExpired) {
		t.Errorf("error = %v, want ErrAllowanceNotExpired", err)
	}

	l.must("@admin", "set-expiry", "0")
	l.must("@alice", "approve", "@bob", "20")
	var out bytes.Buffer
	app := App()
	app.Writer = &out
	err := app.Run([]string{"vftledger", "-c", l.config, "-o", "json", "--block", "200", "--caller", "@carol", "remove-expired", "@alice", "@bob"})
	if err != nil {
		t.Fatalf("remove-expired error = %v", err)
	}
	if res := decode[opResult](t, out.String()); !res.Changed {
		t.Errorf("remove-expired = %+v", res)
	}
}

func TestPauseResume(t *testing.T) {
	l := newTestLedger(t, "").ready()
	l.must("@admin", "mint", "@alice", "100")

	if res := decode[opResult](t, l.must("@admin", "pause")); !res.Changed {
		t.Errorf("pause = %+v", res)
	}
	if res := decode[opResult](t, l.must("@admin", "pause")); res.Changed {
		t.Errorf("second pause = %+v, want unchanged", res)
	}
	if _, err := l.run("@alice", "transfer", "@bob", "10"); !errors.Is(err, domain.ErrPaused) {
		t.Errorf("transfer error = %v, want ErrPaused", err)
	}
	if supply := decode[supplyResult](t, l.must("", "supply")); !supply.Paused {
		t.Error("supply should report paused")
	}

	l.must("@admin", "resume")
	l.must("@alice", "transfer", "@bob", "10")
}

func TestAccessControl(t *testing.T) {
	minter := domain.DeriveAccountID("minter").String()
	l := newTestLedger(t, `
access:
  enabled: true
  roles:
    minter: ["`+minter+`"]
    admin: ["`+domain.DeriveAccountID("admin").String()+`"]
`)
	l.ready()

	if _, err := l.run("@alice", "mint", "@alice", "100"); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("mint error = %v, want ErrPermissionDenied", err)
	}
	l.must("@minter", "mint", "@alice", "100")
	if _, err := l.run("@minter", "pause"); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("pause error = %v, want ErrPermissionDenied", err)
	}
	if _, err := l.run("@minter", "set-minimum", "5"); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("set-minimum error = %v, want ErrPermissionDenied", err)
	}
	l.must("@admin", "pause")
}

func TestSetMinimum(t *testing.T) {
	l := newTestLedger(t, "").ready()
	l.must("@admin", "mint", "@alice", "100")

	res := decode[opResult](t, l.must("@admin", "set-minimum", "50"))
	if res.Operation != "set_minimum" || res.Amount != "50" {
		t.Errorf("set-minimum = %+v", res)
	}
	if supply := decode[supplyResult](t, l.must("", "supply")); supply.MinimumBalance != "50" {
		t.Errorf("supply = %+v, want minimum 50", supply)
	}

	// alice keeps 40 only until the debit that leaves it there.
	l.must("@alice", "transfer", "@bob", "60")
	if got := l.balance("alice"); got != "0" {
		t.Errorf("alice = %s, want 0", got)
	}
	if supply := decode[supplyResult](t, l.must("", "supply")); supply.Unused != "40" {
		t.Errorf("supply = %+v, want 40 unused", supply)
	}
}

func TestMetadata(t *testing.T) {
	t.Setenv("VFTLEDGER_LEDGER__NAME", "Gold")
	t.Setenv("VFTLEDGER_LEDGER__SYMBOL", "AU")
	l := newTestLedger(t, "").ready()

	got := decode[metadataResult](t, l.must("", "metadata"))
	want := metadataResult{Name: "Gold", Symbol: "AU", Decimals: domain.DefaultDecimals}
	if got != want {
		t.Errorf("metadata = %+v, want %+v", got, want)
	}

	snap := decode[snapshotRow](t, l.must("", "snapshot", "create"))
	l.must("", "snapshot", "restore", snap.ID)
	if got := decode[metadataResult](t, l.must("", "metadata")); got != want {
		t.Errorf("metadata after restore = %+v, want %+v", got, want)
	}
}

func TestSnapshots(t *testing.T) {
	l := newTestLedger(t, "").ready()
	l.must("@admin", "mint", "@alice", "100")

	created := decode[snapshotRow](t, l.must("", "snapshot", "create"))
	if created.Holders != 1 || created.TotalSupply != "100" {
		t.Errorf("snapshot = %+v", created)
	}

	l.must("@admin", "mint", "@bob", "50")
	l.must("", "snapshot", "create")

	list := decode[[]snapshotRow](t, l.must("", "snapshot", "list"))
	if len(list) != 2 {
		t.Fatalf("snapshots = %d, want 2", len(list))
	}

	restored := decode[snapshotRow](t, l.must("", "snapshot", "restore", created.ID))
	if restored.ID != created.ID {
		t.Errorf("restored %s, want %s", restored.ID, created.ID)
	}
	if got := l.balance("bob"); got != "0" {
		t.Errorf("bob = %s after restore, want 0", got)
	}
	if got := l.balance("alice"); got != "100" {
		t.Errorf("alice = %s after restore, want 100", got)
	}

	if _, err := l.run("", "snapshot", "restore", "01NOTASNAPSHOT"); err == nil {
		t.Error("restoring an unknown snapshot should fail")
	}
}

func TestAccountDerive(t *testing.T) {
	l := newTestLedger(t, "")
	rows := decode[[]accountRow](t, l.must("", "account", "derive", "alice", "bob"))
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Account != domain.DeriveAccountID("alice").String() {
		t.Errorf("alice = %s", rows[0].Account)
	}
	if !strings.HasPrefix(rows[1].Hex, "0x") {
		t.Errorf("hex = %s", rows[1].Hex)
	}
}

func TestVersion(t *testing.T) {
	l := newTestLedger(t, "")
	out := l.must("", "version")
	if !strings.Contains(out, `"go_version"`) {
		t.Errorf("version = %q", out)
	}
}

func TestArguments(t *testing.T) {
	l := newTestLedger(t, "").ready()

	tests := []struct {
		name string
		args []string
	}{
		{"missing amount", []string{"transfer", "@bob"}},
		{"bad account", []string{"transfer", "not-base58-0OIl", "1"}},
		{"bad amount", []string{"transfer", "@bob", "ten"}},
		{"negative amount", []string{"mint", "@bob", "-1"}},
		{"bad period", []string{"set-expiry", "forever"}},
		{"bad minimum", []string{"set-minimum", "lots"}},
		{"metadata takes no arguments", []string{"metadata", "extra"}},
		{"unknown ledger", []string{"shards", "grow", "--ledger", "tokens"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := l.run("@alice", tt.args...); err == nil {
				t.Errorf("%v should fail", tt.args)
			}
		})
	}

	var out bytes.Buffer
	app := App()
	app.Writer = &out
	if err := app.Run([]string{"vftledger", "-c", l.config, "-o", "xml", "supply"}); err == nil {
		t.Error("unknown output format should fail")
	}
}

func TestParseAccount(t *testing.T) {
	alice := domain.DeriveAccountID("alice")

	tests := []struct {
		in      string
		want    domain.AccountID
		wantErr bool
	}{
		{"@alice", alice, false},
		{alice.String(), alice, false},
		{alice.Hex(), alice, false},
		{"@", domain.AccountID{}, true},
		{"0x1234", domain.AccountID{}, true},
	}
	for _, tt := range tests {
		got, err := parseAccount(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseAccount(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseAccount(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"0", "0", false},
		{"1_000_000", "1000000", false},
		{"MAX", new(uint256.Int).SetAllOne().Dec(), false},
		{"1e3", "", true},
		{"-5", "", true},
	}
	for _, tt := range tests {
		got, err := parseAmount(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseAmount(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got.Dec() != tt.want {
			t.Errorf("parseAmount(%q) = %s, want %s", tt.in, got.Dec(), tt.want)
		}
	}
}
