package config

import (
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"stakehouse/crypto"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.ListenAddress != ":8080" {
		t.Fatalf("listen address = %q", cfg.ListenAddress)
	}
	if cfg.Environment != "local" {
		t.Fatalf("environment = %q", cfg.Environment)
	}
	if cfg.Asset.Symbol != "STK" || cfg.Asset.Decimals != 18 {
		t.Fatalf("asset defaults = %+v", cfg.Asset)
	}
	if cfg.Terms.TimeNormalizer != 365*24*60*60 {
		t.Fatalf("time normalizer = %d", cfg.Terms.TimeNormalizer)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default file not written: %v", err)
	}

	// A second load reads the file it just wrote.
	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if again.Asset.InitialSupply != cfg.Asset.InitialSupply {
		t.Fatalf("reload mismatch: %q != %q", again.Asset.InitialSupply, cfg.Asset.InitialSupply)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	return path
}

func TestLoadRejectsBadAmounts(t *testing.T) {
	path := writeConfig(t, `
ListenAddress = ":8080"
DataDir = "./data"

[Terms]
TimeNormalizer = 31536000

[Asset]
InitialSupply = "not-a-number"
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "Asset.InitialSupply") {
		t.Fatalf("bad supply must fail, got %v", err)
	}
}

func TestLoadRejectsLaunchpadMaxBelowMin(t *testing.T) {
	path := writeConfig(t, `
ListenAddress = ":8080"
DataDir = "./data"

[Terms]
TimeNormalizer = 31536000

[Launchpad]
Enabled = true
MinStakeAmount = "1000"
MaxStakeAmount = "100"
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "MaxStakeAmount") {
		t.Fatalf("inverted bounds must fail, got %v", err)
	}
}

func TestLoadRejectsDeveloperBonusWithoutAddress(t *testing.T) {
	path := writeConfig(t, `
ListenAddress = ":8080"
DataDir = "./data"

[Terms]
TimeNormalizer = 31536000
DeveloperBonusPercent = 5
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "developer") {
		t.Fatalf("developer bonus without address must fail, got %v", err)
	}
}

func TestLoadRejectsBadReservoirRate(t *testing.T) {
	path := writeConfig(t, `
ListenAddress = ":8080"
DataDir = "./data"

[Terms]
TimeNormalizer = 31536000

[Reservoir]
Enabled = true
DripRate = "0"
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "DripRate") {
		t.Fatalf("zero drip rate must fail, got %v", err)
	}
}

func TestReservoirSettings(t *testing.T) {
	cfg := &Config{
		Reservoir: ReservoirConfig{
			Enabled:  true,
			DripRate: "500",
		},
	}
	rate, err := cfg.ReservoirDripRate()
	if err != nil {
		t.Fatalf("drip rate failed: %v", err)
	}
	if rate.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("drip rate = %s, want 500", rate)
	}
	if cfg.ReservoirDripInterval() != time.Hour {
		t.Fatalf("default interval = %s, want 1h", cfg.ReservoirDripInterval())
	}
	cfg.Reservoir.DripIntervalSeconds = 30
	if cfg.ReservoirDripInterval() != 30*time.Second {
		t.Fatalf("interval = %s, want 30s", cfg.ReservoirDripInterval())
	}
}

func TestStakingTermsDecodesDeveloperAddress(t *testing.T) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("key generation failed: %v", err)
	}
	developer := key.PubKey().Address()

	cfg := &Config{
		ListenAddress: ":8080",
		DataDir:       "./data",
		Terms: TermsConfig{
			TimeNormalizer:        31536000,
			DeveloperBonusPercent: 5,
			DeveloperAddress:      developer.String(),
		},
	}
	terms, err := cfg.StakingTerms()
	if err != nil {
		t.Fatalf("staking terms failed: %v", err)
	}
	var want [20]byte
	copy(want[:], developer.Bytes())
	if terms.DeveloperAddress != want {
		t.Fatalf("developer address mismatch")
	}

	cfg.Terms.DeveloperAddress = "not-bech32"
	if _, err := cfg.StakingTerms(); err == nil {
		t.Fatalf("malformed address must fail")
	}
}

func TestLaunchpadBounds(t *testing.T) {
	cfg := &Config{
		Launchpad: LaunchpadConfig{
			MinStakeAmount: "100",
			MaxStakeAmount: "1000",
		},
	}
	minStake, maxStake, maxTotal, err := cfg.LaunchpadBounds()
	if err != nil {
		t.Fatalf("bounds failed: %v", err)
	}
	if minStake.Cmp(big.NewInt(100)) != 0 || maxStake.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("bounds = %s/%s", minStake, maxStake)
	}
	if maxTotal != nil {
		t.Fatalf("unset bound must be nil, got %s", maxTotal)
	}
}

func TestInitialSupply(t *testing.T) {
	cfg := &Config{}
	supply, err := cfg.InitialSupply()
	if err != nil || supply != nil {
		t.Fatalf("unset supply = %v err=%v", supply, err)
	}
	cfg.Asset.InitialSupply = "1000000"
	supply, err = cfg.InitialSupply()
	if err != nil {
		t.Fatalf("supply failed: %v", err)
	}
	if supply.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("supply = %s", supply)
	}
}
