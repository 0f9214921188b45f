package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"stakehouse/crypto"
	"stakehouse/native/staking"
)

// TermsConfig configures the shared staking terms. DeveloperAddress is a
// bech32 account address; it may be empty when no developer bonus is paid.
type TermsConfig struct {
	TimeBonusPercent       uint64 `toml:"TimeBonusPercent"`
	TimeNormalizer         uint64 `toml:"TimeNormalizer"`
	UnholdFeePercent       uint64 `toml:"UnholdFeePercent"`
	RefererBonusPercent    uint64 `toml:"RefererBonusPercent"`
	InfluencerBonusPercent uint64 `toml:"InfluencerBonusPercent"`
	DeveloperBonusPercent  uint64 `toml:"DeveloperBonusPercent"`
	DeveloperAddress       string `toml:"DeveloperAddress"`
}

// AssetConfig describes the stake asset the daemon registers at genesis.
type AssetConfig struct {
	Name          string `toml:"Name"`
	Symbol        string `toml:"Symbol"`
	Decimals      uint8  `toml:"Decimals"`
	InitialSupply string `toml:"InitialSupply"`
}

// PoolConfig configures the default pool the daemon creates on first boot.
// Empty claim name or symbol falls back to the LP naming convention.
type PoolConfig struct {
	ClaimName   string `toml:"ClaimName"`
	ClaimSymbol string `toml:"ClaimSymbol"`
}

// LaunchpadConfig configures the capped-sale pool bounds as decimal strings.
// Empty strings fall back to the launchpad defaults.
type LaunchpadConfig struct {
	Enabled             bool   `toml:"Enabled"`
	MinStakeAmount      string `toml:"MinStakeAmount"`
	MaxStakeAmount      string `toml:"MaxStakeAmount"`
	MaxTotalStakeAmount string `toml:"MaxTotalStakeAmount"`
}

// ReservoirConfig configures the drip reservoir that tops up the default
// staking pool so time-bonus payouts stay covered. DripRate is a decimal
// amount moved per interval.
type ReservoirConfig struct {
	Enabled             bool   `toml:"Enabled"`
	DripRate            string `toml:"DripRate"`
	DripIntervalSeconds uint64 `toml:"DripIntervalSeconds"`
}

// LogConfig configures the rotating daemon log file. An empty File logs to
// stdout only.
type LogConfig struct {
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
}

type Config struct {
	ListenAddress string          `toml:"ListenAddress"`
	DataDir       string          `toml:"DataDir"`
	Environment   string          `toml:"Environment"`
	Log           LogConfig       `toml:"Log"`
	Asset         AssetConfig     `toml:"Asset"`
	Terms         TermsConfig     `toml:"Terms"`
	Pool          PoolConfig      `toml:"Pool"`
	Launchpad     LaunchpadConfig `toml:"Launchpad"`
	Reservoir     ReservoirConfig `toml:"Reservoir"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = "local"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		ListenAddress: ":8080",
		DataDir:       "./stakehouse-data",
		Environment:   "local",
		Log: LogConfig{
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Asset: AssetConfig{
			Name:          "Stake Token",
			Symbol:        "STK",
			Decimals:      18,
			InitialSupply: "1000000000000000000000000000",
		},
		Terms: TermsConfig{
			TimeBonusPercent: 10,
			TimeNormalizer:   365 * 24 * 60 * 60,
			UnholdFeePercent: 10,
		},
	}

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Validate checks the configuration for internally consistent values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("config: ListenAddress must not be empty")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir must not be empty")
	}
	if _, err := c.StakingTerms(); err != nil {
		return err
	}
	if c.Asset.InitialSupply != "" {
		if _, err := parseAmount("Asset.InitialSupply", c.Asset.InitialSupply); err != nil {
			return err
		}
	}
	minStake, err := c.launchpadAmount("Launchpad.MinStakeAmount", c.Launchpad.MinStakeAmount)
	if err != nil {
		return err
	}
	maxStake, err := c.launchpadAmount("Launchpad.MaxStakeAmount", c.Launchpad.MaxStakeAmount)
	if err != nil {
		return err
	}
	if _, err := c.launchpadAmount("Launchpad.MaxTotalStakeAmount", c.Launchpad.MaxTotalStakeAmount); err != nil {
		return err
	}
	if minStake != nil && maxStake != nil && maxStake.Cmp(minStake) < 0 {
		return fmt.Errorf("config: Launchpad.MaxStakeAmount below Launchpad.MinStakeAmount")
	}
	if c.Reservoir.Enabled {
		rate, err := parseAmount("Reservoir.DripRate", c.Reservoir.DripRate)
		if err != nil {
			return err
		}
		if rate.Sign() == 0 {
			return fmt.Errorf("config: Reservoir.DripRate must be positive")
		}
	}
	return nil
}

// StakingTerms converts the terms section into the engine's Terms value.
func (c *Config) StakingTerms() (*staking.Terms, error) {
	terms := &staking.Terms{
		TimeBonusPercent:       c.Terms.TimeBonusPercent,
		TimeNormalizer:         c.Terms.TimeNormalizer,
		UnholdFeePercent:       c.Terms.UnholdFeePercent,
		RefererBonusPercent:    c.Terms.RefererBonusPercent,
		InfluencerBonusPercent: c.Terms.InfluencerBonusPercent,
		DeveloperBonusPercent:  c.Terms.DeveloperBonusPercent,
	}
	if addr := strings.TrimSpace(c.Terms.DeveloperAddress); addr != "" {
		decoded, err := crypto.DecodeAddress(addr)
		if err != nil {
			return nil, fmt.Errorf("config: Terms.DeveloperAddress: %w", err)
		}
		copy(terms.DeveloperAddress[:], decoded.Bytes())
	}
	if err := terms.Validate(); err != nil {
		return nil, err
	}
	return terms, nil
}

// InitialSupply returns the configured genesis supply, nil when unset.
func (c *Config) InitialSupply() (*big.Int, error) {
	if c.Asset.InitialSupply == "" {
		return nil, nil
	}
	return parseAmount("Asset.InitialSupply", c.Asset.InitialSupply)
}

// ReservoirDripRate returns the configured per-interval drip amount.
func (c *Config) ReservoirDripRate() (*big.Int, error) {
	return parseAmount("Reservoir.DripRate", c.Reservoir.DripRate)
}

// ReservoirDripInterval returns the drip cadence, defaulting to one hour.
func (c *Config) ReservoirDripInterval() time.Duration {
	if c.Reservoir.DripIntervalSeconds == 0 {
		return time.Hour
	}
	return time.Duration(c.Reservoir.DripIntervalSeconds) * time.Second
}

// LaunchpadBounds returns the configured launchpad bounds. Nil entries mean
// the engine defaults apply.
func (c *Config) LaunchpadBounds() (minStake, maxStake, maxTotal *big.Int, err error) {
	if minStake, err = c.launchpadAmount("Launchpad.MinStakeAmount", c.Launchpad.MinStakeAmount); err != nil {
		return nil, nil, nil, err
	}
	if maxStake, err = c.launchpadAmount("Launchpad.MaxStakeAmount", c.Launchpad.MaxStakeAmount); err != nil {
		return nil, nil, nil, err
	}
	if maxTotal, err = c.launchpadAmount("Launchpad.MaxTotalStakeAmount", c.Launchpad.MaxTotalStakeAmount); err != nil {
		return nil, nil, nil, err
	}
	return minStake, maxStake, maxTotal, nil
}

func (c *Config) launchpadAmount(field, value string) (*big.Int, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	return parseAmount(field, value)
}

func parseAmount(field, value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("config: %s is not a valid decimal amount: %q", field, value)
	}
	return amount, nil
}
