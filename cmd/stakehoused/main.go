package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"gopkg.in/natefinch/lumberjack.v2"

	"stakehouse/config"
	corestate "stakehouse/core/state"
	"stakehouse/crypto"
	"stakehouse/gateway"
	"stakehouse/native/factory"
	"stakehouse/native/launchpad"
	"stakehouse/native/registry"
	"stakehouse/native/reservoir"
	"stakehouse/native/staking"
	"stakehouse/native/token"
	"stakehouse/native/whitelist"
	"stakehouse/observability"
	"stakehouse/observability/logging"
	"stakehouse/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger := logging.Setup("stakehoused", cfg.Environment, logWriter(cfg))

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		logger.Error("Failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	key, err := loadOrCreateKey(filepath.Join(cfg.DataDir, "node.key"))
	if err != nil {
		logger.Error("Failed to load node key", slog.Any("error", err))
		os.Exit(1)
	}
	var owner [20]byte
	copy(owner[:], key.PubKey().Address().Bytes())
	logger.Info("Node identity loaded", slog.String("address", key.PubKey().Address().String()))

	manager := corestate.NewManager(db)
	ledger := token.NewLedger(manager)
	emitter := observability.NewMetricsEmitter(nil)

	terms, err := cfg.StakingTerms()
	if err != nil {
		logger.Error("Invalid staking terms", slog.Any("error", err))
		os.Exit(1)
	}

	wl := whitelist.New()
	wl.SetState(manager)
	wl.SetEmitter(emitter)
	if err := wl.Initialize(owner); err != nil && !errors.Is(err, whitelist.ErrAlreadyInitialized) {
		logger.Error("Failed to initialize whitelist", slog.Any("error", err))
		os.Exit(1)
	}

	reg := registry.New()
	reg.SetState(manager)
	if err := reg.Initialize(owner); err != nil && !errors.Is(err, registry.ErrAlreadyInitialized) {
		logger.Error("Failed to initialize registry", slog.Any("error", err))
		os.Exit(1)
	}

	factoryAddr := deriveSystemAddress("factory")
	if err := reg.AddFactory(owner, factoryAddr); err != nil {
		logger.Error("Failed to allow factory", slog.Any("error", err))
		os.Exit(1)
	}

	fac := factory.New(factoryAddr)
	fac.SetBackend(manager)
	fac.SetLedger(ledger)
	fac.SetRegistry(reg)
	fac.SetEmitter(emitter)

	assetAddr, err := ensureStakeAsset(cfg, ledger, owner, logger)
	if err != nil {
		logger.Error("Failed to set up stake asset", slog.Any("error", err))
		os.Exit(1)
	}

	pools := newPoolSet()
	if err := bootPools(cfg, fac, reg, manager, ledger, wl, emitter, terms, owner, assetAddr, pools, logger); err != nil {
		logger.Error("Failed to boot pools", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Reservoir.Enabled {
		res, err := bootReservoir(cfg, reg, manager, ledger, assetAddr)
		if err != nil {
			logger.Error("Failed to boot reservoir", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Reservoir armed",
			slog.String("address", crypto.MustNewAddress(crypto.PoolPrefix, addrBytes(res.Address())).String()))
		go dripLoop(ctx, res, cfg.ReservoirDripInterval(), logger)
	}

	server := gateway.NewServer(logger, reg, pools, terms)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Gateway listening", slog.String("address", cfg.ListenAddress))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Gateway failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Gateway shutdown failed", slog.Any("error", err))
	}
}

func logWriter(cfg *config.Config) io.Writer {
	if strings.TrimSpace(cfg.Log.File) == "" {
		return os.Stdout
	}
	rotated := &lumberjack.Logger{
		Filename:   cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
		Compress:   true,
	}
	return io.MultiWriter(os.Stdout, rotated)
}

func loadOrCreateKey(path string) (*crypto.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		decoded, err := hex.DecodeString(strings.TrimSpace(string(raw)))
		if err != nil {
			return nil, fmt.Errorf("parse node key: %w", err)
		}
		return crypto.PrivateKeyFromBytes(decoded)
	}
	if !os.IsNotExist(err) {
		return nil, err
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	encoded := hex.EncodeToString(key.Bytes())
	if err := os.WriteFile(path, []byte(encoded+"\n"), 0o600); err != nil {
		return nil, err
	}
	return key, nil
}

// deriveSystemAddress fixes the address of a singleton system component.
func deriveSystemAddress(name string) [20]byte {
	hash := ethcrypto.Keccak256([]byte("stakehouse/system/" + name))
	var addr [20]byte
	copy(addr[:], hash[len(hash)-20:])
	return addr
}

// ensureStakeAsset registers the stake asset on first boot and mints the
// configured supply to the node owner.
func ensureStakeAsset(cfg *config.Config, ledger *token.Ledger, owner [20]byte, logger *slog.Logger) ([20]byte, error) {
	assetAddr := deriveSystemAddress("asset/" + cfg.Asset.Symbol)
	if _, err := ledger.Metadata(assetAddr); err == nil {
		return assetAddr, nil
	} else if !errors.Is(err, token.ErrTokenNotFound) {
		return [20]byte{}, err
	}
	if err := ledger.Init(assetAddr, cfg.Asset.Name, cfg.Asset.Symbol, cfg.Asset.Decimals); err != nil {
		return [20]byte{}, err
	}
	supply, err := cfg.InitialSupply()
	if err != nil {
		return [20]byte{}, err
	}
	if supply != nil && supply.Sign() > 0 {
		if err := ledger.Mint(assetAddr, owner, supply); err != nil {
			return [20]byte{}, err
		}
	}
	logger.Info("Stake asset registered",
		slog.String("symbol", cfg.Asset.Symbol),
		slog.String("address", crypto.MustNewAddress(crypto.PoolPrefix, assetAddr[:]).String()))
	return assetAddr, nil
}

// bootPools rebuilds engines for every registered pool and creates the
// default pools on first boot.
func bootPools(
	cfg *config.Config,
	fac *factory.Factory,
	reg *registry.Registry,
	manager *corestate.Manager,
	ledger *token.Ledger,
	wl *whitelist.Whitelist,
	emitter *observability.MetricsEmitter,
	terms *staking.Terms,
	owner, assetAddr [20]byte,
	pools *poolSet,
	logger *slog.Logger,
) error {
	records, err := reg.Pools()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		engine, err := fac.CreatePool(owner, terms, wl, assetAddr, cfg.Pool.ClaimName, cfg.Pool.ClaimSymbol)
		if err != nil {
			return err
		}
		pools.addStaking(engine)
		logger.Info("Created staking pool",
			slog.String("pool", crypto.MustNewAddress(crypto.PoolPrefix, addrBytes(engine.Address())).String()))
		if cfg.Launchpad.Enabled {
			minStake, maxStake, maxTotal, err := cfg.LaunchpadBounds()
			if err != nil {
				return err
			}
			sale, err := fac.CreateLaunchpadPool(owner, assetAddr, minStake, maxStake, maxTotal)
			if err != nil {
				return err
			}
			pools.addLaunchpad(sale)
			logger.Info("Created launchpad pool",
				slog.String("pool", crypto.MustNewAddress(crypto.PoolPrefix, addrBytes(sale.Address())).String()))
		}
		return nil
	}

	for _, record := range records {
		switch record.Kind {
		case registry.KindStaking:
			engine := staking.NewEngine(record.Pool)
			engine.SetState(manager)
			engine.SetTerms(terms)
			engine.SetAssetLedger(ledger.Bind(record.StakeAsset))
			engine.SetClaimLedger(ledger.Bind(record.ClaimToken))
			engine.SetWhitelist(wl)
			engine.SetEmitter(emitter)
			pools.addStaking(engine)
		case registry.KindLaunchpad:
			engine := launchpad.NewEngine(record.Pool)
			engine.SetState(manager)
			engine.SetAssetLedger(ledger.Bind(record.StakeAsset))
			engine.SetEmitter(emitter)
			pools.addLaunchpad(engine)
		}
	}
	logger.Info("Rebuilt pool engines", slog.Int("count", len(records)))
	return nil
}

// bootReservoir points the drip reservoir at the first registered staking
// pool so retained fees and bonus payouts stay funded.
func bootReservoir(
	cfg *config.Config,
	reg *registry.Registry,
	manager *corestate.Manager,
	ledger *token.Ledger,
	assetAddr [20]byte,
) (*reservoir.Reservoir, error) {
	records, err := reg.Pools()
	if err != nil {
		return nil, err
	}
	var target [20]byte
	for _, record := range records {
		if record.Kind == registry.KindStaking {
			target = record.Pool
			break
		}
	}
	if target == ([20]byte{}) {
		return nil, errors.New("stakehoused: reservoir enabled but no staking pool registered")
	}
	rate, err := cfg.ReservoirDripRate()
	if err != nil {
		return nil, err
	}
	res := reservoir.New(deriveSystemAddress("reservoir"))
	res.SetState(manager)
	res.SetAssetLedger(ledger.Bind(assetAddr))
	if err := res.Initialize(assetAddr, target, rate); err != nil && !errors.Is(err, reservoir.ErrAlreadyInitialized) {
		return nil, err
	}
	return res, nil
}

// dripLoop releases one reservoir tranche per interval until shutdown.
func dripLoop(ctx context.Context, res *reservoir.Reservoir, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			moved, err := res.Drip()
			if errors.Is(err, reservoir.ErrDrained) {
				continue
			}
			if err != nil {
				logger.Error("Reservoir drip failed", slog.Any("error", err))
				continue
			}
			logger.Info("Reservoir dripped", slog.String("amount", moved.String()))
		}
	}
}

func addrBytes(addr [20]byte) []byte { return addr[:] }

// poolSet implements gateway.PoolProvider over the booted engines.
type poolSet struct {
	mu        sync.RWMutex
	staking   map[[20]byte]*staking.Engine
	launchpad map[[20]byte]*launchpad.Engine
}

func newPoolSet() *poolSet {
	return &poolSet{
		staking:   make(map[[20]byte]*staking.Engine),
		launchpad: make(map[[20]byte]*launchpad.Engine),
	}
}

func (p *poolSet) addStaking(engine *staking.Engine) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.staking[engine.Address()] = engine
}

func (p *poolSet) addLaunchpad(engine *launchpad.Engine) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.launchpad[engine.Address()] = engine
}

func (p *poolSet) StakingPool(pool [20]byte) (*staking.Engine, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	engine, ok := p.staking[pool]
	return engine, ok
}

func (p *poolSet) LaunchpadPool(pool [20]byte) (*launchpad.Engine, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	engine, ok := p.launchpad[pool]
	return engine, ok
}
