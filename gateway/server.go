package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stakehouse/crypto"
	"stakehouse/native/launchpad"
	"stakehouse/native/registry"
	"stakehouse/native/staking"
)

// PoolProvider resolves pool addresses to live engine instances. The daemon
// implements it over the engines it booted.
type PoolProvider interface {
	StakingPool(pool [20]byte) (*staking.Engine, bool)
	LaunchpadPool(pool [20]byte) (*launchpad.Engine, bool)
}

// Server exposes the read-only HTTP API: pool discovery, pool state, account
// stakes and payout quotes. All mutations go through the engines directly;
// the gateway never writes state.
type Server struct {
	log      *slog.Logger
	registry *registry.Registry
	pools    PoolProvider
	terms    *staking.Terms
}

// NewServer constructs a gateway server.
func NewServer(log *slog.Logger, reg *registry.Registry, pools PoolProvider, terms *staking.Terms) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{log: log, registry: reg, pools: pools, terms: terms}
}

// Handler builds the chi router for the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/pools", s.listPools)
		r.Get("/pools/{pool}", s.getPool)
		r.Get("/pools/{pool}/stakes/{account}", s.getStakes)
		r.Get("/pools/{pool}/quote/stake", s.quoteStake)
		r.Get("/pools/{pool}/quote/unstake", s.quoteUnstake)
	})

	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("gateway: encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func poolAddr(addr [20]byte) string {
	return crypto.MustNewAddress(crypto.PoolPrefix, addr[:]).String()
}

func accountAddr(addr [20]byte) string {
	return crypto.MustNewAddress(crypto.AccountPrefix, addr[:]).String()
}

func parseAddressParam(r *http.Request, name string) ([20]byte, error) {
	raw := chi.URLParam(r, name)
	decoded, err := crypto.DecodeAddress(raw)
	if err != nil {
		return [20]byte{}, err
	}
	var out [20]byte
	copy(out[:], decoded.Bytes())
	return out, nil
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

type poolSummary struct {
	Pool       string `json:"pool"`
	Kind       string `json:"kind"`
	Owner      string `json:"owner"`
	StakeAsset string `json:"stakeAsset"`
	ClaimToken string `json:"claimToken,omitempty"`
	CreatedAt  uint64 `json:"createdAt"`
}

func kindString(kind uint8) string {
	switch kind {
	case registry.KindStaking:
		return "staking"
	case registry.KindLaunchpad:
		return "launchpad"
	default:
		return "unknown"
	}
}

func summarize(record registry.Record) poolSummary {
	out := poolSummary{
		Pool:       poolAddr(record.Pool),
		Kind:       kindString(record.Kind),
		Owner:      accountAddr(record.Owner),
		StakeAsset: poolAddr(record.StakeAsset),
		CreatedAt:  record.CreatedAt,
	}
	if record.ClaimToken != ([20]byte{}) {
		out.ClaimToken = poolAddr(record.ClaimToken)
	}
	return out
}

func (s *Server) listPools(w http.ResponseWriter, r *http.Request) {
	records, err := s.registry.Pools()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]poolSummary, 0, len(records))
	for _, record := range records {
		out = append(out, summarize(record))
	}
	s.writeJSON(w, http.StatusOK, out)
}

type stakingPoolResponse struct {
	poolSummary
	StakeCounter uint64 `json:"stakeCounter"`
	RetainedFees string `json:"retainedFees"`
}

type launchpadPoolResponse struct {
	poolSummary
	MinStakeAmount      string `json:"minStakeAmount"`
	MaxStakeAmount      string `json:"maxStakeAmount"`
	MaxTotalStakeAmount string `json:"maxTotalStakeAmount"`
	TotalStakeAmount    string `json:"totalStakeAmount"`
	PauseStake          bool   `json:"pauseStake"`
	UnstakeEnabled      bool   `json:"unstakeEnabled"`
	UnstakeTime         uint64 `json:"unstakeTime"`
}

func (s *Server) getPool(w http.ResponseWriter, r *http.Request) {
	pool, err := parseAddressParam(r, "pool")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	record, err := s.registry.Lookup(pool)
	if err != nil {
		if errors.Is(err, registry.ErrPoolNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	switch record.Kind {
	case registry.KindStaking:
		engine, ok := s.pools.StakingPool(pool)
		if !ok {
			s.writeError(w, http.StatusNotFound, registry.ErrPoolNotFound)
			return
		}
		info, err := engine.PoolInfo()
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		s.writeJSON(w, http.StatusOK, stakingPoolResponse{
			poolSummary:  summarize(record),
			StakeCounter: info.StakeCounter,
			RetainedFees: bigString(info.RetainedFees),
		})
	case registry.KindLaunchpad:
		engine, ok := s.pools.LaunchpadPool(pool)
		if !ok {
			s.writeError(w, http.StatusNotFound, registry.ErrPoolNotFound)
			return
		}
		info, err := engine.PoolInfo()
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		s.writeJSON(w, http.StatusOK, launchpadPoolResponse{
			poolSummary:         summarize(record),
			MinStakeAmount:      bigString(info.MinStakeAmount),
			MaxStakeAmount:      bigString(info.MaxStakeAmount),
			MaxTotalStakeAmount: bigString(info.MaxTotalStakeAmount),
			TotalStakeAmount:    bigString(info.TotalStakeAmount),
			PauseStake:          info.PauseStake,
			UnstakeEnabled:      info.UnstakeEnabled,
			UnstakeTime:         info.UnstakeTime,
		})
	default:
		s.writeError(w, http.StatusInternalServerError, errors.New("gateway: unknown pool kind"))
	}
}

type stakeView struct {
	Index     uint64 `json:"index"`
	Amount    string `json:"amount"`
	Timestamp uint64 `json:"timestamp"`
	HoldTime  uint64 `json:"holdTime"`
	Active    bool   `json:"active"`
}

type launchpadStakeView struct {
	Amount    string `json:"amount"`
	Timestamp uint64 `json:"timestamp"`
}

func (s *Server) getStakes(w http.ResponseWriter, r *http.Request) {
	pool, err := parseAddressParam(r, "pool")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	account, err := parseAddressParam(r, "account")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if engine, ok := s.pools.StakingPool(pool); ok {
		records, err := engine.GetUserStakes(account)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		out := make([]stakeView, 0, len(records))
		for i, record := range records {
			out = append(out, stakeView{
				Index:     uint64(i),
				Amount:    bigString(record.Amount),
				Timestamp: record.Timestamp,
				HoldTime:  record.HoldTime,
				Active:    record.Active,
			})
		}
		s.writeJSON(w, http.StatusOK, out)
		return
	}
	if engine, ok := s.pools.LaunchpadPool(pool); ok {
		position, err := engine.UserStakeOf(account)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		s.writeJSON(w, http.StatusOK, launchpadStakeView{
			Amount:    bigString(position.Amount),
			Timestamp: position.Timestamp,
		})
		return
	}
	s.writeError(w, http.StatusNotFound, registry.ErrPoolNotFound)
}

type stakeQuoteResponse struct {
	Staker     string `json:"staker"`
	Referer    string `json:"referer"`
	Influencer string `json:"influencer"`
	Developer  string `json:"developer"`
}

func (s *Server) quoteStake(w http.ResponseWriter, r *http.Request) {
	if s.terms == nil {
		s.writeError(w, http.StatusInternalServerError, staking.ErrNilTerms)
		return
	}
	amount, ok := new(big.Int).SetString(r.URL.Query().Get("amount"), 10)
	if !ok || amount.Sign() <= 0 {
		s.writeError(w, http.StatusBadRequest, staking.ErrInvalidAmount)
		return
	}
	holdTime, err := strconv.ParseUint(r.URL.Query().Get("holdTime"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	amounts, err := s.terms.CalcAllLPAmountOut(amount, holdTime)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stakeQuoteResponse{
		Staker:     bigString(amounts.Staker),
		Referer:    bigString(amounts.Referer),
		Influencer: bigString(amounts.Influencer),
		Developer:  bigString(amounts.Developer),
	})
}

type unstakeQuoteResponse struct {
	Payout string `json:"payout"`
}

func (s *Server) quoteUnstake(w http.ResponseWriter, r *http.Request) {
	pool, err := parseAddressParam(r, "pool")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	engine, ok := s.pools.StakingPool(pool)
	if !ok {
		s.writeError(w, http.StatusNotFound, registry.ErrPoolNotFound)
		return
	}
	rawAccount := r.URL.Query().Get("account")
	decoded, err := crypto.DecodeAddress(rawAccount)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	var account [20]byte
	copy(account[:], decoded.Bytes())

	rawIndex := r.URL.Query().Get("index")
	var payout *big.Int
	if rawIndex == "" || rawIndex == "all" {
		payout, err = engine.AmountAfterUnstakeAll(account)
	} else {
		var index uint64
		index, err = strconv.ParseUint(rawIndex, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		payout, err = engine.AmountAfterUnstake(account, index)
	}
	if err != nil {
		if errors.Is(err, staking.ErrStakeNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, unstakeQuoteResponse{Payout: bigString(payout)})
}
