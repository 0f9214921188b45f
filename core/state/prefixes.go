package state

// Key prefixes. Every stored value lives under a module prefix and, for
// per-pool data, the owning pool address, so no two instances ever share a
// key range.
var (
	prefixTokenMeta      = []byte("token/meta/")
	prefixTokenBalance   = []byte("token/balance/")
	prefixTokenAllowance = []byte("token/allowance/")
	prefixTokenSupply    = []byte("token/supply/")

	prefixWhitelistOwner  = []byte("whitelist/owner")
	prefixWhitelistMember = []byte("whitelist/member/")

	prefixStakingPool   = []byte("staking/pool/")
	prefixStakingStakes = []byte("staking/stakes/")

	prefixLaunchpadPool  = []byte("launchpad/pool/")
	prefixLaunchpadUsers = []byte("launchpad/users/")
	prefixLaunchpadStake = []byte("launchpad/stake/")

	prefixFactory = []byte("factory/")

	prefixRegistryOwner   = []byte("registry/owner")
	prefixRegistryFactory = []byte("registry/factory/")
	prefixRegistryPools   = []byte("registry/pools")

	prefixReservoir = []byte("reservoir/")
)

func key(prefix []byte, parts ...[20]byte) []byte {
	out := make([]byte, 0, len(prefix)+len(parts)*20)
	out = append(out, prefix...)
	for _, part := range parts {
		out = append(out, part[:]...)
	}
	return out
}
