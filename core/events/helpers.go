package events

import (
	"math/big"
	"strconv"

	"stakehouse/crypto"
)

func formatAmount(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}

func uintToString(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func accountString(addr [20]byte) string {
	return crypto.MustNewAddress(crypto.AccountPrefix, addr[:]).String()
}

func poolString(addr [20]byte) string {
	return crypto.MustNewAddress(crypto.PoolPrefix, addr[:]).String()
}

func zeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}
