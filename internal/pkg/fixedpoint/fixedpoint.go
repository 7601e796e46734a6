// Package fixedpoint implements the scaled reward-per-unit arithmetic.
// Both operations truncate toward zero; the lost fractional remainder
// ("dust") is an accepted precision trade-off, not a bug.
package fixedpoint

import (
	"cosmossdk.io/math"

	"wattshare-backend/internal/domain"
)

// scale is the reward-per-unit precision (1e18).
var scale = math.NewIntWithDecimal(1, 18)

// RewardIncrease computes the accumulator increase for depositing amount
// across minted units: amount * 1e18 / minted, truncated.
// minted must be greater than zero.
func RewardIncrease(amount domain.Wei, minted uint64) domain.Wei {
	return domain.WeiFromInt(amount.Int().Mul(scale).Quo(math.NewIntFromUint64(minted)))
}

// Earned computes a holder's newly earned reward from a balance and an
// accumulator delta: units * delta / 1e18, truncated.
func Earned(units uint64, delta domain.Wei) domain.Wei {
	return domain.WeiFromInt(math.NewIntFromUint64(units).Mul(delta.Int()).Quo(scale))
}
