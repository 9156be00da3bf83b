package squad

import (
	"math"
	"math/big"
)

const (
	// StakeUnit is the normalization unit; stake below it carries no weight.
	StakeUnit = 1_000_000

	// MaxTenureSeconds is the tenure (90 days) at which the multiplier caps.
	MaxTenureSeconds = 90 * 24 * 60 * 60

	// Multipliers are fixed-point with 100 = 1.00x.
	BaseMultiplier     = 100
	MaxTenureMulti     = 200
	SquadSizeStep      = 4
	ActivityFloor      = 50
	MaxActivityScore   = 100
	weightNormalizer   = 100_000_000
	wideArithmeticBits = 128
)

var (
	bigNormalizer = big.NewInt(weightNormalizer)
	bigMaxUint64  = new(big.Int).SetUint64(math.MaxUint64)
)

// Weight computes a member's reward weight from stake, tenure, squad size,
// and activity score:
//
//	(stake / 1e6) * tenure * squad * activity / 1e8
//
// where tenure ramps 100..200 over 90 days, squad is 100 + (size-2)*4 and
// activity is 50 + min(score, 100). Products are checked against a 128-bit
// bound; the final value saturates at math.MaxUint64.
func Weight(stake uint64, tenureSeconds int64, squadSize uint8, activityScore uint32) (uint64, error) {
	base := stake / StakeUnit

	w := new(big.Int).SetUint64(base)
	for _, m := range []int64{
		tenureMultiplier(tenureSeconds),
		squadMultiplier(squadSize),
		activityMultiplier(activityScore),
	} {
		var err error
		if w, err = checkedMul(w, big.NewInt(m)); err != nil {
			return 0, err
		}
	}

	w, err := checkedDiv(w, bigNormalizer)
	if err != nil {
		return 0, err
	}
	if w.Cmp(bigMaxUint64) > 0 {
		return math.MaxUint64, nil
	}
	return w.Uint64(), nil
}

// tenureMultiplier ramps linearly from 100 at zero tenure to 200 at
// MaxTenureSeconds and stays there. Negative tenure counts as zero.
func tenureMultiplier(tenureSeconds int64) int64 {
	if tenureSeconds >= MaxTenureSeconds {
		return MaxTenureMulti
	}
	if tenureSeconds < 0 {
		tenureSeconds = 0
	}
	return BaseMultiplier + tenureSeconds*100/MaxTenureSeconds
}

// squadMultiplier is 100 for two members up to 124 for eight.
func squadMultiplier(squadSize uint8) int64 {
	return BaseMultiplier + (int64(squadSize)-MinMembers)*SquadSizeStep
}

// activityMultiplier maps scores 0..100 onto 50..150; higher scores clamp.
func activityMultiplier(score uint32) int64 {
	return ActivityFloor + int64(min(score, MaxActivityScore))
}

// checkedMul returns a*b, or ErrOverflow if the product exceeds 128 bits.
func checkedMul(a, b *big.Int) (*big.Int, error) {
	r := new(big.Int).Mul(a, b)
	if r.BitLen() > wideArithmeticBits {
		return nil, ErrOverflow
	}
	return r, nil
}

// checkedAdd returns a+b, or ErrOverflow if the sum exceeds 128 bits.
func checkedAdd(a, b *big.Int) (*big.Int, error) {
	r := new(big.Int).Add(a, b)
	if r.BitLen() > wideArithmeticBits {
		return nil, ErrOverflow
	}
	return r, nil
}

// checkedDiv returns floor(a/b) for non-negative operands.
func checkedDiv(a, b *big.Int) (*big.Int, error) {
	if b.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	return new(big.Int).Quo(a, b), nil
}

// mulDiv returns floor(a*b/c) using the same 128-bit-checked steps as Weight.
func mulDiv(a, b uint64, c *big.Int) (uint64, error) {
	p, err := checkedMul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
	if err != nil {
		return 0, err
	}
	q, err := checkedDiv(p, c)
	if err != nil {
		return 0, err
	}
	if q.Cmp(bigMaxUint64) > 0 {
		return 0, ErrOverflow
	}
	return q.Uint64(), nil
}

// checkedAddU64 returns a+b or ErrOverflow on wraparound.
func checkedAddU64(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// checkedSubU64 returns a-b or ErrUnderflow when b > a.
func checkedSubU64(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrUnderflow
	}
	return a - b, nil
}
