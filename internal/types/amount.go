package types

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/rlp"
)

// maxAmount is the numeric ceiling of a staked amount, 2^128 - 1.
var maxAmount = sdkmath.NewUintFromBigInt(
	new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1)),
)

// Amount is an unsigned 128-bit token quantity. The zero value is zero.
// Arithmetic saturates at 0 and MaxAmount instead of wrapping.
type Amount struct {
	v sdkmath.Uint
}

func ZeroAmount() Amount {
	return Amount{v: sdkmath.ZeroUint()}
}

func MaxAmount() Amount {
	return Amount{v: maxAmount}
}

func NewAmount(n uint64) Amount {
	return Amount{v: sdkmath.NewUint(n)}
}

// NewAmountFromBig converts a big integer, rejecting negative values and
// values wider than 128 bits.
func NewAmountFromBig(i *big.Int) (Amount, error) {
	if i == nil {
		return ZeroAmount(), nil
	}
	if i.Sign() < 0 {
		return Amount{}, fmt.Errorf("amount cannot be negative: %s", i)
	}
	if i.Cmp(maxAmount.BigInt()) > 0 {
		return Amount{}, fmt.Errorf("amount %s exceeds 128 bits", i)
	}
	return Amount{v: sdkmath.NewUintFromBigInt(i)}, nil
}

// ParseAmount parses a base-10 amount.
func ParseAmount(s string) (Amount, error) {
	u, err := sdkmath.ParseUint(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if u.GT(maxAmount) {
		return Amount{}, fmt.Errorf("amount %s exceeds 128 bits", s)
	}
	return Amount{v: u}, nil
}

func (a Amount) uint() sdkmath.Uint {
	if a.v.IsNil() {
		return sdkmath.ZeroUint()
	}
	return a.v
}

func (a Amount) BigInt() *big.Int {
	return a.uint().BigInt()
}

func (a Amount) String() string {
	return a.uint().String()
}

func (a Amount) IsZero() bool {
	return a.uint().IsZero()
}

func (a Amount) Equal(b Amount) bool {
	return a.uint().Equal(b.uint())
}

func (a Amount) LT(b Amount) bool {
	return a.uint().LT(b.uint())
}

func (a Amount) GTE(b Amount) bool {
	return a.uint().GTE(b.uint())
}

// SaturatingAdd returns a+b clamped to MaxAmount.
func (a Amount) SaturatingAdd(b Amount) Amount {
	sum := a.uint().Add(b.uint())
	if sum.GT(maxAmount) {
		return MaxAmount()
	}
	return Amount{v: sum}
}

// SaturatingSub returns a-b clamped to zero.
func (a Amount) SaturatingSub(b Amount) Amount {
	if b.uint().GTE(a.uint()) {
		return ZeroAmount()
	}
	return Amount{v: a.uint().Sub(b.uint())}
}

// Float64 is lossy and only meant for metrics.
func (a Amount) Float64() float64 {
	f, _ := new(big.Float).SetInt(a.BigInt()).Float64()
	return f
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func (a Amount) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, a.BigInt())
}

func (a *Amount) DecodeRLP(s *rlp.Stream) error {
	i, err := s.BigInt()
	if err != nil {
		return err
	}
	parsed, err := NewAmountFromBig(i)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
