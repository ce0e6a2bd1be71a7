// Package codec defines the binary payloads exchanged between the staking
// program, the asset-ledger program and their callers. Every payload is an
// RLP list.
package codec

import (
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/polkapad/staking-ledger/internal/types"
)

// validatable is implemented by payloads with an enumerated kind.
type validatable interface {
	Validate() error
}

func Encode(v any) ([]byte, error) {
	bz, err := rlp.EncodeToBytes(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	return bz, nil
}

// MustEncode is for payloads built from trusted values in the same process.
func MustEncode(v any) []byte {
	bz, err := Encode(v)
	if err != nil {
		panic(err)
	}
	return bz
}

// Decode decodes payload into a new T. Malformed payloads and unknown kinds
// fail with DecodeFailure.
func Decode[T any](payload []byte) (*T, *types.Error) {
	var v T
	if err := rlp.DecodeBytes(payload, &v); err != nil {
		return nil, types.NewError(
			http.StatusBadRequest,
			types.DecodeFailure,
			fmt.Errorf("could not decode %T: %w", v, err),
		)
	}

	if val, ok := any(&v).(validatable); ok {
		if err := val.Validate(); err != nil {
			return nil, types.NewError(
				http.StatusBadRequest,
				types.DecodeFailure,
				fmt.Errorf("invalid %T: %w", v, err),
			)
		}
	}

	return &v, nil
}
