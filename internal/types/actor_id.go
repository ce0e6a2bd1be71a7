package types

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"

	"github.com/polkapad/staking-ledger/pkg"
)

const ActorIDLength = 32

// ActorID identifies a program or a user account in the actor system.
type ActorID [ActorIDLength]byte

// ActorIDFromUint64 places n little-endian into the first eight bytes,
// which is how numeric test accounts are addressed.
func ActorIDFromUint64(n uint64) ActorID {
	var id ActorID
	binary.LittleEndian.PutUint64(id[:8], n)
	return id
}

func ParseActorID(s string) (ActorID, error) {
	var id ActorID
	bz, err := pkg.DecodeHexAddress(s, ActorIDLength)
	if err != nil {
		return id, err
	}
	copy(id[:], bz)
	return id, nil
}

func (id ActorID) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

func (id ActorID) IsZero() bool {
	return id == ActorID{}
}

func (id ActorID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *ActorID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseActorID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
