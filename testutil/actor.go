package testutil

import (
	"github.com/brianvoe/gofakeit/v7"

	"github.com/polkapad/staking-ledger/internal/types"
)

// RandomActorID returns an id with every byte drawn from faker.
func RandomActorID(faker *gofakeit.Faker) types.ActorID {
	var id types.ActorID
	for i := range id {
		id[i] = faker.Uint8()
	}
	return id
}

// RandomActorIDs returns n distinct random ids.
func RandomActorIDs(faker *gofakeit.Faker, n int) []types.ActorID {
	seen := make(map[types.ActorID]struct{}, n)
	ids := make([]types.ActorID, 0, n)
	for len(ids) < n {
		id := RandomActorID(faker)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// RandomAmount returns an amount in [1, max].
func RandomAmount(faker *gofakeit.Faker, max uint64) types.Amount {
	return types.NewAmount(faker.Uint64()%max + 1)
}
