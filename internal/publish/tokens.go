package publish

import (
	"context"
	"math/rand"

	"github.com/samircd4/bookspointer/internal/catalog"
)

// UserLister is the slice of the catalog API token rotation needs.
type UserLister interface {
	ListUsers(ctx context.Context) ([]catalog.User, error)
}

// TokenPool fetches the current user records, keeps only verified
// tokens, and shuffles them for load distribution. The pool is read
// fresh per batch; no usage counters or backoff are tracked.
//
// The random source is injected so rotation stays deterministic under
// test.
func TokenPool(ctx context.Context, users UserLister, rng *rand.Rand) ([]string, error) {
	records, err := users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	tokens := make([]string, 0, len(records))
	for _, u := range records {
		if u.IsVerified && u.Token != "" {
			tokens = append(tokens, u.Token)
		}
	}

	rng.Shuffle(len(tokens), func(i, j int) {
		tokens[i], tokens[j] = tokens[j], tokens[i]
	})
	return tokens, nil
}
