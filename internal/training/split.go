package training

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Split shuffles row indices with seed and holds out ceil(testSize*n) of them.
func Split(n int, testSize float64, seed uint64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size must be in (0, 1), got %v", testSize)
	}

	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest == 0 || nTest >= n {
		return nil, nil, fmt.Errorf("cannot hold out %d of %d rows", nTest, n)
	}

	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)

	return perm[nTest:], perm[:nTest], nil
}

func pickRows[T any](rows []T, indices []int) []T {
	picked := make([]T, 0, len(indices))
	for _, i := range indices {
		picked = append(picked, rows[i])
	}

	return picked
}
