// internal/utils/random.go

package utils

import (
	"crypto/rand"
	"math/big"
)

// RandomIntInRange returns a uniformly random integer in [min, max].
func RandomIntInRange(min, max int64) int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(max-min+1))
	if err != nil {
		panic(err)
	}
	return min + n.Int64()
}
