package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

// OrderIDPrefix is the fixed two-letter prefix of every tracking code.
const OrderIDPrefix = "VP"

const orderIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const orderIDSuffixLen = 5

var orderIDPattern = regexp.MustCompile(`^VP[A-Z0-9]{5}$`)

// GenerateOrderID produces a short human-speakable tracking code, e.g. VP4K9QZ.
// Uniqueness is enforced by the caller against the store.
func GenerateOrderID() string {
	suffix := make([]byte, orderIDSuffixLen)
	max := big.NewInt(int64(len(orderIDAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing means the platform RNG is broken; there is
			// no weaker source worth falling back to.
			panic(fmt.Sprintf("order id generation: %v", err))
		}
		suffix[i] = orderIDAlphabet[n.Int64()]
	}
	return OrderIDPrefix + string(suffix)
}

// ValidOrderID reports whether s matches the tracking code format.
func ValidOrderID(s string) bool {
	return orderIDPattern.MatchString(s)
}
