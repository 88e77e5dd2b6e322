package bookingid

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	PrefixClient = "GLAM"
	PrefixBlock  = "BLK"
)

const (
	alphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	suffixSize = 6
)

var pattern = regexp.MustCompile(`^[A-Z]+-[A-Z0-9]{6}$`)

// New returns "<prefix>-" followed by six random characters from [A-Z0-9].
func New(prefix string) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, suffixSize)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = alphabet[n.Int64()]
	}
	return prefix + "-" + string(buf), nil
}

func Valid(id string) bool {
	return pattern.MatchString(id)
}
