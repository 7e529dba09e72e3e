package clientcode

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

const (
	prefix      = "EC"
	suffixLen   = 5
	suffixChars = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Generate mints a human-facing client code: EC-<base36 millis>-<random>.
// Codes are uppercased for readability on printed prescriptions.
func Generate() string {
	return generateAt(time.Now())
}

func generateAt(now time.Time) string {
	ts := strconv.FormatInt(now.UnixMilli(), 36)

	var sb strings.Builder
	for i := 0; i < suffixLen; i++ {
		sb.WriteByte(suffixChars[rand.IntN(len(suffixChars))])
	}

	return strings.ToUpper(prefix + "-" + ts + "-" + sb.String())
}
