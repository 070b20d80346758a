package reservation

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const travelerCodePrefix = "RSV"
const travelerCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func randomDigits(n int) (string, error) {
	var b strings.Builder
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate confirmation code: %w", err)
		}
		b.WriteString(d.String())
	}
	return b.String(), nil
}

// AdminConfirmationCode builds the human-readable code used for admin-direct
// reservations: "{DDMM}-{SURNAME} {FIRSTNAME}-{4 digits}".
func AdminConfirmationCode(surname, firstName string, now time.Time) (string, error) {
	suffix, err := randomDigits(4)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s %s-%s",
		now.Format("0201"),
		strings.ToUpper(strings.TrimSpace(surname)),
		strings.ToUpper(strings.TrimSpace(firstName)),
		suffix,
	), nil
}

// TravelerConfirmationCode builds the generic alphanumeric code for
// traveler-initiated reservations: prefix + base36 timestamp + random suffix.
func TravelerConfirmationCode(now time.Time) (string, error) {
	suffix := make([]byte, 4)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(travelerCodeChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate confirmation code: %w", err)
		}
		suffix[i] = travelerCodeChars[n.Int64()]
	}
	ts := strings.ToUpper(strconv.FormatInt(now.Unix(), 36))
	return fmt.Sprintf("%s-%s-%s", travelerCodePrefix, ts, string(suffix)), nil
}
