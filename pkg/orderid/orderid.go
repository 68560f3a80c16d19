package orderid

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"time"
)

// Order ids look like TP-20250131094512-A1B2C3D4: a 14 digit UTC timestamp
// plus 8 random alphanumerics. The format is load-bearing for clients and
// for time-sortable listing, so it is validated strictly.

const (
	prefix       = "TP"
	timeLayout   = "20060102150405"
	randomLength = 8
)

var charset = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

var pattern = regexp.MustCompile(`^TP-\d{14}-[A-Z0-9]{8}$`)

// New generates an order id for the given creation time.
func New(now time.Time) (string, error) {
	buf := make([]byte, randomLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate order id: %w", err)
	}
	for i, b := range buf {
		buf[i] = charset[int(b)%len(charset)]
	}
	return fmt.Sprintf("%s-%s-%s", prefix, now.UTC().Format(timeLayout), buf), nil
}

// Valid reports whether the value matches the order id format.
func Valid(id string) bool {
	return pattern.MatchString(id)
}
