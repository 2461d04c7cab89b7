package service

import (
	"crypto/rand"
	"time"
)

const orderIDDigits = "0123456789"

// newOrderID builds a merchant order number: prefix, creation timestamp, and
// 8 random digits. Uniqueness is enforced by the database, not here.
func newOrderID(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand failing means the host is broken
	}
	for i, b := range buf {
		buf[i] = orderIDDigits[int(b)%len(orderIDDigits)]
	}
	return prefix + time.Now().Format("20060102150405") + string(buf)
}
