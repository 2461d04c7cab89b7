// Package paysign implements the key-value signing scheme used by the WinPay
// collect/payout APIs. The same canonicalization backs outgoing requests and
// incoming webhook verification, so both directions agree byte for byte.
package paysign

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"sort"
	"strings"
)

// Keys that never participate in the signature.
var excludedKeys = map[string]bool{
	"sign":      true,
	"signature": true,
	"signType":  true,
}

// Canonicalize builds the string to be hashed: non-empty params (minus the
// signature keys) sorted by byte value, joined as k=v&k=v, with &key=<secret>
// appended. The processor treats this as a bit-exact contract.
func Canonicalize(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if excludedKeys[k] || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
		b.WriteByte('&')
	}
	b.WriteString("key=")
	b.WriteString(secret)
	return b.String()
}

// Sign returns the uppercase hex MD5 of the canonical string. MD5 is the
// processor's contract, not a choice this package gets to make.
func Sign(params map[string]string, secret string) string {
	sum := md5.Sum([]byte(Canonicalize(params, secret)))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// Verify recomputes the signature and compares in constant time. Hex digit
// case is ignored; anything else failing to match is a hard rejection.
func Verify(params map[string]string, secret, signature string) bool {
	if signature == "" {
		return false
	}
	expected := Sign(params, secret)
	received := strings.ToUpper(signature)
	if len(expected) != len(received) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(received)) == 1
}
