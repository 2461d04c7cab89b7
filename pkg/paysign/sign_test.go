package paysign

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignKnownVector(t *testing.T) {
	params := map[string]string{
		"mchId":      "M100234",
		"mchOrderNo": "DP2024071512300012345678",
		"amount":     "500.00",
		"payType":    "101",
		"notifyUrl":  "https://api.bullex.in/api/v1/webhooks/winpay/deposit",
		"currency":   "INR",
	}
	assert.Equal(t,
		"amount=500.00&currency=INR&mchId=M100234&mchOrderNo=DP2024071512300012345678&notifyUrl=https://api.bullex.in/api/v1/webhooks/winpay/deposit&payType=101&key=depositsecret",
		Canonicalize(params, "depositsecret"))
	assert.Equal(t, "33E90A712B3063F4925A4DE8971AA8BD", Sign(params, "depositsecret"))

	simple := map[string]string{"b": "2", "a": "1", "c": "3"}
	assert.Equal(t, "C7E234157D7948595BE7E01C1141DFCA", Sign(simple, "secret"))
}

func TestSignVerifyRoundTrip(t *testing.T) {
	cases := []map[string]string{
		{"mchOrderNo": "DP1", "amount": "1.00"},
		{"a": "x", "z": "y", "m": "0.50"},
		{"amount": "1000000.00", "accountNo": "001800021234", "ifscCode": "HDFC0001234"},
		{"single": "v"},
	}
	for _, params := range cases {
		sig := Sign(params, "k1")
		require.True(t, Verify(params, "k1", sig))
		require.True(t, Verify(params, "k1", strings.ToLower(sig)), "hex case must not matter")
	}
}

func TestExcludedAndEmptyKeysDoNotAffectSignature(t *testing.T) {
	base := map[string]string{"mchOrderNo": "DP1", "amount": "500.00"}
	sig := Sign(base, "k1")

	withNoise := map[string]string{
		"mchOrderNo": "DP1",
		"amount":     "500.00",
		"sign":       "GARBAGE",
		"signature":  "GARBAGE",
		"signType":   "MD5",
		"bankCode":   "",
	}
	assert.Equal(t, sig, Sign(withNoise, "k1"))
	assert.True(t, Verify(withNoise, "k1", sig))
}

func TestVerifyRejectsMutations(t *testing.T) {
	params := map[string]string{"mchOrderNo": "DP1", "amount": "500.00", "status": "2"}
	sig := Sign(params, "k1")

	// any single value mutation must fail
	for k, v := range params {
		mutated := map[string]string{}
		for mk, mv := range params {
			mutated[mk] = mv
		}
		mutated[k] = v + "0"
		assert.False(t, Verify(mutated, "k1", sig), "mutated %s must fail", k)
	}
	// wrong secret must fail
	assert.False(t, Verify(params, "k2", sig))
	// truncated and empty signatures must fail
	assert.False(t, Verify(params, "k1", sig[:16]))
	assert.False(t, Verify(params, "k1", ""))
}
