package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskAccount(t *testing.T) {
	assert.Equal(t, "********1234", MaskAccount("001800021234"))
	assert.Equal(t, "***", MaskAccount("123"))
	assert.Equal(t, "", MaskAccount(""))
}

func TestMaskMobile(t *testing.T) {
	assert.Equal(t, "******3210", MaskMobile("9876543210"))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "***@example.com", MaskEmail("trader@example.com"))
	assert.Equal(t, "***", MaskEmail("not-an-email"))
	assert.Equal(t, "***", MaskEmail("@example.com"))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "[REDACTED]", MaskSecret("deposit-signing-key"))
}
