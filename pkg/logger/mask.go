package logger

import "strings"

// Masking helpers for sensitive fields at the logging boundary. Account
// numbers and mobiles keep their last four digits, emails keep the domain,
// secrets are fully redacted.

func MaskAccount(account string) string {
	return maskTail(account, 4)
}

func MaskMobile(mobile string) string {
	return maskTail(mobile, 4)
}

func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	return "***@" + email[at+1:]
}

func MaskSecret(string) string {
	return "[REDACTED]"
}

func maskTail(s string, keep int) string {
	if len(s) <= keep {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-keep) + s[len(s)-keep:]
}
