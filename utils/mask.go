package utils

import "strings"

// Customer personal data must never reach logs unmasked. The masks keep just
// enough shape to stay debuggable.

// MaskPhone keeps the first three and last four characters:
// 090-1234-5678 -> 090****5678.
func MaskPhone(phone string) string {
	if len(phone) <= 7 {
		return "****"
	}
	return phone[:3] + "****" + phone[len(phone)-4:]
}

// MaskEmail keeps the first character of the local part and the full domain:
// test@example.com -> t***@example.com.
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "***"
	}
	return local[:1] + "***@" + domain
}

// MaskName keeps the first two runes: 田中太郎 -> 田中**.
func MaskName(name string) string {
	runes := []rune(name)
	if len(runes) <= 2 {
		return "**"
	}
	return string(runes[:2]) + "**"
}
