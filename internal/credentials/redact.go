package credentials

import "strings"

// Redacted replaces secret-bearing values in diagnostics.
const Redacted = "[REDACTED]"

// MaskIdentity keeps the first two characters of the local part of an email
// address and masks the rest; the domain stays readable. Non-email
// identities are masked the same way.
func MaskIdentity(identity string) string {
	local, domain, isEmail := strings.Cut(identity, "@")
	masked := maskAfter(local, 2)
	if isEmail && domain != "" {
		return masked + "@" + domain
	}
	return masked
}

// MaskUserID truncates a user id to its first eight characters.
func MaskUserID(id string) string {
	r := []rune(id)
	if len(r) <= 8 {
		return id
	}
	return string(r[:8]) + "..."
}

func maskAfter(s string, keep int) string {
	r := []rune(s)
	if len(r) <= keep {
		return s
	}
	return string(r[:keep]) + strings.Repeat("*", len(r)-keep)
}
