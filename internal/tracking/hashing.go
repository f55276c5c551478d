package tracking

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashField normalizes a PII field (trim, lowercase) and returns its hex
// encoded SHA-256 digest. Empty input hashes to the empty string so callers
// can skip absent fields.
func HashField(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func splitName(name string) (first, last string) {
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}

// buildUserData assembles the conversions user_data map. PII fields are
// hashed; the network fields travel in the clear as the API expects.
func buildUserData(contact Contact, meta RequestMeta) map[string]string {
	userData := make(map[string]string)

	if digest := HashField(contact.Email); digest != "" {
		userData["em"] = digest
	}
	if digest := HashField(digitsOnly(contact.Phone)); digest != "" {
		userData["ph"] = digest
	}
	first, last := splitName(contact.Name)
	if digest := HashField(first); digest != "" {
		userData["fn"] = digest
	}
	if digest := HashField(last); digest != "" {
		userData["ln"] = digest
	}
	if meta.ClientIP != "" {
		userData["client_ip_address"] = meta.ClientIP
	}
	if meta.UserAgent != "" {
		userData["client_user_agent"] = meta.UserAgent
	}

	return userData
}
