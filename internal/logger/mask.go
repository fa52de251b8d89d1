package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// emailPrefixLen is how many localpart characters survive masking.
const emailPrefixLen = 2

// phonePrefixLen covers the "+" and a two-digit country code.
const phonePrefixLen = 3

// phoneSuffixLen is how many trailing digits survive masking.
const phoneSuffixLen = 2

// MaskEmail redacts an email address to its first two characters and domain:
// "info@example.se" becomes "in***@example.se".
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}

	local := email[:at]
	domain := email[at+1:]

	if len(local) > emailPrefixLen {
		local = local[:emailPrefixLen]
	}

	return local + "***@" + domain
}

// MaskPhone redacts a phone number to its country-code prefix and last two
// digits: "+46840022270" becomes "+46****70".
func MaskPhone(phone string) string {
	if len(phone) <= phonePrefixLen+phoneSuffixLen {
		return "****"
	}

	return phone[:phonePrefixLen] + "****" + phone[len(phone)-phoneSuffixLen:]
}

// maskedKeys maps field keys to their masking function. Plural keys mask
// each element of a string slice.
var maskedKeys = map[string]func(string) string{
	"email": MaskEmail,
	"phone": MaskPhone,
}

var maskedListKeys = map[string]func(string) string{
	"emails": MaskEmail,
	"phones": MaskPhone,
}

// MaskFields rewrites string fields whose key identifies contact data.
// Unknown keys pass through untouched. List fields are masked at
// construction time by the Strings helper, before zap wraps the slice.
func MaskFields(fields []Field) []Field {
	for i, f := range fields {
		if mask, ok := maskedKeys[f.Key]; ok && f.Type == zapcore.StringType {
			fields[i] = zap.String(f.Key, mask(f.String))
		}
	}

	return fields
}

// maskList returns a masked copy of vals when key identifies contact data,
// otherwise vals unchanged.
func maskList(key string, vals []string) []string {
	mask, ok := maskedListKeys[key]
	if !ok {
		return vals
	}

	masked := make([]string, len(vals))
	for i, v := range vals {
		masked[i] = mask(v)
	}

	return masked
}
