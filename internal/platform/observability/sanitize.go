package observability

import "unicode"

const defaultStringLimit = 256

// sanitizeString strips control characters and truncates, keeping log lines safe.
func sanitizeString(value string, limit int) string {
	if limit <= 0 {
		limit = defaultStringLimit
	}

	kept := make([]rune, 0, len(value))
	for _, r := range value {
		switch r {
		case '\n', '\r', '\t':
			kept = append(kept, r)
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		kept = append(kept, r)
		if len(kept) == limit {
			break
		}
	}
	return string(kept)
}

// SanitizeRoute cleans a route pattern before it is logged.
func SanitizeRoute(route string) string {
	if route == "" {
		return "/"
	}
	return sanitizeString(route, 180)
}

// SanitizeMethod cleans an HTTP method before it is logged.
func SanitizeMethod(method string) string {
	return sanitizeString(method, 10)
}

// SanitizeUserID truncates identifiers to limit PII exposure in logs.
func SanitizeUserID(uid string) string {
	if uid == "" {
		return ""
	}
	return sanitizeString(uid, 64)
}
