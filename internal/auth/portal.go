package auth

import (
	"strconv"
	"strings"
	"time"
)

// Portal share tokens give a client read-only access to one quote or
// invoice without an account. Format: kind.id.expiresUnix.signature.

// SignPortalToken builds a token for a document of the given kind
// ("quote" or "invoice") valid until expiry.
func SignPortalToken(kind string, id uint, expiry time.Time) string {
	payload := kind + "." + strconv.FormatUint(uint64(id), 10) + "." + strconv.FormatInt(expiry.Unix(), 10)
	return payload + "." + sign(payload)
}

// ParsePortalToken validates a token and returns the document kind and id.
func ParsePortalToken(token string, now time.Time) (kind string, id uint, ok bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", 0, false
	}
	payload := strings.Join(parts[:3], ".")
	if !verify(payload, parts[3]) {
		return "", 0, false
	}
	exp, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || now.Unix() > exp {
		return "", 0, false
	}
	id64, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return parts[0], uint(id64), true
}
