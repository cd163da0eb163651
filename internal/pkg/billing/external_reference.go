package billing

import (
	"fmt"
	"strconv"
	"strings"
)

// BuildExternalReference encodes the local user/plan pair into the gateway's
// external_reference field so preapproval webhooks can be resolved even
// before a local subscription row exists.
func BuildExternalReference(userID, planID uint) string {
	return fmt.Sprintf("user:%d;plan:%d", userID, planID)
}

// ParseExternalReference decodes an external_reference produced by
// BuildExternalReference. ok is false for any other shape.
func ParseExternalReference(ref string) (userID, planID uint, ok bool) {
	for _, part := range strings.Split(strings.TrimSpace(ref), ";") {
		key, value, found := strings.Cut(part, ":")
		if !found {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
		if err != nil {
			continue
		}
		switch strings.TrimSpace(key) {
		case "user":
			userID = uint(n)
		case "plan":
			planID = uint(n)
		}
	}
	return userID, planID, userID != 0 && planID != 0
}
