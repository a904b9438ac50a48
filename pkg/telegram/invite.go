package telegram

import (
	"net/url"
	"strings"
)

// ParseInvite extracts the invite hash from a link or returns the trimmed token as is.
// Accepted links are t.me/+HASH, t.me/joinchat/HASH and tg://join?invite=HASH,
// with or without scheme.
func ParseInvite(token string) string {
	t := strings.TrimSpace(token)
	if t == "" {
		return ""
	}

	if strings.HasPrefix(t, "tg://") {
		u, err := url.Parse(t)
		if err != nil {
			return ""
		}
		return u.Query().Get("invite")
	}

	if !strings.Contains(t, "://") && strings.Contains(t, "/") {
		t = "https://" + t
	}
	if strings.Contains(t, "://") {
		u, err := url.Parse(t)
		if err != nil {
			return ""
		}
		path := strings.Trim(u.Path, "/")
		path = strings.TrimPrefix(path, "joinchat/")
		return strings.TrimPrefix(path, "+")
	}
	return strings.TrimPrefix(t, "+")
}
