package cookies

import (
	"net"
	"net/http"
	"net/url"
	"strings"

	"planets-engine/internal/shared/config"
)

// AuthCookieName carries the session JWT for browser clients.
const AuthCookieName = "auth_token"

func SetAuthCookie(w http.ResponseWriter, token string) {
	cfg := config.GlobalConfig
	http.SetCookie(w, authCookie(cfg, token, int(cfg.Auth.TokenExpiration.Seconds())))
}

func ClearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, authCookie(config.GlobalConfig, "", -1))
}

func authCookie(cfg *config.Config, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     AuthCookieName,
		Value:    value,
		Path:     "/",
		Domain:   cookieDomain(cfg.Frontend.URL),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cfg.Auth.CookieSecure,
		SameSite: parseSameSite(cfg.Auth.CookieSameSite),
	}
}

// cookieDomain is empty for localhost and bare IPs so browsers scope the
// cookie to the exact host.
func cookieDomain(frontendURL string) string {
	u, err := url.Parse(frontendURL)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	if host == "" || host == "localhost" || net.ParseIP(host) != nil {
		return ""
	}
	return host
}

func parseSameSite(mode string) http.SameSite {
	switch strings.ToLower(mode) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
