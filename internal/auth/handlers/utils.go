package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"planets-engine/internal/shared/config"
)

func frontendURL() string {
	if config.GlobalConfig == nil {
		return "http://localhost:3000"
	}
	return config.GlobalConfig.Frontend.URL
}

// resolveRedirectURI accepts a client-supplied redirect only when it
// points at the configured frontend origin.
func resolveRedirectURI(requested string) string {
	base := strings.TrimRight(frontendURL(), "/")
	if requested == "" {
		return base
	}
	u, err := url.Parse(requested)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return base
	}
	origin := u.Scheme + "://" + u.Host
	if origin != base {
		return base
	}
	return strings.TrimRight(requested, "/")
}

// redirectWithError sends the browser back to the frontend error page.
func redirectWithError(w http.ResponseWriter, r *http.Request, redirectURI, errorType string) {
	if redirectURI == "" {
		redirectURI = strings.TrimRight(frontendURL(), "/")
	}
	errorURL := fmt.Sprintf("%s/auth/error?error=%s", redirectURI, url.QueryEscape(errorType))
	http.Redirect(w, r, errorURL, http.StatusTemporaryRedirect)
}
