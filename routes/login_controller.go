package routes

import (
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/mbolis/survey-portal/app"
	"github.com/mbolis/survey-portal/httpx"
	"github.com/mbolis/survey-portal/log"
)

var reRefresh = regexp.MustCompile(`(?i)^refresh\s+(.*)`)

// Login turns basic auth credentials into an OAuth password grant.
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "login.basic_auth")
			return
		}

		body := url.Values{
			"grant_type": {"password"},
			"username":   {user},
			"password":   {pass},
		}.Encode()
		r.Body = io.NopCloser(strings.NewReader(body))
		r.ContentLength = int64(len(body))
		r.Header.Set("content-type", "application/x-www-form-urlencoded")
		r.Header.Set("content-length", strconv.Itoa(len(body)))
		r.Form = nil
		r.PostForm = nil

		grant(app, w, r, log.Fields{"operator": user})
	}
}

// Refresh trades an "Authorization: Refresh <token>" header for a new
// token pair.
func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match := reRefresh.FindStringSubmatch(r.Header.Get("authorization"))
		if len(match) == 0 {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}

		body := url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {match[1]},
		}.Encode()

		req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, "/", strings.NewReader(body))
		if err != nil {
			httpx.LogInternalError(w, "refresh.new_request", err)
			return
		}
		req.Header.Set("content-type", "application/x-www-form-urlencoded")
		req.Header.Set("content-length", strconv.Itoa(len(body)))
		req.RemoteAddr = r.RemoteAddr

		grant(app, w, req, log.Fields{"grant": "refresh_token"})
	}
}

// grant runs the token endpoint and logs refused grants.
func grant(app app.App, w http.ResponseWriter, r *http.Request, fields log.Fields) {
	resp := httpx.NewResponseBuffer()
	app.UserCredentials(resp, r)

	if status := resp.Status(); status != http.StatusOK {
		fields["status"] = status
		fields["client"] = httpx.ClientAddress(r)
		log.WithFields(fields).Info("login.refused")
	}
	if err := resp.Flush(w); err != nil {
		log.Debugf("login.flush: %s", err)
	}
}
