// Package cookie reads the visitor's cookies for display and builds the demo cookie set.
package cookie

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Info is one name/value pair from the cookie store.
type Info struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Parse splits a Cookie header into pairs. Entries that do not split into exactly
// a name and a value on '=' are skipped. Values are URL-decoded when possible.
func Parse(header string) []Info {
	result := []Info{}
	if header == "" {
		return result
	}

	for _, pair := range strings.Split(header, ";") {
		parts := strings.Split(strings.TrimSpace(pair), "=")
		if len(parts) != 2 {
			continue
		}
		value, err := url.PathUnescape(parts[1])
		if err != nil {
			value = parts[1]
		}
		result = append(result, Info{Name: parts[0], Value: value})
	}
	return result
}

// demoExpiry is far enough in the future to outlive any demo.
var demoExpiry = time.Date(2099, time.December, 31, 23, 59, 59, 0, time.UTC)

// Demo returns the demonstration cookies: user name, theme, language, last visit,
// a random session id and a marketing campaign source.
func Demo(now time.Time) []*http.Cookie {
	values := []Info{
		{Name: "demo_user", Value: "Johnny"},
		{Name: "theme_preference", Value: "dark"},
		{Name: "language", Value: "en-US"},
		{Name: "last_visit", Value: now.UTC().Format(time.RFC3339)},
		{Name: "demo_session", Value: uuid.NewString()[:8]},
		{Name: "campaign_source", Value: "google_ads"},
	}

	cookies := make([]*http.Cookie, 0, len(values))
	for _, v := range values {
		cookies = append(cookies, &http.Cookie{
			Name:    v.Name,
			Value:   url.PathEscape(v.Value),
			Path:    "/",
			Expires: demoExpiry,
		})
	}
	return cookies
}
