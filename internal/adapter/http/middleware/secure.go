package middleware

import (
	"net/http"

	"github.com/unrolled/secure"
)

// SecureHeaders sets the response headers a JSON API should always carry.
// sslRedirect forces HTTPS behind a proxy reporting X-Forwarded-Proto.
func SecureHeaders(sslRedirect bool) func(http.Handler) http.Handler {
	return secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		SSLRedirect:           sslRedirect,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	}).Handler
}
