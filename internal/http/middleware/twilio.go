package middleware

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const TwilioSignatureHeader = "X-Twilio-Signature"

// TwilioSignature computes the X-Twilio-Signature for a form POST to
// fullURL: HMAC-SHA1 over the URL followed by every param name and value
// in name order, base64 encoded.
func TwilioSignature(authToken, fullURL string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		vals := append([]string(nil), params[k]...)
		sort.Strings(vals)
		for _, v := range vals {
			b.WriteString(k)
			b.WriteString(v)
		}
	}
	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyTwilio rejects webhook requests whose signature does not match.
// publicBaseURL is the origin configured in the Twilio console. When empty
// the origin is rebuilt from the request.
func VerifyTwilio(authToken, publicBaseURL string, enabled bool, logger zerolog.Logger) gin.HandlerFunc {
	base := strings.TrimRight(publicBaseURL, "/")
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}
		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": gin.H{"code": "INVALID_REQUEST", "message": "Malformed form body"},
			})
			return
		}
		origin := base
		if origin == "" {
			scheme := c.GetHeader("X-Forwarded-Proto")
			if scheme == "" {
				scheme = "http"
				if c.Request.TLS != nil {
					scheme = "https"
				}
			}
			origin = scheme + "://" + c.Request.Host
		}
		expected := TwilioSignature(authToken, origin+c.Request.URL.RequestURI(), c.Request.PostForm)
		got := c.GetHeader(TwilioSignatureHeader)
		if got == "" || !hmac.Equal([]byte(got), []byte(expected)) {
			logger.Warn().
				Str("request_id", c.GetString(RequestIDHeader)).
				Str("path", c.Request.URL.Path).
				Msg("rejected webhook with bad twilio signature")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{"code": "FORBIDDEN", "message": "Invalid webhook signature"},
			})
			return
		}
		c.Next()
	}
}
