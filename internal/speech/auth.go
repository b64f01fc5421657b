package speech

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"time"
)

// SignURL builds the authenticated websocket URL the way the Xfyun IAT API
// expects: an HMAC-SHA256 signature over a canonical string of host, date,
// and request line, wrapped in a base64-encoded authorization parameter. The
// signature window is keyed to the supplied timestamp.
func SignURL(host, path, apiKey, apiSecret string, now time.Time) string {
	date := now.UTC().Format(time.RFC1123)
	// RFC1123 renders UTC as "UTC"; the provider canonicalizes on "GMT".
	date = date[:len(date)-3] + "GMT"

	signatureOrigin := fmt.Sprintf("host: %s\ndate: %s\nGET %s HTTP/1.1", host, date, path)
	mac := hmac.New(sha256.New, []byte(apiSecret))
	mac.Write([]byte(signatureOrigin))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	authorizationOrigin := fmt.Sprintf(
		`api_key="%s", algorithm="hmac-sha256", headers="host date request-line", signature="%s"`,
		apiKey, signature)
	authorization := base64.StdEncoding.EncodeToString([]byte(authorizationOrigin))

	query := url.Values{}
	query.Set("authorization", authorization)
	query.Set("date", date)
	query.Set("host", host)
	return "wss://" + host + path + "?" + query.Encode()
}
