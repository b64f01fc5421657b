package http

import (
	"encoding/json"
	"log"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	requestBodyLogKey  = "http.request.body.summary"
	responseBodyLogKey = "http.response.body.summary"
	maxLoggedBody      = 2048
)

// registerLogging emits one JSON log line per request. Bodies are captured by
// BodyDump, redacted, and clamped before they reach the logger; every endpoint
// in this API speaks JSON except the plan SSE stream, which is elided.
func registerLogging(e *echo.Echo) {
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			userID := "anonymous"
			if id, ok := c.Get(contextUserKey).(uuid.UUID); ok {
				userID = id.String()
			}

			payload := struct {
				Time      string `json:"time"`
				UserUUID  string `json:"user_uuid"`
				LatencyMS int64  `json:"latency_ms"`
				Request   struct {
					Method string      `json:"method"`
					URI    string      `json:"uri"`
					Body   interface{} `json:"body,omitempty"`
				} `json:"request"`
				Response struct {
					Status int         `json:"status"`
					Body   interface{} `json:"body,omitempty"`
					Error  string      `json:"error,omitempty"`
				} `json:"response"`
			}{
				Time:      v.StartTime.Format(time.RFC3339),
				UserUUID:  userID,
				LatencyMS: v.Latency.Milliseconds(),
			}

			payload.Request.Method = v.Method
			payload.Request.URI = v.URI
			payload.Request.Body = c.Get(requestBodyLogKey)
			payload.Response.Status = v.Status
			payload.Response.Body = c.Get(responseBodyLogKey)
			if v.Error != nil {
				payload.Response.Error = v.Error.Error()
			}

			buf, err := json.Marshal(payload)
			if err != nil {
				return err
			}
			log.Println(string(buf))
			return nil
		},
	}))

	e.Use(middleware.BodyDump(func(c echo.Context, reqBody, resBody []byte) {
		if summary := sanitizeBody(reqBody, c.Request().Header.Get(echo.HeaderContentType)); summary != nil {
			c.Set(requestBodyLogKey, summary)
		}
		if summary := sanitizeBody(resBody, c.Response().Header().Get(echo.HeaderContentType)); summary != nil {
			c.Set(responseBodyLogKey, summary)
		}
	}))
}

// sanitizeBody prepares a body for logging: credentials are redacted by key,
// oversized itinerary payloads are reduced to a key listing, and SSE streams
// are elided entirely (their terminal plan frame mirrors the JSON response of
// the non-streaming variant).
func sanitizeBody(body []byte, contentType string) interface{} {
	if len(body) == 0 {
		return nil
	}

	loweredType := strings.ToLower(strings.TrimSpace(contentType))
	if strings.HasPrefix(loweredType, "text/event-stream") {
		return "event-stream"
	}

	if strings.HasPrefix(loweredType, "application/json") || json.Valid(body) {
		var data interface{}
		if err := json.Unmarshal(body, &data); err == nil {
			redacted := redactJSON(data, "")
			if buf, err := json.Marshal(redacted); err == nil && len(buf) > maxLoggedBody {
				return jsonOutline(redacted, len(buf))
			}
			return redacted
		}
	}

	if !utf8.Valid(body) {
		return "binary"
	}
	text := string(body)
	if strings.Contains(strings.ToLower(text), "password") {
		return "redacted"
	}
	return clampString(text)
}

func isSensitiveKey(lowerKey string) bool {
	return strings.Contains(lowerKey, "password") ||
		strings.Contains(lowerKey, "token") ||
		strings.Contains(lowerKey, "secret")
}

// redactJSON walks a decoded JSON value replacing credential-bearing fields
// and clamping long strings. keyHint is the lowercased key of the enclosing
// object field, empty at the root and inside arrays.
func redactJSON(value interface{}, keyHint string) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, val := range v {
			lowerKey := strings.ToLower(key)
			if isSensitiveKey(lowerKey) {
				result[key] = "redacted"
				continue
			}
			result[key] = redactJSON(val, lowerKey)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = redactJSON(item, "")
		}
		return result
	case string:
		if keyHint != "" && isSensitiveKey(keyHint) {
			return "redacted"
		}
		return clampString(v)
	default:
		return v
	}
}

// jsonOutline replaces an oversized payload with its shape: the sorted
// top-level keys of an object, or the element count of an array. Full
// itineraries routinely exceed the log budget and their contents are
// recoverable from the database row anyway.
func jsonOutline(value interface{}, size int) interface{} {
	outline := map[string]interface{}{
		"_truncated": true,
		"_bytes":     size,
	}
	switch v := value.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		outline["_keys"] = keys
	case []interface{}:
		outline["_items"] = len(v)
	}
	return outline
}

func clampString(value string) string {
	if len(value) <= maxLoggedBody {
		return value
	}
	truncated := value[:maxLoggedBody]
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated + "...(truncated)"
}
