package identity

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stackpeek/stackpeek/pkg/models"
)

// Pulumi wraps secret outputs in an envelope carrying a special signature
// key. Values shaped like that must never reach the screen or an export.
const (
	secretSig      = "4dabf18193072939515e22adb298388d"
	secretSigValue = "1b47061264138c4ac30d75fd1eb23252"
)

// Redacted is rendered in place of encrypted secret outputs.
const Redacted = "[secret]"

// SimpleType returns the last segment of a resource type string. Both
// "sst:aws:Bucket" and "aws:s3/bucket:Bucket" yield "Bucket".
func SimpleType(t string) string {
	parts := strings.Split(t, ":")
	last := parts[len(parts)-1]
	if i := strings.LastIndex(last, "/"); i >= 0 {
		last = last[i+1:]
	}
	return last
}

// URNName returns the trailing name segment of a URN.
func URNName(urn string) string {
	parts := strings.Split(urn, "::")
	return parts[len(parts)-1]
}

// IsSecret reports whether a raw output value is an encrypted secret
// envelope.
func IsSecret(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	if _, ok := m["ciphertext"]; ok {
		return true
	}
	sig, ok := m[secretSig].(string)
	return ok && sig == secretSigValue
}

// SafeRender renders an output value for display. Scalars pass through,
// secret envelopes are redacted, anything else is serialized compactly.
func SafeRender(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return fmt.Sprintf("%t", val)
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		if IsSecret(v) {
			return Redacted
		}
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

// DisplayID derives the best human-readable identifier for a resource:
// the physical id, else the arn tail, else a safe name output, else the
// URN name, else "N/A".
func DisplayID(r models.Resource) string {
	id := baseDisplayID(r)
	// A bare route id says nothing; append the route key.
	if rk, ok := r.Outputs["routeKey"].(string); ok && rk != "" && SimpleType(r.Type) == "Route" {
		return id + " : " + rk
	}
	return id
}

func baseDisplayID(r models.Resource) string {
	if r.ID != "" {
		return r.ID
	}
	if arn, ok := r.Outputs["arn"].(string); ok && arn != "" {
		parts := strings.Split(arn, ":")
		return parts[len(parts)-1]
	}
	if name, ok := r.Outputs["name"]; ok {
		if s := SafeRender(name); s != "" {
			return s
		}
	}
	if n := URNName(r.URN); n != "" {
		return n
	}
	return "N/A"
}

// ARNService returns the service segment of an ARN, or "" when the string
// is not ARN-shaped.
func ARNService(arn string) string {
	parts := strings.SplitN(arn, ":", 6)
	if len(parts) < 6 || parts[0] != "arn" {
		return ""
	}
	return parts[2]
}

// ARNTail returns the last colon or path segment of an ARN, the best-effort
// human label when no Name tag exists.
func ARNTail(arn string) string {
	tail := arn
	if i := strings.LastIndex(tail, ":"); i >= 0 {
		tail = tail[i+1:]
	}
	if i := strings.LastIndex(tail, "/"); i >= 0 {
		tail = tail[i+1:]
	}
	return tail
}
