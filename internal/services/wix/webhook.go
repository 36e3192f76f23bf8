package wix

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	SignatureHeader    = "X-Wix-Signature"
	AltSignatureHeader = "X-Hub-Signature-256"
	EventTypeHeader    = "X-Wix-Webhook-Event-Type"

	signaturePrefix = "sha256="
)

var ErrMissingEventType = errors.New("webhook event type is missing")

// Event is an inbound Wix webhook notification.
type Event struct {
	EventType  string          `json:"eventType"`
	EntityID   string          `json:"entityId,omitempty"`
	InstanceID string          `json:"instanceId,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// Sign returns the signature header value for body.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// SignatureFrom reads the signature from the primary or fallback header.
func SignatureFrom(header http.Header) string {
	if sig := header.Get(SignatureHeader); sig != "" {
		return sig
	}
	return header.Get(AltSignatureHeader)
}

// VerifySignature checks an HMAC-SHA256 signature over the raw body. The
// value may carry a "sha256=" prefix. An empty secret never verifies.
func VerifySignature(body []byte, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}

	got, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(signature), signaturePrefix))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// ParseEvent decodes body. When the payload has no eventType the value of
// the X-Wix-Webhook-Event-Type header is used.
func ParseEvent(body []byte, headerType string) (*Event, error) {
	var event Event
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &event); err != nil {
			return nil, fmt.Errorf("invalid webhook payload: %w", err)
		}
	}
	if event.EventType == "" {
		event.EventType = strings.TrimSpace(headerType)
	}
	if event.EventType == "" {
		return nil, ErrMissingEventType
	}
	return &event, nil
}
