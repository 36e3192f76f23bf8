package wix

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"eventType":"wix.stores.v3.product_updated"}`)
	secret := "s3cret"
	sig := Sign(body, secret)

	tests := []struct {
		name      string
		body      []byte
		signature string
		secret    string
		want      bool
	}{
		{"prefixed", body, sig, secret, true},
		{"bare hex", body, sig[len("sha256="):], secret, true},
		{"wrong secret", body, sig, "other", false},
		{"tampered body", []byte(`{"eventType":"x"}`), sig, secret, false},
		{"empty secret", body, Sign(body, ""), "", false},
		{"missing signature", body, "", secret, false},
		{"not hex", body, "sha256=zzzz", secret, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifySignature(tt.body, tt.signature, tt.secret))
		})
	}
}

func TestSignatureFrom(t *testing.T) {
	h := http.Header{}
	assert.Empty(t, SignatureFrom(h))

	h.Set(AltSignatureHeader, "alt")
	assert.Equal(t, "alt", SignatureFrom(h))

	h.Set(SignatureHeader, "primary")
	assert.Equal(t, "primary", SignatureFrom(h))
}

func TestParseEvent(t *testing.T) {
	event, err := ParseEvent([]byte(`{"eventType":"wix.stores.v3.product_created","entityId":"p-1","data":{"a":1}}`), "")
	require.NoError(t, err)
	assert.Equal(t, "wix.stores.v3.product_created", event.EventType)
	assert.Equal(t, "p-1", event.EntityID)
	assert.JSONEq(t, `{"a":1}`, string(event.Data))
}

func TestParseEvent_HeaderFallback(t *testing.T) {
	event, err := ParseEvent([]byte(`{"entityId":"p-1"}`), "wix.stores.v3.product_deleted")
	require.NoError(t, err)
	assert.Equal(t, "wix.stores.v3.product_deleted", event.EventType)

	event, err = ParseEvent(nil, "wix.app.ping")
	require.NoError(t, err)
	assert.Equal(t, "wix.app.ping", event.EventType)
}

func TestParseEvent_Errors(t *testing.T) {
	_, err := ParseEvent([]byte(`{"entityId":"p-1"}`), "")
	assert.ErrorIs(t, err, ErrMissingEventType)

	_, err = ParseEvent([]byte(`not json`), "x")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingEventType)
}
