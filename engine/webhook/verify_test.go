package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/devclub/formsheets/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedRequest(header, value string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{}"))
	if header != "" {
		r.Header.Set(header, value)
	}
	return r
}

func TestNewVerifier(t *testing.T) {
	t.Run("Should accept everything with the none strategy", func(t *testing.T) {
		v, err := NewVerifier(&config.VerifyConfig{Strategy: StrategyNone})
		require.NoError(t, err)
		assert.NoError(t, v.Verify(context.Background(), signedRequest("", ""), []byte("{}")))
	})

	t.Run("Should require a secret for signing strategies", func(t *testing.T) {
		_, err := NewVerifier(&config.VerifyConfig{Strategy: StrategyTypeform})
		assert.ErrorContains(t, err, "empty secret")
	})

	t.Run("Should require a header for hmac", func(t *testing.T) {
		_, err := NewVerifier(&config.VerifyConfig{Strategy: StrategyHMAC, Secret: "s"})
		assert.ErrorContains(t, err, "header")
	})

	t.Run("Should reject unknown strategies", func(t *testing.T) {
		_, err := NewVerifier(&config.VerifyConfig{Strategy: "stripe"})
		assert.Error(t, err)
	})

	t.Run("Should resolve env secrets", func(t *testing.T) {
		t.Setenv("FS_TEST_SECRET", "from-env")
		v, err := NewVerifier(&config.VerifyConfig{Strategy: StrategyTypeform, Secret: "env://FS_TEST_SECRET"})
		require.NoError(t, err)
		body := []byte(`{"a":1}`)
		r := signedRequest(HeaderTypeformSignature, SignTypeform("from-env", body))
		assert.NoError(t, v.Verify(context.Background(), r, body))
	})

	t.Run("Should fail when the env secret is unset", func(t *testing.T) {
		_, err := NewVerifier(&config.VerifyConfig{Strategy: StrategyTypeform, Secret: "env://FS_TEST_MISSING"})
		assert.ErrorContains(t, err, "not set")
	})
}

func TestTypeformVerifier(t *testing.T) {
	body := []byte(`{"event_id":"e1"}`)
	v, err := NewVerifier(&config.VerifyConfig{Strategy: StrategyTypeform, Secret: "secret"})
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("Should accept a valid signature", func(t *testing.T) {
		r := signedRequest(HeaderTypeformSignature, SignTypeform("secret", body))
		assert.NoError(t, v.Verify(ctx, r, body))
	})

	t.Run("Should reject a signature over a different body", func(t *testing.T) {
		r := signedRequest(HeaderTypeformSignature, SignTypeform("secret", []byte("{}")))
		assert.ErrorContains(t, v.Verify(ctx, r, body), "mismatch")
	})

	t.Run("Should reject a missing or malformed header", func(t *testing.T) {
		assert.Error(t, v.Verify(ctx, signedRequest("", ""), body))
		assert.Error(t, v.Verify(ctx, signedRequest(HeaderTypeformSignature, "abc"), body))
		assert.Error(t, v.Verify(ctx, signedRequest(HeaderTypeformSignature, "sha256=%%%"), body))
	})
}

func TestHMACVerifier(t *testing.T) {
	body := []byte(`{"x":true}`)
	v, err := NewVerifier(&config.VerifyConfig{Strategy: StrategyHMAC, Secret: "k", Header: "X-Signature"})
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("Should accept a hex signature with or without prefix", func(t *testing.T) {
		sig := SignHex("k", body)
		assert.NoError(t, v.Verify(ctx, signedRequest("X-Signature", sig), body))
		assert.NoError(t, v.Verify(ctx, signedRequest("X-Signature", "sha256="+sig), body))
	})

	t.Run("Should reject a wrong key", func(t *testing.T) {
		assert.Error(t, v.Verify(ctx, signedRequest("X-Signature", SignHex("other", body)), body))
	})

	t.Run("Should reject a missing header", func(t *testing.T) {
		assert.ErrorContains(t, v.Verify(ctx, signedRequest("", ""), body), "missing")
	})
}

func TestSignatureHeader(t *testing.T) {
	body := []byte(`{"event_id":"evt"}`)

	t.Run("Should produce headers the matching verifier accepts", func(t *testing.T) {
		for _, cfg := range []*config.VerifyConfig{
			{Strategy: StrategyTypeform, Secret: "s3cret"},
			{Strategy: StrategyHMAC, Secret: "s3cret", Header: "X-Signature"},
		} {
			name, value, err := SignatureHeader(cfg, body)
			require.NoError(t, err)
			v, err := NewVerifier(cfg)
			require.NoError(t, err)
			assert.NoError(t, v.Verify(context.Background(), signedRequest(name, value), body), cfg.Strategy)
		}
	})

	t.Run("Should return nothing for the none strategy", func(t *testing.T) {
		name, value, err := SignatureHeader(&config.VerifyConfig{Strategy: StrategyNone}, body)
		require.NoError(t, err)
		assert.Empty(t, name)
		assert.Empty(t, value)
	})

	t.Run("Should fail without a secret", func(t *testing.T) {
		_, _, err := SignatureHeader(&config.VerifyConfig{Strategy: StrategyTypeform}, body)
		assert.Error(t, err)
	})
}
