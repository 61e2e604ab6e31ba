package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvelope(t *testing.T) {
	t.Run("Should decode a full delivery", func(t *testing.T) {
		body := []byte(`{"event_id":"e1","event_type":"form_response","form_response":{"form_id":"f1",
			"submitted_at":"2024-05-01T10:00:00Z","answers":[{"field":{"ref":"nome"},"type":"text","text":"ana"}]}}`)
		env, err := ParseEnvelope(body)
		require.NoError(t, err)
		assert.Equal(t, "e1", env.EventID)
		assert.Equal(t, "f1", env.FormResponse.FormID)
		require.Len(t, env.FormResponse.Answers, 1)
		assert.Equal(t, "nome", env.FormResponse.Answers[0].Field.Ref)
	})

	t.Run("Should default missing answers to an empty list", func(t *testing.T) {
		env, err := ParseEnvelope([]byte(`{"form_response":{"form_id":"f1"}}`))
		require.NoError(t, err)
		assert.NotNil(t, env.FormResponse.Answers)
		assert.Empty(t, env.FormResponse.Answers)
	})

	t.Run("Should reject a body without form_response", func(t *testing.T) {
		for _, body := range []string{`{}`, `{"form_response":null}`, `{"form_response":"x"}`, `[]`} {
			_, err := ParseEnvelope([]byte(body))
			assert.ErrorIs(t, err, ErrBadRequest, body)
		}
	})

	t.Run("Should accept a delivery whose answer payload has an unexpected type", func(t *testing.T) {
		body := []byte(`{"event_id":"e2","form_response":{"form_id":"f1","answers":[
			{"field":{"ref":"nome_completo"},"type":"text","text":"ana"},
			{"field":{"ref":"idade"},"type":"number","number":"42"},
			{"field":{"ref":"aceite"},"type":"boolean","boolean":"yes"}]}}`)
		env, err := ParseEnvelope(body)
		require.NoError(t, err)
		require.Len(t, env.FormResponse.Answers, 3)
		assert.Equal(t, "ana", *env.FormResponse.Answers[0].Text)
		require.NotNil(t, env.FormResponse.Answers[1].Number)
		assert.Equal(t, 42.0, *env.FormResponse.Answers[1].Number)
	})

	t.Run("Should reject answers of the wrong shape", func(t *testing.T) {
		_, err := ParseEnvelope([]byte(`{"form_response":{"answers":"nope"}}`))
		assert.ErrorIs(t, err, ErrBadRequest)
	})
}

func TestDeriveKey(t *testing.T) {
	t.Run("Should prefer the event id", func(t *testing.T) {
		assert.Equal(t, "e1", DeriveKey([]byte(`{"event_id":"e1","form_response":{"token":"t1"}}`)))
	})

	t.Run("Should fall back to the token", func(t *testing.T) {
		assert.Equal(t, "t1", DeriveKey([]byte(`{"form_response":{"token":"t1"}}`)))
	})

	t.Run("Should return empty when nothing identifies the delivery", func(t *testing.T) {
		assert.Empty(t, DeriveKey([]byte(`{"form_response":{}}`)))
	})
}

func TestKeyWithNamespace(t *testing.T) {
	assert.Equal(t, "f1:e1", KeyWithNamespace("f1", "e1"))
	assert.Equal(t, "unknown:e1", KeyWithNamespace("", "e1"))
}
