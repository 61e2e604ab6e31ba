package webhook

import (
	"encoding/json"
	"fmt"

	"github.com/devclub/formsheets/engine/form"
	"github.com/tidwall/gjson"
)

// Envelope is a Typeform webhook delivery.
type Envelope struct {
	EventID      string         `json:"event_id"`
	EventType    string         `json:"event_type"`
	FormResponse *form.Response `json:"form_response"`
}

// ParseEnvelope rejects bodies without a form_response object before
// decoding them.
func ParseEnvelope(body []byte) (*Envelope, error) {
	if !gjson.GetBytes(body, "form_response").IsObject() {
		return nil, fmt.Errorf("%w: missing form_response", ErrBadRequest)
	}
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if env.FormResponse.Answers == nil {
		env.FormResponse.Answers = []form.Answer{}
	}
	return &env, nil
}

// DeriveKey picks the dedupe key of a delivery: the event id, falling back
// to the response token. Empty means the delivery cannot be deduplicated.
func DeriveKey(body []byte) string {
	r := gjson.GetManyBytes(body, "event_id", "form_response.token")
	for _, v := range r {
		if s := v.String(); s != "" {
			return s
		}
	}
	return ""
}

// FormID returns the form id of a delivery without decoding it.
func FormID(body []byte) string {
	return gjson.GetBytes(body, "form_response.form_id").String()
}
