package form

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// AnswerKind is the Typeform answer type discriminator.
type AnswerKind string

const (
	KindText      AnswerKind = "text"
	KindShortText AnswerKind = "short_text"
	KindEmail     AnswerKind = "email"
	KindPhone     AnswerKind = "phone_number"
	KindChoice    AnswerKind = "choice"
	KindChoices   AnswerKind = "choices"
	KindDate      AnswerKind = "date"
	KindBoolean   AnswerKind = "boolean"
	KindNumber    AnswerKind = "number"
)

// Field identifies the question an answer belongs to.
type Field struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type,omitempty"`
	Ref  string `json:"ref"`
}

type Choice struct {
	Label string `json:"label"`
}

type Choices struct {
	Labels []string `json:"labels"`
}

// Answer is one answered question. Only the payload field matching Type
// is expected to be set.
type Answer struct {
	Field       Field      `json:"field"`
	Type        AnswerKind `json:"type"`
	Text        *string    `json:"text,omitempty"`
	Email       *string    `json:"email,omitempty"`
	PhoneNumber *string    `json:"phone_number,omitempty"`
	Choice      *Choice    `json:"choice,omitempty"`
	Choices     *Choices   `json:"choices,omitempty"`
	Date        *string    `json:"date,omitempty"`
	Boolean     *bool      `json:"boolean,omitempty"`
	Number      *float64   `json:"number,omitempty"`
}

// UnmarshalJSON decodes an answer leniently. A payload of an unexpected
// JSON type is kept in its text form when it is a scalar and dropped
// otherwise, so one odd answer never rejects the whole response.
func (a *Answer) UnmarshalJSON(data []byte) error {
	*a = Answer{}
	r := gjson.ParseBytes(data)
	if !r.IsObject() {
		return nil
	}
	a.Field = Field{
		ID:   r.Get("field.id").String(),
		Type: r.Get("field.type").String(),
		Ref:  scalarText(r.Get("field.ref")),
	}
	a.Type = AnswerKind(r.Get("type").String())
	a.Text = scalarPtr(r.Get("text"))
	a.Email = scalarPtr(r.Get("email"))
	a.PhoneNumber = scalarPtr(r.Get("phone_number"))
	a.Date = scalarPtr(r.Get("date"))
	if c := r.Get("choice"); c.IsObject() {
		a.Choice = &Choice{Label: scalarText(c.Get("label"))}
	} else if label := scalarPtr(c); label != nil {
		a.Choice = &Choice{Label: *label}
	}
	if c := r.Get("choices"); c.IsObject() {
		labels := []string{}
		for _, l := range c.Get("labels").Array() {
			labels = append(labels, scalarText(l))
		}
		a.Choices = &Choices{Labels: labels}
	}
	if b := r.Get("boolean"); b.Exists() && b.Type != gjson.Null && !b.IsObject() && !b.IsArray() {
		v := b.Bool()
		a.Boolean = &v
	}
	if n := r.Get("number"); n.Exists() {
		if v, ok := numberValue(n); ok {
			a.Number = &v
		}
	}
	return nil
}

// scalarText renders strings, numbers and booleans as text. Null, objects
// and arrays render as "".
func scalarText(r gjson.Result) string {
	switch r.Type {
	case gjson.String, gjson.Number, gjson.True, gjson.False:
		return r.String()
	default:
		return ""
	}
}

func scalarPtr(r gjson.Result) *string {
	switch r.Type {
	case gjson.String, gjson.Number, gjson.True, gjson.False:
		s := r.String()
		return &s
	default:
		return nil
	}
}

func numberValue(r gjson.Result) (float64, bool) {
	switch r.Type {
	case gjson.Number:
		return r.Num, true
	case gjson.String:
		v, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

// Labels are the strings a boolean answer renders to.
type Labels struct {
	True  string
	False string
}

// DefaultLabels returns the Portuguese yes/no pair.
func DefaultLabels() Labels {
	return Labels{True: "Sim", False: "Não"}
}

// String renders the answer payload according to its kind. Unknown kinds
// and missing payloads render as "".
func (a *Answer) String(labels Labels) string {
	switch a.Type {
	case KindText, KindShortText:
		return deref(a.Text)
	case KindEmail:
		return deref(a.Email)
	case KindPhone:
		return deref(a.PhoneNumber)
	case KindChoice:
		if a.Choice == nil {
			return ""
		}
		return a.Choice.Label
	case KindChoices:
		if a.Choices == nil {
			return ""
		}
		return strings.Join(a.Choices.Labels, ", ")
	case KindDate:
		return deref(a.Date)
	case KindBoolean:
		if a.Boolean != nil && *a.Boolean {
			return labels.True
		}
		return labels.False
	case KindNumber:
		if a.Number == nil {
			return ""
		}
		return formatNumber(*a.Number)
	default:
		return ""
	}
}

// formatNumber spells numbers the way JavaScript prints them: plain
// decimals from 1e-6 up to 1e21, unpadded exponent form outside.
func formatNumber(f float64) string {
	abs := math.Abs(f)
	if abs == 0 {
		return "0"
	}
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	return mant + "e" + sign + digits
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
