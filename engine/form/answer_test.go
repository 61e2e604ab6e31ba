package form

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestAnswer_String(t *testing.T) {
	labels := DefaultLabels()
	cases := []struct {
		name   string
		answer Answer
		want   string
	}{
		{"text", Answer{Type: KindText, Text: ptr("Olá")}, "Olá"},
		{"short_text", Answer{Type: KindShortText, Text: ptr("curto")}, "curto"},
		{"email", Answer{Type: KindEmail, Email: ptr("a@b.com")}, "a@b.com"},
		{"phone", Answer{Type: KindPhone, PhoneNumber: ptr("+5511999999999")}, "+5511999999999"},
		{"choice", Answer{Type: KindChoice, Choice: &Choice{Label: "Curso A"}}, "Curso A"},
		{"choices", Answer{Type: KindChoices, Choices: &Choices{Labels: []string{"A", "B", "C"}}}, "A, B, C"},
		{"empty choices", Answer{Type: KindChoices, Choices: &Choices{}}, ""},
		{"date", Answer{Type: KindDate, Date: ptr("2024-05-01")}, "2024-05-01"},
		{"boolean true", Answer{Type: KindBoolean, Boolean: ptr(true)}, "Sim"},
		{"boolean false", Answer{Type: KindBoolean, Boolean: ptr(false)}, "Não"},
		{"boolean missing", Answer{Type: KindBoolean}, "Não"},
		{"integer", Answer{Type: KindNumber, Number: ptr(42.0)}, "42"},
		{"decimal", Answer{Type: KindNumber, Number: ptr(3.5)}, "3.5"},
		{"zero", Answer{Type: KindNumber, Number: ptr(0.0)}, "0"},
		{"negative zero", Answer{Type: KindNumber, Number: ptr(math.Copysign(0, -1))}, "0"},
		{"large number", Answer{Type: KindNumber, Number: ptr(1e21)}, "1e+21"},
		{"below 1e21", Answer{Type: KindNumber, Number: ptr(123456789012345680000.0)}, "123456789012345680000"},
		{"tiny number", Answer{Type: KindNumber, Number: ptr(1.5e-7)}, "1.5e-7"},
		{"small decimal", Answer{Type: KindNumber, Number: ptr(0.000001)}, "0.000001"},
		{"unknown kind", Answer{Type: "file_url", Text: ptr("ignored")}, ""},
		{"missing payload", Answer{Type: KindEmail}, ""},
		{"missing choice", Answer{Type: KindChoice}, ""},
	}
	for _, tc := range cases {
		t.Run("Should render "+tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.answer.String(labels))
		})
	}

	t.Run("Should use custom boolean labels", func(t *testing.T) {
		a := Answer{Type: KindBoolean, Boolean: ptr(true)}
		assert.Equal(t, "Yes", a.String(Labels{True: "Yes", False: "No"}))
	})
}

func TestIndex_Lookup(t *testing.T) {
	t.Run("Should return empty string for a missing ref of any kind", func(t *testing.T) {
		idx := NewIndex([]Answer{
			{Field: Field{Ref: "a"}, Type: KindBoolean, Boolean: ptr(true)},
			{Field: Field{Ref: "b"}, Type: KindNumber, Number: ptr(1.0)},
		}, DefaultLabels())
		assert.Equal(t, "", idx.Lookup("missing"))
		assert.False(t, idx.Has("missing"))
		assert.True(t, idx.Has("a"))
	})

	t.Run("Should return the first answer when a ref repeats", func(t *testing.T) {
		idx := NewIndex([]Answer{
			{Field: Field{Ref: "email"}, Type: KindEmail, Email: ptr("first@x.com")},
			{Field: Field{Ref: "email"}, Type: KindEmail, Email: ptr("second@x.com")},
		}, DefaultLabels())
		assert.Equal(t, "first@x.com", idx.Lookup("email"))
		assert.Equal(t, 1, idx.Len())
	})

	t.Run("Should be safe on a nil index", func(t *testing.T) {
		var idx *Index
		assert.Equal(t, "", idx.Lookup("x"))
		assert.Equal(t, 0, idx.Len())
	})

	t.Run("Should decode Typeform answers from JSON", func(t *testing.T) {
		raw := `[
			{"type":"text","text":"joão silva","field":{"id":"f1","type":"short_text","ref":"nome_completo"}},
			{"type":"choices","choices":{"labels":["Go","Rust"]},"field":{"id":"f2","type":"multiple_choice","ref":"langs"}},
			{"type":"number","number":7,"field":{"id":"f3","type":"number","ref":"nota"}},
			{"type":"boolean","boolean":false,"field":{"id":"f4","type":"yes_no","ref":"aceite"}}
		]`
		var answers []Answer
		require.NoError(t, json.Unmarshal([]byte(raw), &answers))
		idx := NewIndex(answers, DefaultLabels())
		assert.Equal(t, "joão silva", idx.Lookup("nome_completo"))
		assert.Equal(t, "Go, Rust", idx.Lookup("langs"))
		assert.Equal(t, "7", idx.Lookup("nota"))
		assert.Equal(t, "Não", idx.Lookup("aceite"))
	})

	t.Run("Should keep answers whose payload has an unexpected JSON type", func(t *testing.T) {
		raw := `[
			{"type":"number","number":"42","field":{"ref":"idade"}},
			{"type":"number","number":"n/a","field":{"ref":"nota"}},
			{"type":"boolean","boolean":"true","field":{"ref":"aceite"}},
			{"type":"text","text":12345,"field":{"ref":"nome_completo"}},
			{"type":"email","email":{"value":"x"},"field":{"ref":"email"}},
			{"type":"choice","choice":"Curso A","field":{"ref":"curso"}},
			{"type":"choices","choices":{"labels":["A",2,null]},"field":{"ref":"langs"}},
			"not an answer",
			null
		]`
		var answers []Answer
		require.NoError(t, json.Unmarshal([]byte(raw), &answers))
		require.Len(t, answers, 9)
		idx := NewIndex(answers, DefaultLabels())
		assert.Equal(t, "42", idx.Lookup("idade"))
		assert.Equal(t, "", idx.Lookup("nota"))
		assert.Equal(t, "Sim", idx.Lookup("aceite"))
		assert.Equal(t, "12345", idx.Lookup("nome_completo"))
		assert.Equal(t, "", idx.Lookup("email"))
		assert.Equal(t, "Curso A", idx.Lookup("curso"))
		assert.Equal(t, "A, 2, ", idx.Lookup("langs"))
		assert.Equal(t, 7, idx.Len())
	})
}
