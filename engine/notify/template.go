package notify

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/devclub/formsheets/pkg/format"
)

// WelcomeData is the template context of the welcome message.
type WelcomeData struct {
	Name string
}

// Template renders message bodies. Sprig functions are available, plus
// properName for title-casing a name.
type Template struct {
	tpl *template.Template
}

// ParseTemplate compiles text as a welcome message template.
func ParseTemplate(text string) (*Template, error) {
	funcs := sprig.TxtFuncMap()
	funcs["properName"] = format.FormatName
	tpl, err := template.New("welcome").Option("missingkey=zero").Funcs(funcs).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse welcome template: %w", err)
	}
	return &Template{tpl: tpl}, nil
}

func (t *Template) Render(data WelcomeData) (string, error) {
	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render welcome template: %w", err)
	}
	return buf.String(), nil
}
