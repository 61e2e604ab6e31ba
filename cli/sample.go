package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/devclub/formsheets/engine/form"
	"github.com/devclub/formsheets/engine/webhook"
	"github.com/devclub/formsheets/pkg/config"
	"github.com/devclub/formsheets/pkg/logger"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

type sampleOptions struct {
	url     string
	name    string
	email   string
	phone   string
	cpf     string
	address string
	bonus   string
	sign    bool
	timeout time.Duration
}

// SendSampleCmd posts a synthetic Typeform delivery to a running instance.
func SendSampleCmd() *cobra.Command {
	opts := &sampleOptions{}
	cmd := &cobra.Command{
		Use:   "send-sample",
		Short: "Send a sample Typeform submission to a running server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSendSample(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.url, "url", "", "Webhook URL (defaults to the local server and configured path)")
	f.StringVar(&opts.name, "name", "joão da silva", "Full name answer")
	f.StringVar(&opts.email, "email", "joao@exemplo.com", "Email answer")
	f.StringVar(&opts.phone, "phone", "18997519440", "Phone answer")
	f.StringVar(&opts.cpf, "cpf", "123.456.789-09", "CPF answer")
	f.StringVar(&opts.address, "address",
		`{"address_line1":"Rua Exemplo, 123","address_line2":"Apto 101","city":"São Paulo","state":"SP","postal_code":"01234-567"}`,
		"Address answer, free text or JSON")
	f.StringVar(&opts.bonus, "bonus", "Curso de JavaScript", "Chosen bonus label")
	f.BoolVar(&opts.sign, "sign", true, "Sign the body with the configured verification strategy")
	f.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Request timeout")
	return cmd
}

func runSendSample(cmd *cobra.Command, opts *sampleOptions) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	log := logger.FromContext(ctx)
	body, err := json.Marshal(sampleEnvelope(opts, time.Now()))
	if err != nil {
		return fmt.Errorf("failed to encode sample: %w", err)
	}
	url := opts.url
	if url == "" {
		url = fmt.Sprintf("http://%s:%d%s", friendlyHostname(cfg.Server.Host), cfg.Server.Port, cfg.Webhook.Path)
	}
	req := resty.New().
		SetTimeout(opts.timeout).
		R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "Typeform-Webhooks").
		SetBody(body)
	if opts.sign {
		name, value, err := webhook.SignatureHeader(&cfg.Webhook.Verify, body)
		if err != nil {
			return fmt.Errorf("failed to sign sample: %w", err)
		}
		if name != "" {
			req.SetHeader(name, value)
		}
	}
	log.Info("Sending sample submission", "url", url, "bytes", len(body))
	resp, err := req.Post(url)
	if err != nil {
		return fmt.Errorf("failed to send sample: %w", err)
	}
	res := gjson.ParseBytes(resp.Body())
	fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", resp.StatusCode(), resp.String())
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("server answered %d: %s", resp.StatusCode(), res.Get("message").String())
	}
	log.Info("Sample accepted", "status", res.Get("status").String(), "name", res.Get("data.name").String())
	return nil
}

func sampleEnvelope(opts *sampleOptions, now time.Time) *webhook.Envelope {
	text := func(ref, v string) form.Answer {
		return form.Answer{Field: form.Field{Ref: ref, Type: string(form.KindShortText)}, Type: form.KindText, Text: &v}
	}
	email, phone := opts.email, opts.phone
	return &webhook.Envelope{
		EventID:   uuid.NewString(),
		EventType: "form_response",
		FormResponse: &form.Response{
			FormID:      "sample",
			Token:       uuid.NewString(),
			SubmittedAt: now.UTC().Format(time.RFC3339),
			Answers: []form.Answer{
				text(form.RefName, opts.name),
				{Field: form.Field{Ref: form.RefEmail, Type: string(form.KindEmail)}, Type: form.KindEmail, Email: &email},
				{Field: form.Field{Ref: form.RefPhone, Type: string(form.KindPhone)}, Type: form.KindPhone, PhoneNumber: &phone},
				text(form.RefCPF, opts.cpf),
				text(form.RefAddress, opts.address),
				{
					Field:  form.Field{Ref: form.RefBonus1, Type: "multiple_choice"},
					Type:   form.KindChoice,
					Choice: &form.Choice{Label: opts.bonus},
				},
			},
		},
	}
}

func friendlyHostname(h string) string {
	if h == "" || h == "0.0.0.0" || h == "::" {
		return "localhost"
	}
	return h
}
