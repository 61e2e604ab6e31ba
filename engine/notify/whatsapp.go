package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/devclub/formsheets/pkg/config"
	"github.com/devclub/formsheets/pkg/logger"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

var (
	ErrNotConfigured = errors.New("whatsapp client not configured")
	ErrInvalidPhone  = errors.New("invalid phone number")
	ErrDelivery      = errors.New("whatsapp delivery failed")
)

// Delivery is the provider's answer to a send request.
type Delivery struct {
	Sent bool   `json:"sent"`
	ID   string `json:"id"`
}

// Client sends WhatsApp messages through the UltraMsg HTTP API. A send is
// attempted exactly once.
type Client struct {
	http        *resty.Client
	instanceID  string
	token       string
	countryCode string
	timeout     time.Duration
	welcome     *Template
}

// NewClient builds a client from cfg. An incomplete configuration yields
// a client whose sends return ErrNotConfigured.
func NewClient(cfg *config.WhatsAppConfig) (*Client, error) {
	tpl, err := ParseTemplate(cfg.WelcomeTemplate)
	if err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.APIURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	return &Client{
		http:        httpClient,
		instanceID:  cfg.InstanceID,
		token:       cfg.APIKey.Value(),
		countryCode: cfg.CountryCode,
		timeout:     timeout,
		welcome:     tpl,
	}, nil
}

// Configured reports whether both the instance and token are set.
func (c *Client) Configured() bool {
	return c != nil && c.instanceID != "" && c.token != ""
}

// SendText delivers body to the phone number to.
func (c *Client) SendText(ctx context.Context, to, body string) (*Delivery, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	phone := FormatPhone(to, c.countryCode)
	if phone == "" {
		return nil, ErrInvalidPhone
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"token": c.token,
			"to":    phone,
			"body":  body,
		}).
		Post(fmt.Sprintf("/%s/messages/chat", c.instanceID))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d", ErrDelivery, resp.StatusCode())
	}
	result := gjson.ParseBytes(resp.Body())
	if msg := result.Get("error"); msg.Exists() {
		return nil, fmt.Errorf("%w: %s", ErrDelivery, msg.String())
	}
	return &Delivery{
		Sent: result.Get("sent").Bool(),
		ID:   result.Get("id").String(),
	}, nil
}

// SendWelcome renders the welcome template for name and sends it.
func (c *Client) SendWelcome(ctx context.Context, phone, name string) (*Delivery, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	body, err := c.welcome.Render(WelcomeData{Name: name})
	if err != nil {
		return nil, err
	}
	delivery, err := c.SendText(ctx, phone, body)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("welcome message sent", "message_id", delivery.ID, "sent", delivery.Sent)
	return delivery, nil
}
