package chores

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// TwilioSender delivers messages through the Twilio Messages API.
type TwilioSender struct {
	AccountSID string
	AuthToken  string
	From       string
	HTTPClient *http.Client
}

func (s *TwilioSender) Send(ctx context.Context, phone, body string) error {
	form := url.Values{}
	form.Set("To", phone)
	form.Set("From", s.From)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", twilioAPIBase, s.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("building twilio request: %w", err)
	}
	req.SetBasicAuth(s.AccountSID, s.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sending message to %s: %w", phone, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("twilio returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
