package chores

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
)

// roundTripFunc lets a test stand in for the Twilio API without a network.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func twilioResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestTwilioSenderSend(t *testing.T) {
	var captured *http.Request
	var form string

	sender := &TwilioSender{
		AccountSID: "AC123",
		AuthToken:  "secret",
		From:       "+15550000",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			captured = r
			b, _ := io.ReadAll(r.Body)
			form = string(b)
			return twilioResponse(http.StatusCreated, `{"sid":"SM1"}`), nil
		})},
	}

	if err := sender.Send(context.Background(), "+15550001", "dishes are due"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if captured.Method != http.MethodPost {
		t.Errorf("method = %s, want POST", captured.Method)
	}
	if want := "/Accounts/AC123/Messages.json"; !strings.HasSuffix(captured.URL.Path, want) {
		t.Errorf("path = %s, want suffix %s", captured.URL.Path, want)
	}
	user, pass, ok := captured.BasicAuth()
	if !ok || user != "AC123" || pass != "secret" {
		t.Errorf("basic auth = %q/%q/%v", user, pass, ok)
	}
	for _, want := range []string{"To=%2B15550001", "From=%2B15550000", "Body=dishes+are+due"} {
		if !strings.Contains(form, want) {
			t.Errorf("form %q missing %q", form, want)
		}
	}
}

func TestTwilioSenderErrorStatus(t *testing.T) {
	sender := &TwilioSender{
		AccountSID: "AC123",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return twilioResponse(http.StatusBadRequest, `{"message":"invalid number"}`), nil
		})},
	}

	err := sender.Send(context.Background(), "bogus", "hi")
	if err == nil {
		t.Fatal("expected error on 400 response")
	}
	if !strings.Contains(err.Error(), "status 400") || !strings.Contains(err.Error(), "invalid number") {
		t.Errorf("err = %v, want status and body detail", err)
	}
}
