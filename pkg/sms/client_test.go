package sms

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/freshoils/freshoils-backend/pkg/config"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testSMSConfig() config.SMSConfig {
	return config.SMSConfig{
		AccountSID: "AC123",
		AuthToken:  "token",
		FromNumber: "+15550001111",
	}
}

func TestClientSendRequest(t *testing.T) {
	const expectedURL = "http://twilio.test/Accounts/AC123/Messages.json"

	var capturedURL string
	var capturedForm url.Values
	var capturedAuthUser, capturedAuthPass string

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedAuthUser, capturedAuthPass, _ = req.BasicAuth()

		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		capturedForm, err = url.ParseQuery(string(bodyBytes))
		if err != nil {
			t.Fatalf("parse form body: %v", err)
		}

		return &http.Response{
			StatusCode: http.StatusCreated,
			Body:       io.NopCloser(strings.NewReader(`{"sid":"SM1"}`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(testSMSConfig(), WithBaseURL("http://twilio.test"), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if err := client.Send(context.Background(), "+919876543210", "Your verification code is 1234"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if capturedURL != expectedURL {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedAuthUser != "AC123" || capturedAuthPass != "token" {
		t.Fatalf("unexpected basic auth %q/%q", capturedAuthUser, capturedAuthPass)
	}
	if capturedForm.Get("To") != "+919876543210" {
		t.Fatalf("unexpected To %q", capturedForm.Get("To"))
	}
	if capturedForm.Get("From") != "+15550001111" {
		t.Fatalf("unexpected From %q", capturedForm.Get("From"))
	}
	if capturedForm.Get("Body") != "Your verification code is 1234" {
		t.Fatalf("unexpected Body %q", capturedForm.Get("Body"))
	}
}

func TestClientSendSurfacesAPIError(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusBadRequest,
			Body:       io.NopCloser(strings.NewReader(`{"code":21211,"message":"Invalid 'To' Phone Number"}`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(testSMSConfig(), WithBaseURL("http://twilio.test"), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = client.Send(context.Background(), "+10000000000", "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "21211") {
		t.Fatalf("expected twilio error code in %q", err.Error())
	}
}

func TestClientSendValidatesInput(t *testing.T) {
	client, err := NewClient(testSMSConfig())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if err := client.Send(context.Background(), "", "body"); err == nil {
		t.Fatal("expected error for empty recipient")
	}
	if err := client.Send(context.Background(), "+919876543210", "  "); err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(config.SMSConfig{AccountSID: "AC123"}); err == nil {
		t.Fatal("expected error for incomplete credentials")
	}
}
