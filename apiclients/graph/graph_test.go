package graph

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSendMail(t *testing.T) {
	var gotPath string
	var gotBody sendMailRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("could not decode request body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := &Client{
		httpClient: server.Client(),
		baseURL:    server.URL,
		log:        discardLogger(),
	}

	message := NewMessage("Instruction received", "<p>Thank you</p>", "jane@example.com")
	err := client.SendMail(context.Background(), "automations@example-firm.com", message)
	if err != nil {
		t.Fatal(err)
	}

	if got, want := gotPath, "/users/automations@example-firm.com/sendMail"; got != want {
		t.Errorf("path got %s want %s", got, want)
	}
	if got, want := gotBody.Message.Subject, "Instruction received"; got != want {
		t.Errorf("subject got %s want %s", got, want)
	}
	if got, want := gotBody.Message.Body.ContentType, "HTML"; got != want {
		t.Errorf("content type got %s want %s", got, want)
	}
	if got, want := gotBody.Message.ToRecipients[0].EmailAddress.Address, "jane@example.com"; got != want {
		t.Errorf("recipient got %s want %s", got, want)
	}
	if !gotBody.SaveToSentItems {
		t.Error("expected saveToSentItems to be set")
	}
}

func TestSendMailAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":"ErrorSendAsDenied"}}`, http.StatusForbidden)
	}))
	defer server.Close()

	client := &Client{
		httpClient: server.Client(),
		baseURL:    server.URL,
		log:        discardLogger(),
	}

	err := client.SendMail(context.Background(), "automations@example-firm.com",
		NewMessage("subject", "body", "jane@example.com"))
	if err == nil {
		t.Fatal("expected an error from a 403 response")
	}
	if !strings.Contains(err.Error(), "status 403") {
		t.Errorf("error %q does not carry the status", err)
	}
}
