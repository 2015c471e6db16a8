package activecampaign

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(server *httptest.Server) *Client {
	return &Client{
		httpClient: server.Client(),
		baseURL:    server.URL,
		apiToken:   "test-token",
		log:        discardLogger(),
	}
}

func TestContactByEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got, want := r.Header.Get("Api-Token"), "test-token"; got != want {
			t.Errorf("api token got %s want %s", got, want)
		}
		switch r.URL.Query().Get("email") {
		case "jane@example.com":
			fmt.Fprint(w, `{"contacts":[{"id":"1234","email":"jane@example.com","firstName":"Jane"}],"meta":{"total":"1"}}`)
		default:
			fmt.Fprint(w, `{"contacts":[],"meta":{"total":"0"}}`)
		}
	}))
	defer server.Close()
	client := testClient(server)

	contact, err := client.ContactByEmail(context.Background(), "jane@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := contact.ID, "1234"; got != want {
		t.Errorf("contact id got %s want %s", got, want)
	}

	_, err = client.ContactByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestSyncContact(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got, want := r.URL.Path, "/api/3/contact/sync"; got != want {
			t.Errorf("path got %s want %s", got, want)
		}
		var request contactRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Errorf("could not decode request: %v", err)
		}
		request.Contact.ID = "5678"
		_ = json.NewEncoder(w).Encode(contactResponse{Contact: request.Contact})
	}))
	defer server.Close()
	client := testClient(server)

	contact, err := client.SyncContact(context.Background(), Contact{
		Email:     "sam@example.com",
		FirstName: "Sam",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := contact.ID, "5678"; got != want {
		t.Errorf("contact id got %s want %s", got, want)
	}
	if got, want := contact.FirstName, "Sam"; got != want {
		t.Errorf("first name got %s want %s", got, want)
	}
}

// TestContactsPagination checks the offset pagination loop follows pages
// until the meta total is reached.
func TestContactsPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("offset") {
		case "0":
			fmt.Fprint(w, `{"contacts":[{"id":"1","email":"a@example.com"},{"id":"2","email":"b@example.com"}],"meta":{"total":"3"}}`)
		default:
			fmt.Fprint(w, `{"contacts":[{"id":"3","email":"c@example.com"}],"meta":{"total":"3"}}`)
		}
	}))
	defer server.Close()
	client := testClient(server)

	contacts, err := client.Contacts(context.Background(), ListOptions{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(contacts), 3; got != want {
		t.Fatalf("got %d contacts want %d", got, want)
	}
	if got, want := contacts[2].ID, "3"; got != want {
		t.Errorf("last contact got %s want %s", got, want)
	}
}

func TestAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"No Result found for Subscriber"}`, http.StatusUnauthorized)
	}))
	defer server.Close()
	client := testClient(server)

	_, err := client.ContactByEmail(context.Background(), "jane@example.com")
	if err == nil {
		t.Fatal("expected an error from a 401 response")
	}
}
