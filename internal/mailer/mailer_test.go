package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_SendOTP(t *testing.T) {
	var got map[string]string
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("key-123", srv.URL, "no-reply@biziquick.example")
	if err := c.SendOTP(context.Background(), "jane@x.com", "123456"); err != nil {
		t.Fatalf("SendOTP: %v", err)
	}
	if auth != "Bearer key-123" {
		t.Errorf("Authorization = %q, want Bearer key-123", auth)
	}
	if got["to"] != "jane@x.com" {
		t.Errorf("to = %q, want jane@x.com", got["to"])
	}
	if got["from"] != "no-reply@biziquick.example" {
		t.Errorf("from = %q", got["from"])
	}
}

func TestClient_SendPasswordReset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient("key-123", srv.URL, "no-reply@biziquick.example")
	if err := c.SendPasswordReset(context.Background(), "jane@x.com", "reset-token"); err != nil {
		t.Fatalf("SendPasswordReset: %v", err)
	}
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient("key-123", srv.URL, "no-reply@biziquick.example")
	if err := c.SendOTP(context.Background(), "jane@x.com", "123456"); err == nil {
		t.Fatal("SendOTP should fail on 5xx response")
	}
}

func TestClient_MissingAPIKey(t *testing.T) {
	c := NewClient("", "http://localhost", "no-reply@biziquick.example")
	if err := c.SendOTP(context.Background(), "jane@x.com", "123456"); err == nil {
		t.Fatal("SendOTP without API key should fail")
	}
}

func TestClient_MissingBaseURL(t *testing.T) {
	c := NewClient("key-123", "", "no-reply@biziquick.example")
	if err := c.SendOTP(context.Background(), "jane@x.com", "123456"); err == nil {
		t.Fatal("SendOTP without base URL should fail")
	}
}
