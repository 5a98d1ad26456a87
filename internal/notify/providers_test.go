package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestTwilioSMS(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if r.URL.Path != "/2010-04-01/Accounts/AC123/Messages.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "secret" {
			t.Errorf("missing basic auth")
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("To") != "+13135550199" || r.PostForm.Get("From") != "+13135550000" {
			t.Errorf("unexpected form %v", r.PostForm)
		}
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM42","status":"queued"}`))
	}))
	defer srv.Close()

	s := TwilioSMS{AccountSID: "AC123", AuthToken: "secret", From: "+13135550000", BaseURL: srv.URL, MaxElapsed: 5 * time.Second}
	id, err := s.SendSMS(context.Background(), "313-555-0199", "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id != "SM42" {
		t.Fatalf("expected SM42, got %s", id)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected one retry, got %d calls", calls.Load())
	}
}

func TestTwilioSMSClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid To"}`))
	}))
	defer srv.Close()

	s := TwilioSMS{AccountSID: "AC123", AuthToken: "secret", From: "+13135550000", BaseURL: srv.URL}
	if _, err := s.SendSMS(context.Background(), "bogus", "hello"); err == nil {
		t.Fatalf("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("4xx must not be retried, got %d calls", calls.Load())
	}
}

func TestSendGridEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/mail/send" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer SG.key" {
			t.Errorf("missing bearer token")
		}
		var m sgMail
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			t.Errorf("decode: %v", err)
		}
		if len(m.Content) != 2 || m.Personalizations[0].To[0].Email != "frontdesk@brightsmiles.test" {
			t.Errorf("unexpected mail %+v", m)
		}
		w.Header().Set("X-Message-Id", "sg-1")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := SendGridEmail{APIKey: "SG.key", From: "noreply@brightsmiles.test", FromName: "Bright Smiles", BaseURL: srv.URL}
	id, err := s.SendEmail(context.Background(), Email{To: "frontdesk@brightsmiles.test", Subject: "s", TextBody: "t", HTMLBody: "<p>t</p>"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id != "sg-1" {
		t.Fatalf("expected sg-1, got %s", id)
	}
}
