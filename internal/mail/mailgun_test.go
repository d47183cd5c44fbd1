package mail

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestLogger() *slog.Logger {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, nil))
}

func newTestMailer(t *testing.T, handler http.HandlerFunc) *MailgunMailer {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	m := NewMailgunMailer(server.Client(), newTestLogger(), "test-api-key", "mg.example.com")
	m.baseURL = server.URL
	return m
}

func TestMailgunMailer_SendsExpectedFormFields(t *testing.T) {
	var gotPath string
	var gotForm map[string][]string
	m := newTestMailer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		r.ParseForm()
		gotForm = r.PostForm
		w.WriteHeader(http.StatusOK)
	})

	err := m.SendMotivationalEmail(context.Background(), "user@example.com", "Keep going!")
	if err != nil {
		t.Fatalf("SendMotivationalEmail() がエラーを返した: %v", err)
	}

	if gotPath != "/mg.example.com/messages" {
		t.Errorf("リクエストパス = %q, want %q", gotPath, "/mg.example.com/messages")
	}
	if got := gotForm["from"][0]; got != "Jurn AI <help@mg.example.com>" {
		t.Errorf("from = %q, want %q", got, "Jurn AI <help@mg.example.com>")
	}
	if got := gotForm["to"][0]; got != "user@example.com" {
		t.Errorf("to = %q, want %q", got, "user@example.com")
	}
	if got := gotForm["subject"][0]; got != "Your daily motivational message" {
		t.Errorf("subject = %q, want %q", got, "Your daily motivational message")
	}
}

func TestMailgunMailer_ComposesBodyWithGreetingAndSalutation(t *testing.T) {
	var gotText string
	m := newTestMailer(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotText = r.PostFormValue("text")
		w.WriteHeader(http.StatusOK)
	})

	m.SendMotivationalEmail(context.Background(), "user@example.com", "Keep going!")

	want := "Hey,\n\nKeep going!\n\nGood morning!"
	if gotText != want {
		t.Errorf("本文 = %q, want %q", gotText, want)
	}
}

func TestMailgunMailer_UsesBasicAuthWithAPIKey(t *testing.T) {
	var gotUser, gotPass string
	var gotOK bool
	m := newTestMailer(t, func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, gotOK = r.BasicAuth()
		w.WriteHeader(http.StatusOK)
	})

	m.SendMotivationalEmail(context.Background(), "user@example.com", "msg")

	if !gotOK {
		t.Fatal("Basic認証ヘッダが送られていない")
	}
	if gotUser != "api" || gotPass != "test-api-key" {
		t.Errorf("Basic認証 = (%q, %q), want (api, test-api-key)", gotUser, gotPass)
	}
}

func TestMailgunMailer_ErrorOnNon200(t *testing.T) {
	m := newTestMailer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Forbidden", http.StatusUnauthorized)
	})

	err := m.SendMotivationalEmail(context.Background(), "user@example.com", "msg")
	if err == nil {
		t.Fatal("エラーステータス時はエラーを返すべき")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("エラーにステータスコードが含まれない: %v", err)
	}
}

func TestMailgunMailer_ErrorOnMissingConfig(t *testing.T) {
	m := NewMailgunMailer(http.DefaultClient, newTestLogger(), "", "")

	err := m.SendMotivationalEmail(context.Background(), "user@example.com", "msg")
	if err == nil {
		t.Fatal("APIキー未設定時はエラーを返すべき")
	}
}
