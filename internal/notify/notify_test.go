package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewPushoverRequiresCredentials(t *testing.T) {
	if _, err := NewPushover("", "user"); err == nil {
		t.Fatal("expected error for missing token")
	}
	if _, err := NewPushover("token", "  "); err == nil {
		t.Fatal("expected error for missing user")
	}
	if _, err := NewPushover("token", "user"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPushoverPostsForm(t *testing.T) {
	var gotToken, gotUser, gotMessage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("bad form: %v", err)
		}
		gotToken = r.PostFormValue("token")
		gotUser = r.PostFormValue("user")
		gotMessage = r.PostFormValue("message")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	po, err := NewPushover("app-token", "user-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	po.endpoint = srv.URL

	ev := Event{Kind: KindContact, Message: "New contact: Kay"}
	if err := po.Notify(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotToken != "app-token" || gotUser != "user-key" || gotMessage != "New contact: Kay" {
		t.Fatalf("unexpected form values: %q %q %q", gotToken, gotUser, gotMessage)
	}
}

func TestPushoverRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	po, _ := NewPushover("bad", "bad")
	po.endpoint = srv.URL

	if err := po.Notify(context.Background(), Event{Kind: KindContact, Message: "x"}); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

type flaky struct {
	err   error
	calls int
}

func (f *flaky) Notify(context.Context, Event) error {
	f.calls++
	return f.err
}

func TestMultiDeliversPastFailures(t *testing.T) {
	broken := &flaky{err: errors.New("down")}
	healthy := &flaky{}
	m := Multi{broken, healthy}

	if err := m.Notify(context.Background(), Event{Kind: KindUnknownQuestion, Message: "q"}); err != nil {
		t.Fatalf("multi must absorb channel failures, got %v", err)
	}
	if broken.calls != 1 || healthy.calls != 1 {
		t.Fatalf("every channel should be attempted, got %d/%d", broken.calls, healthy.calls)
	}
}
