package wordpress

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testClient(serverURL string) *Client {
	c := NewClient(serverURL, "admin", "app-password")
	c.sleep = func(time.Duration) {}
	return c
}

func TestTestConnection(t *testing.T) {
	var gotAuth bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wp/v2/users/me" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		gotAuth = ok && user == "admin" && pass == "app-password"
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if err := testClient(server.URL).TestConnection(context.Background()); err != nil {
		t.Fatalf("TestConnection failed: %v", err)
	}
	if !gotAuth {
		t.Error("expected basic auth with the application password")
	}
}

func TestTestConnection_BadCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	err := testClient(server.URL).TestConnection(context.Background())
	if err == nil {
		t.Fatal("expected credential error")
	}
	if !strings.Contains(err.Error(), "credentials") {
		t.Errorf("expected credential message, got %q", err.Error())
	}
}

func TestPublishPost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wp/v2/posts" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var post PostRequest
		if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
			t.Errorf("failed to decode post body: %v", err)
		}
		if post.Status != "publish" {
			t.Errorf("expected default status publish, got %q", post.Status)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 42, "link": "https://example.com/?p=42"})
	}))
	defer server.Close()

	id, err := testClient(server.URL).PublishPost(context.Background(), PostRequest{
		Title:   "Hello",
		Content: "<p>Body</p>",
	})
	if err != nil {
		t.Fatalf("PublishPost failed: %v", err)
	}
	if id != 42 {
		t.Errorf("expected post id 42, got %d", id)
	}
}

func TestPublishPost_RetriesServerErrors(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 7})
	}))
	defer server.Close()

	id, err := testClient(server.URL).PublishPost(context.Background(), PostRequest{Title: "t", Content: "c"})
	if err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if id != 7 {
		t.Errorf("expected post id 7, got %d", id)
	}
}

func TestPublishPost_GivesUpAfterMaxAttempts(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := testClient(server.URL).PublishPost(context.Background(), PostRequest{Title: "t", Content: "c"})
	if err == nil {
		t.Fatal("expected failure after exhausting retries")
	}
	if attempts != maxAttempts {
		t.Errorf("expected %d attempts, got %d", maxAttempts, attempts)
	}
}

func TestPublishPost_NoRetryOnClientError(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"rest_invalid_param"}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).PublishPost(context.Background(), PostRequest{Title: "t", Content: "c"})
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if attempts != 1 {
		t.Errorf("4xx responses must not be retried, got %d attempts", attempts)
	}
}
