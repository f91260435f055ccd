package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

type headerAuth struct {
	err error
}

func (a headerAuth) Apply(_ context.Context, req *http.Request) error {
	if a.err != nil {
		return a.err
	}
	req.Header.Set("Authorization", "Bearer test")
	return nil
}

func TestEndpoint(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		path   string
		params url.Values
		want   string
	}{
		{name: "root", base: "https://x.example.com", path: "rest/api/2/search", want: "https://x.example.com/rest/api/2/search"},
		{name: "context path", base: "https://x.example.com/jira", path: "/rest/api/2/issue/A-1", want: "https://x.example.com/jira/rest/api/2/issue/A-1"},
		{name: "escaped segment", base: "https://x.example.com/jira", path: "rest/api/2/issue/" + url.PathEscape("A/1 x"), want: "https://x.example.com/jira/rest/api/2/issue/A%2F1%20x"},
		{name: "params", base: "https://x.example.com/", path: "a", params: url.Values{"b": {"1 2"}}, want: "https://x.example.com/a?b=1+2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, err := url.Parse(tt.base)
			if err != nil {
				t.Fatal(err)
			}
			if got := Endpoint(base, tt.path, tt.params).String(); got != tt.want {
				t.Errorf("Endpoint() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test" {
			http.Error(w, "denied", http.StatusUnauthorized)
			return
		}
		if r.Method == http.MethodPut {
			body, _ := io.ReadAll(r.Body)
			w.Write(body)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	base, _ := url.Parse(server.URL)
	c := &Client{BaseURL: base, HTTP: server.Client(), Auth: headerAuth{}}

	body, err := c.Do(context.Background(), Request{Path: "x"})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Errorf("body = %s", body)
	}

	body, err = c.Do(context.Background(), Request{Method: http.MethodPut, Path: "x", Body: strings.NewReader("echo")})
	if err != nil {
		t.Fatalf("PUT error = %v", err)
	}
	if string(body) != "echo" {
		t.Errorf("PUT body = %s", body)
	}

	anon := &Client{BaseURL: base, HTTP: server.Client()}
	_, err = anon.Do(context.Background(), Request{Path: "x"})
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 StatusError, got %v", err)
	}
	if IsNotFound(err) {
		t.Error("401 must not be reported as not found")
	}

	failing := &Client{BaseURL: base, HTTP: server.Client(), Auth: headerAuth{err: errors.New("no secret")}}
	if _, err := failing.Do(context.Background(), Request{Path: "x"}); err == nil {
		t.Error("expected authentication error")
	}
}
