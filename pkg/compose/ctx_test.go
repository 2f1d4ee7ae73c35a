package compose

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCtxWithRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/projects/42?tab=files", nil)
	r.Header.Set("X-Tenant-ID", "acme")
	r.AddCookie(&http.Cookie{Name: "session", Value: "s1"})

	rc := NewCtx(r, map[string]string{"id": "42"}, nil)

	if rc.Path() != "/projects/42" {
		t.Errorf("Path() = %q", rc.Path())
	}
	if rc.Method() != "GET" {
		t.Errorf("Method() = %q", rc.Method())
	}
	if rc.Param("id") != "42" {
		t.Errorf("Param(id) = %q", rc.Param("id"))
	}
	if rc.QueryParam("tab") != "files" {
		t.Errorf("QueryParam(tab) = %q", rc.QueryParam("tab"))
	}
	if rc.Header("X-Tenant-ID") != "acme" {
		t.Errorf("Header() = %q", rc.Header("X-Tenant-ID"))
	}
	cookie, err := rc.Cookie("session")
	if err != nil || cookie.Value != "s1" {
		t.Errorf("Cookie() = (%v, %v)", cookie, err)
	}
}

func TestCtxWithoutRequest(t *testing.T) {
	rc := NewCtx(nil, nil, nil)

	if rc.Path() != "" || rc.Method() != "" || rc.QueryParam("x") != "" {
		t.Error("Request accessors must be empty without a request")
	}
	if rc.Query() != nil {
		t.Error("Query() must be nil without a request")
	}
	if _, err := rc.Cookie("session"); err != http.ErrNoCookie {
		t.Errorf("Cookie() error = %v", err)
	}
	if rc.Param("missing") != "" {
		t.Error("Missing params read as empty")
	}
	if rc.StdContext() == nil {
		t.Error("StdContext() must never be nil")
	}
	if rc.Logger() == nil {
		t.Error("Logger() must never be nil")
	}
}

func TestCtxValues(t *testing.T) {
	type key struct{}
	rc := NewCtx(nil, nil, nil)

	if rc.Value(key{}) != nil {
		t.Error("Unset value must read as nil")
	}
	rc.SetValue(key{}, "v")
	if rc.Value(key{}) != "v" {
		t.Errorf("Value() = %v", rc.Value(key{}))
	}
}

func TestCtxWithStdContext(t *testing.T) {
	type key struct{}
	base := context.WithValue(context.Background(), key{}, "v")

	r := httptest.NewRequest("GET", "/", nil)
	rc := NewCtx(r, nil, nil)
	clone := rc.WithStdContext(base)

	if clone.StdContext().Value(key{}) != "v" {
		t.Error("Clone must carry the given context")
	}
	if clone.Request().Context().Value(key{}) != "v" {
		t.Error("Clone's request must carry the given context")
	}
	if rc.StdContext().Value(key{}) != nil {
		t.Error("Original must be unchanged")
	}
}
