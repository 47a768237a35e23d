package session

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"
)

func TestCookieJar_SurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	base, _ := url.Parse("http://localhost:8080/api")

	jar, err := NewCookieJar(path, base)
	if err != nil {
		t.Fatalf("NewCookieJar: %v", err)
	}
	if got := jar.Cookies(base); len(got) != 0 {
		t.Fatalf("expected an empty jar, got %v", got)
	}
	jar.SetCookies(base, []*http.Cookie{{Name: "session", Value: "abc", Path: "/"}})

	reloaded, err := NewCookieJar(path, base)
	if err != nil {
		t.Fatalf("NewCookieJar: %v", err)
	}
	got := reloaded.Cookies(base)
	if len(got) != 1 || got[0].Name != "session" || got[0].Value != "abc" {
		t.Fatalf("expected the session cookie back, got %v", got)
	}
}

func TestCookieJar_Clear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	base, _ := url.Parse("http://localhost:8080")

	jar, err := NewCookieJar(path, base)
	if err != nil {
		t.Fatalf("NewCookieJar: %v", err)
	}
	jar.SetCookies(base, []*http.Cookie{{Name: "session", Value: "abc", Path: "/"}})
	if err := jar.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got := jar.Cookies(base); len(got) != 0 {
		t.Errorf("expected no cookies after Clear, got %v", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected the cookie file removed, stat err = %v", err)
	}
	if err := jar.Clear(); err != nil {
		t.Errorf("clearing twice should not fail: %v", err)
	}
}

func TestCookieJar_CorruptFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	base, _ := url.Parse("http://localhost:8080")

	jar, err := NewCookieJar(path, base)
	if err != nil {
		t.Fatalf("NewCookieJar: %v", err)
	}
	if got := jar.Cookies(base); len(got) != 0 {
		t.Errorf("expected an empty jar, got %v", got)
	}
}
