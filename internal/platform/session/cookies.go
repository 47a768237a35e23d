package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"sync"
)

type savedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CookieJar is an http.CookieJar that writes the cookies of one backend to a
// file, so a sign-in outlives the process the way a browser keeps it.
type CookieJar struct {
	mu   sync.Mutex
	path string
	base *url.URL
	jar  *cookiejar.Jar
}

// NewCookieJar loads the cookies saved at path for base. A missing file is an
// empty jar.
func NewCookieJar(path string, base *url.URL) (*CookieJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	j := &CookieJar{path: path, base: base, jar: jar}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return j, nil
	case err != nil:
		return nil, fmt.Errorf("read cookie file: %w", err)
	}

	var saved []savedCookie
	if err := json.Unmarshal(data, &saved); err != nil {
		// A corrupt file only costs a sign-in.
		return j, nil
	}
	cookies := make([]*http.Cookie, 0, len(saved))
	for _, c := range saved {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	jar.SetCookies(base, cookies)
	return j, nil
}

func (j *CookieJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jar.SetCookies(u, cookies)
	// The jar has no error path; an unwritable file leaves the sign-in
	// in memory only.
	_ = j.save()
}

func (j *CookieJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

// Clear forgets every cookie.
func (j *CookieJar) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	j.jar = jar
	if err := os.Remove(j.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove cookie file: %w", err)
	}
	return nil
}

func (j *CookieJar) save() error {
	current := j.jar.Cookies(j.base)
	saved := make([]savedCookie, 0, len(current))
	for _, c := range current {
		saved = append(saved, savedCookie{Name: c.Name, Value: c.Value})
	}
	data, err := json.Marshal(saved)
	if err != nil {
		return err
	}
	return os.WriteFile(j.path, data, 0o600)
}
