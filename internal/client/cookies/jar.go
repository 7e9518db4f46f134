// Package cookies provides the cookie jar used by the REST backend. Besides
// implementing http.CookieJar it can expire every cookie it has accepted,
// which is how a logout tears down server session cookies.
package cookies

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"golang.org/x/net/publicsuffix"
)

type cookieID struct {
	host   string
	name   string
	path   string
	domain string
}

// Jar wraps a cookiejar.Jar and remembers where each live cookie came from.
type Jar struct {
	jar *cookiejar.Jar

	mu   sync.Mutex
	seen map[cookieID]*url.URL
}

func New() (*Jar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &Jar{jar: jar, seen: make(map[cookieID]*url.URL)}, nil
}

func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	for _, c := range cookies {
		id := cookieID{host: u.Host, name: c.Name, path: c.Path, domain: c.Domain}
		if c.MaxAge < 0 {
			delete(j.seen, id)
			continue
		}
		cp := *u
		j.seen[id] = &cp
	}
	j.mu.Unlock()

	j.jar.SetCookies(u, cookies)
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

// ExpireAll re-sets every remembered cookie with a negative Max-Age so the
// underlying jar drops it. It returns how many cookies were expired.
func (j *Jar) ExpireAll() int {
	j.mu.Lock()
	seen := j.seen
	j.seen = make(map[cookieID]*url.URL)
	j.mu.Unlock()

	for id, u := range seen {
		j.jar.SetCookies(u, []*http.Cookie{{
			Name:   id.name,
			Value:  "",
			Path:   id.path,
			Domain: id.domain,
			MaxAge: -1,
		}})
	}
	return len(seen)
}
