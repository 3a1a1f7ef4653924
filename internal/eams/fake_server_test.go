package eams

import (
	"compress/zlib"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"eamsgrab/internal/components/telemetry"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

type seenRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Form   url.Values
}

// fakeEams imitates the handful of election endpoints a Client uses.
type fakeEams struct {
	mutex    sync.Mutex
	requests []seenRequest

	// catalogs maps "<param>=<profile id>" to a catalog body
	catalogs map[string]string
	// landing is the body of the election landing page, keyed by raw query
	landing map[string]string
	// bounceHome redirects home.action to the authentication wall
	bounceHome bool
	// submitBody is returned from batchOperator.action
	submitBody string
	// rotateSession answers every request with a fresh JSESSIONID cookie
	rotateSession bool
}

func newFakeEams() *fakeEams {
	return &fakeEams{
		catalogs: map[string]string{},
		landing:  map[string]string{},
	}
}

func (f *fakeEams) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()

	f.mutex.Lock()
	f.requests = append(f.requests, seenRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Form:   r.PostForm,
	})
	f.mutex.Unlock()

	if f.rotateSession {
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "rotated", Path: "/"})
	}

	switch r.URL.Path {
	case homeExtPath:
		w.Write([]byte("<html><title>home</title></html>"))
	case homePath:
		if f.bounceHome {
			http.Redirect(w, r, "/authserver/login?service=eams", http.StatusFound)
			return
		}
		w.Write([]byte("<html><title>我的主页</title></html>"))
	case "/authserver/login":
		// the wall is served as GBK without declaring it
		body, _ := simplifiedchinese.GBK.NewEncoder().String("<html><title>统一身份认证</title></html>")
		w.Write([]byte(body))
	case defaultPagePath:
		w.Write([]byte(f.landing[r.URL.RawQuery]))
	case catalogPath:
		body, ok := f.catalogs[r.URL.RawQuery]
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("<html><body>error</body></html>"))
			return
		}
		// compressed without a Content-Encoding header
		w.Header().Set("Content-Type", "text/plain")
		zw := zlib.NewWriter(w)
		zw.Write([]byte(body))
		zw.Close()
	case submitPath:
		w.Write([]byte(f.submitBody))
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeEams) seen(path string) []seenRequest {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	var out []seenRequest
	for _, r := range f.requests {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func startFake(t *testing.T, fake *fakeEams) (*Client, *telemetry.Recorder) {
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	tel := &telemetry.Recorder{}
	client, err := NewClient(ClientOptions{
		BaseUrl: server.URL,
		Cookie:  "JSESSIONID=abc; GSESSIONID=def",
	}, tel)
	require.NoError(t, err)
	return client, tel
}

func catalogKey(param ParamName, profileId string) string {
	return strings.Join([]string{string(param), profileId}, "=")
}
