package geocode

import (
	"net/http"
	"net/url"
	"strings"
)

// newRewriteClient sends requests addressed to prefix to the test server
// instead, keeping path and query.
func newRewriteClient(testServerURL, prefix string) *http.Client {
	target, err := url.Parse(testServerURL)
	if err != nil {
		panic(err)
	}
	return &http.Client{Transport: redirectTransport{target: target, prefix: prefix}}
}

type redirectTransport struct {
	target *url.URL
	prefix string
}

func (t redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !strings.HasPrefix(req.URL.String(), t.prefix) {
		return http.DefaultTransport.RoundTrip(req)
	}
	out := req.Clone(req.Context())
	out.URL.Scheme = t.target.Scheme
	out.URL.Host = t.target.Host
	out.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(out)
}
