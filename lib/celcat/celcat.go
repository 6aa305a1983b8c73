// Package celcat talks to the CYU Celcat calendar portal, which exposes
// no documented API: logins go through a scraped LDAP form and every
// lookup is built from markup fragments and inline scripts the portal
// happens to emit today.
package celcat

import (
	"net/http"
	"time"

	"cyucal-backend/lib/restyutil"

	"github.com/go-resty/resty/v2"
)

const DefaultBaseUrl = "https://services-web.cyu.fr/calendar"

// Session is the opaque multi-cookie capability returned by Login. It
// is reattached verbatim as the Cookie header on later requests and
// never parsed beyond that. Callers discard it on logout or on
// ErrUnauthorized.
type Session string

type Client struct {
	http *resty.Client
}

type ClientOptions struct {
	// BaseUrl of the calendar portal, DefaultBaseUrl when empty.
	BaseUrl string
}

func NewClient(opts ClientOptions) *Client {
	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}

	client := resty.New()
	client.SetBaseURL(baseUrl)
	// sessions travel explicitly in the Cookie header; an ambient jar
	// would let one flow's cookies leak into another's
	client.SetCookieJar(nil)
	// the login redirect response carries the session cookies, so it
	// must never be followed automatically; ErrUseLastResponse makes
	// the transport hand back the redirect response itself without
	// turning it into an error
	client.SetRedirectPolicy(resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}))
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetTimeout(time.Second * 30)

	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	return &Client{http: client}
}
