package celcat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"cyucal-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// the attribute order matters: this is the exact tag the portal emits
var securityTokenRegex = regexp.MustCompile(`<input name="__RequestVerificationToken" type="hidden" value="([^"]+)" />`)

var federationIdRegex = regexp.MustCompile(`var federationIdStr = '(.*?)';`)

// Login authenticates a username/password pair against the portal's
// LDAP form and returns the session cookies joined by `;`, in the
// order the portal set them.
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	ctx, span := tracer.Start(ctx, "celcat:Login")
	defer span.End()

	pageRes, err := c.http.R().
		SetContext(ctx).
		Get("/LdapLogin")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch login page")
		return "", fmt.Errorf("%w: fetch login page: %v", ErrRemote, err)
	}

	pageCookie := pageRes.Header().Get("Set-Cookie")
	if pageCookie == "" {
		span.SetStatus(codes.Error, "login page did not set a cookie")
		return "", fmt.Errorf("%w: login page did not set a cookie", ErrRemote)
	}

	groups := securityTokenRegex.FindSubmatch(pageRes.Body())
	if len(groups) < 2 {
		span.SetStatus(codes.Error, "failed to find verification token")
		return "", fmt.Errorf("%w: missing verification token", ErrRemote)
	}

	loginRes, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"Name":                       username,
			"Password":                   password,
			"__RequestVerificationToken": string(groups[1]),
		}).
		SetHeader("Cookie", pageCookie).
		Post("/LdapLogin/Logon")
	if err != nil {
		span.SetStatus(codes.Error, "failed to make login request")
		return "", fmt.Errorf("%w: login request: %v", ErrRemote, err)
	}

	// a successful login redirects to the calendar; anything else means
	// the portal rejected the credentials
	if loginRes.StatusCode() < 300 || loginRes.StatusCode() > 399 {
		span.SetStatus(codes.Error, "login was not redirected")
		return "", ErrUnauthorized
	}

	cookies := loginRes.Header().Values("Set-Cookie")
	return Session(strings.Join(cookies, ";")), nil
}

// Identity is the portal's stable view of an account.
type Identity struct {
	FederationID string `json:"federationId"`
	DisplayName  string `json:"displayName"`
}

// GetIdentity recovers the federation id and display name behind a
// session. The portal never answers a plain 401 for an expired
// session: it serves the login page with a 200 instead, which is
// detected here by the federation id going missing.
func (c *Client) GetIdentity(ctx context.Context, session Session) (Identity, error) {
	ctx, span := tracer.Start(ctx, "celcat:GetIdentity")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Cookie", string(session)).
		Get("/")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch calendar root")
		return Identity{}, fmt.Errorf("%w: fetch calendar root: %v", ErrRemote, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse calendar root html")
		return Identity{}, fmt.Errorf("%w: parse calendar root: %v", ErrRemote, err)
	}

	var federationId string
	found := false
	for _, script := range htmlutil.InlineScripts(doc) {
		groups := federationIdRegex.FindStringSubmatch(script)
		if len(groups) < 2 {
			continue
		}
		federationId = groups[1]
		found = true
		break
	}
	if !found {
		span.SetStatus(codes.Error, "missing federation id")
		return Identity{}, ErrUnauthorized
	}

	nameRes, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"federationIds[]": federationId,
			"resType":         "104",
		}).
		SetHeader("Cookie", string(session)).
		Post("/Home/LoadDisplayNames")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch display names")
		return Identity{}, fmt.Errorf("%w: fetch display names: %v", ErrRemote, err)
	}

	var infos []Identity
	if err := json.Unmarshal(nameRes.Body(), &infos); err != nil {
		span.SetStatus(codes.Error, "failed to decode display names")
		return Identity{}, fmt.Errorf("%w: decode display names: %v", ErrRemote, err)
	}
	if len(infos) == 0 {
		span.SetStatus(codes.Error, "empty display name response")
		return Identity{}, fmt.Errorf("%w: empty display name response", ErrRemote)
	}
	return infos[0], nil
}
