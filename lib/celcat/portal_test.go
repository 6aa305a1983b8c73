package celcat

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"cyucal-backend/lib/restyutil"
	"cyucal-backend/lib/telemetry"
)

const (
	testUsername     = "e-dupontj"
	testPassword     = "hunter2"
	testToken        = "tok-deadbeef"
	testFederationId = "22012345"
	testDisplayName  = "Jean DUPONT"

	pageCookie   = "ASP.NET_SessionId=abc123; path=/; HttpOnly"
	loginCookie1 = "Calendar=cal-xyz; path=/; HttpOnly"
	loginCookie2 = ".AuthCookie=auth-123; path=/; secure"
)

// fakePortal mimics the markup shapes the production portal serves.
type fakePortal struct {
	// serve a login page with no verification token
	brokenLoginPage bool
	// serve the month view without the dateExtents script
	missingExtents bool
	// pretend every session has silently expired
	expiredSessions bool
	// answer calendar-data posts with a plain 500
	calendarBroken bool

	// form values of the last calendar-data request
	lastCalendarForm url.Values
}

func (p *fakePortal) hasSession(r *http.Request) bool {
	if p.expiredSessions {
		return false
	}
	cookie := r.Header.Get("Cookie")
	return strings.Contains(cookie, "Calendar=cal-xyz") &&
		strings.Contains(cookie, ".AuthCookie=auth-123")
}

func (p *fakePortal) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/LdapLogin", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Set-Cookie", pageCookie)
		if p.brokenLoginPage {
			fmt.Fprint(w, `<html><body><form></form></body></html>`)
			return
		}
		fmt.Fprintf(
			w,
			`<html><body><form action="/LdapLogin/Logon"><input name="__RequestVerificationToken" type="hidden" value="%s" /></form></body></html>`,
			testToken,
		)
	})

	mux.HandleFunc("/LdapLogin/Logon", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		ok := r.PostFormValue("Name") == testUsername &&
			r.PostFormValue("Password") == testPassword &&
			r.PostFormValue("__RequestVerificationToken") == testToken &&
			strings.Contains(r.Header.Get("Cookie"), "ASP.NET_SessionId=abc123")
		if !ok {
			fmt.Fprint(w, `<html><body>identifiants invalides</body></html>`)
			return
		}
		w.Header().Add("Set-Cookie", loginCookie1)
		w.Header().Add("Set-Cookie", loginCookie2)
		w.Header().Set("Location", "/")
		w.WriteHeader(http.StatusFound)
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("CalendarViewType") != "" {
			p.serveMonthView(w, r)
			return
		}
		p.serveCalendarRoot(w, r)
	})

	mux.HandleFunc("/Home/LoadDisplayNames", func(w http.ResponseWriter, r *http.Request) {
		if !p.hasSession(r) {
			fmt.Fprint(w, `<html><body>connexion</body></html>`)
			return
		}
		r.ParseForm()
		if r.PostFormValue("federationIds[]") != testFederationId ||
			r.PostFormValue("resType") != "104" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		fmt.Fprintf(
			w,
			`[{"federationId":"%s","displayName":"%s"}]`,
			testFederationId, testDisplayName,
		)
	})

	mux.HandleFunc("/Home/GetCalendarData", func(w http.ResponseWriter, r *http.Request) {
		if p.calendarBroken {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if !p.hasSession(r) {
			// the portal reports expiry as a 200 with an empty body
			return
		}
		r.ParseForm()
		p.lastCalendarForm = r.PostForm
		fmt.Fprint(w, calendarDataJson)
	})

	return mux
}

func (p *fakePortal) serveCalendarRoot(w http.ResponseWriter, r *http.Request) {
	if !p.hasSession(r) {
		fmt.Fprint(w, `<html><body><form>connexion</form></body></html>`)
		return
	}
	fmt.Fprintf(
		w,
		"<html><body><script>\r\nvar federationIdStr = '%s';\r\n</script></body></html>",
		testFederationId,
	)
}

func (p *fakePortal) serveMonthView(w http.ResponseWriter, r *http.Request) {
	if !p.hasSession(r) || p.missingExtents {
		fmt.Fprint(w, `<html><body><script>var x = 1;</script></body></html>`)
		return
	}
	fmt.Fprint(
		w,
		"<html><body><script>\r\n"+
			"var dateExtents = {\r\n"+
			"    earliest: new Date(2024, 9 - 1, 2),\r\n"+
			"    latest: new Date(2025, 6 - 1, 30)\r\n"+
			"};\r\n"+
			"</script></body></html>",
	)
}

const calendarDataJson = `[
	{
		"id": "-1511919",
		"start": "2024-09-02T08:00:00",
		"end": "2024-09-02T10:00:00",
		"allDay": false,
		"description": "ANALYSE CM\r\n\r\nAMPHI A<br />M. MARTIN&#39;s group",
		"backgroundColor": "#f4a460",
		"department": "SCIENCES",
		"faculty": null,
		"eventCategory": "CM",
		"sites": ["CHENES"],
		"modules": ["MATH101"]
	},
	{
		"id": "-1511920",
		"start": "2024-09-03T00:00:00",
		"end": null,
		"allDay": true,
		"description": "JOURNEE D&#39;INTEGRATION",
		"backgroundColor": "#87ceeb",
		"department": "SCIENCES",
		"faculty": "UFR ST",
		"eventCategory": "Divers",
		"sites": ["ORIENTATION HALL"],
		"modules": null
	}
]`

func setup(t testing.TB, portal *fakePortal) (*Client, func()) {
	client, _, cleanup := setupWithDumps(t, portal)
	return client, cleanup
}

// setupWithDumps also returns the directory request/response dumps are
// written to. The output must be installed before the client is
// constructed, it is picked up at construction time.
func setupWithDumps(t testing.TB, portal *fakePortal) (*Client, string, func()) {
	cleanup := telemetry.SetupForTesting(t, "test:lib/celcat")

	dumps := filepath.Join(t.TempDir(), "resty")
	SetRestyInstrumentOutput(restyutil.NewFilesystemOutput(dumps))

	server := httptest.NewServer(portal.handler())
	client := NewClient(ClientOptions{BaseUrl: server.URL})

	return client, dumps, func() {
		server.Close()
		cleanup()
	}
}

func login(t testing.TB, client *Client) Session {
	session, err := client.Login(context.Background(), testUsername, testPassword)
	if err != nil {
		t.Fatal(err)
	}
	return session
}
