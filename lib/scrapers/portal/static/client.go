// Package static binds the portal extraction engine to plain HTTP.
// It works against portals that render server-side; portals that need
// scripting use the browser binding instead.
package static

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"homework-backend/lib/restyutil"
	"homework-backend/lib/scrapers/portal"
	"homework-backend/lib/statestore"
)

var tracer = otel.Tracer("scrapers/portal/static")

var restyInstrumentOutput restyutil.InstrumentOutput

func SetRestyInstrumentOutput(output restyutil.InstrumentOutput) {
	restyInstrumentOutput = output
}

type ClientOptions struct {
	BaseUrl   string
	LoginPath string
	// StateFile persists session cookies between invocations. Empty
	// disables persistence.
	StateFile string
	Selectors portal.Selectors
	Timeout   time.Duration
}

type Client struct {
	baseUrl   *url.URL
	loginPath string
	stateFile string
	sel       portal.Selectors
	http      *resty.Client
	jar       http.CookieJar

	// the jar only hands back name/value pairs, so cookie attributes
	// (expiry, httpOnly, secure) are remembered here from the
	// Set-Cookie headers observed on this session
	mu         sync.Mutex
	setCookies map[string]*http.Cookie
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	if opts.LoginPath == "" {
		opts.LoginPath = "/login"
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 30
	}
	sel := opts.Selectors.Merge(portal.DefaultSelectors())

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(opts.Timeout)

	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	c := &Client{
		baseUrl:    baseUrl,
		loginPath:  opts.LoginPath,
		stateFile:  opts.StateFile,
		sel:        sel,
		http:       client,
		jar:        jar,
		setCookies: map[string]*http.Cookie{},
	}
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		if res.RawResponse != nil {
			c.rememberCookies(res.RawResponse.Cookies())
		}
		return nil
	})
	c.restoreState(ctx)
	return c, nil
}

func (c *Client) rememberCookies(cookies []*http.Cookie) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cookie := range cookies {
		c.setCookies[cookie.Name] = cookie
	}
}

func (c *Client) restoreState(ctx context.Context) {
	if c.stateFile == "" {
		return
	}
	state, ok := statestore.Load(c.stateFile)
	if !ok {
		return
	}
	cookies := make([]*http.Cookie, 0, len(state.Cookies))
	for _, sc := range state.Cookies {
		cookie := &http.Cookie{
			Name:     sc.Name,
			Value:    sc.Value,
			Path:     sc.Path,
			HttpOnly: sc.HttpOnly,
			Secure:   sc.Secure,
		}
		if sc.Expires > 0 {
			cookie.Expires = time.Unix(int64(sc.Expires), 0)
			// a stale session must not be rehydrated as live
			if cookie.Expires.Before(time.Now()) {
				continue
			}
		}
		cookies = append(cookies, cookie)
	}
	c.jar.SetCookies(c.baseUrl, cookies)
	c.rememberCookies(cookies)
}

// PersistState flushes the live cookie jar to the configured state
// file, re-attaching the cookie attributes observed on this session so
// expiry survives the round trip.
func (c *Client) PersistState(ctx context.Context) error {
	if c.stateFile == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var state statestore.State
	for _, cookie := range c.jar.Cookies(c.baseUrl) {
		sc := statestore.Cookie{
			Name:   cookie.Name,
			Value:  cookie.Value,
			Domain: c.baseUrl.Hostname(),
			Path:   "/",
		}
		if meta, ok := c.setCookies[cookie.Name]; ok {
			if !meta.Expires.IsZero() {
				sc.Expires = float64(meta.Expires.Unix())
			}
			sc.HttpOnly = meta.HttpOnly
			sc.Secure = meta.Secure
			if meta.Path != "" {
				sc.Path = meta.Path
			}
		}
		state.Cookies = append(state.Cookies, sc)
	}
	return statestore.Save(c.stateFile, state)
}

func (c *Client) fetchDocument(ctx context.Context, path string) (*goquery.Document, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		return nil, err
	}
	if res.StatusCode() >= 400 {
		return nil, fmt.Errorf("GET %s: status %d", path, res.StatusCode())
	}
	return goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
}

func (c *Client) LoggedIn(ctx context.Context) (bool, error) {
	ctx, span := tracer.Start(ctx, "client:LoggedIn")
	defer span.End()

	doc, err := c.fetchDocument(ctx, "/")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch portal root")
		return false, err
	}
	return len(doc.Find(c.sel.LoggedInMarker).Nodes) > 0, nil
}

func (c *Client) SubmitLogin(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "client:SubmitLogin")
	defer span.End()

	doc, err := c.fetchDocument(ctx, c.loginPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch login page")
		return err
	}

	usernameInput := doc.Find(c.sel.UsernameField)
	passwordInput := doc.Find(c.sel.PasswordField)
	if len(usernameInput.Nodes) == 0 || len(passwordInput.Nodes) == 0 {
		err := fmt.Errorf("could not find login form fields")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	form := map[string]string{
		usernameInput.AttrOr("name", "username"): username,
		passwordInput.AttrOr("name", "password"): password,
	}
	// carry hidden inputs (csrf tokens and friends) along with the
	// submission
	usernameInput.Closest("form").Find("input[type='hidden']").Each(func(_ int, s *goquery.Selection) {
		name, ok := s.Attr("name")
		if !ok {
			return
		}
		form[name] = s.AttrOr("value", "")
	})

	action := usernameInput.Closest("form").AttrOr("action", c.loginPath)
	_, err = c.http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(action)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make login request")
		return err
	}
	return nil
}
