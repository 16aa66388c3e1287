package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	domain "github.com/ecoppen/amiibot/pkg/types"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultMaxRedirects   = 10
	seenCacheSize         = 4096
)

// HTMLCollector scrapes listings from server-rendered HTML pages using
// CSS selectors. Every configured page must load for Collect to succeed.
type HTMLCollector struct {
	spec         Spec
	transport    http.RoundTripper
	timeout      time.Duration
	maxRedirects int
	agents       *UserAgents
	log          *slog.Logger
}

var _ Collector = (*HTMLCollector)(nil)

// HTMLOption configures an HTMLCollector.
type HTMLOption func(*HTMLCollector)

// WithTransport sets the HTTP transport used for page requests.
func WithTransport(rt http.RoundTripper) HTMLOption {
	return func(h *HTMLCollector) {
		h.transport = rt
	}
}

// WithRequestTimeout sets the per-request timeout. Non-positive values
// keep the default.
func WithRequestTimeout(d time.Duration) HTMLOption {
	return func(h *HTMLCollector) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithMaxRedirects sets how many redirects a page may follow before
// ErrTooManyRedirects is returned. Non-positive values keep the default.
func WithMaxRedirects(n int) HTMLOption {
	return func(h *HTMLCollector) {
		if n > 0 {
			h.maxRedirects = n
		}
	}
}

// WithUserAgents sets the user agent pool.
func WithUserAgents(u *UserAgents) HTMLOption {
	return func(h *HTMLCollector) {
		h.agents = u
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) HTMLOption {
	return func(h *HTMLCollector) {
		h.log = l
	}
}

// NewHTMLCollector validates spec and returns a collector for it.
func NewHTMLCollector(spec Spec, opts ...HTMLOption) (*HTMLCollector, error) {
	var errs []error
	if spec.ID == "" {
		errs = append(errs, errors.New("source id is required"))
	}
	if len(spec.Pages) == 0 {
		errs = append(errs, fmt.Errorf("source %s: at least one page is required", spec.ID))
	}
	for _, p := range spec.Pages {
		if u, err := url.Parse(p); err != nil || u.Host == "" {
			errs = append(errs, fmt.Errorf("source %s: invalid page url %q", spec.ID, p))
		}
	}
	if spec.Selectors.Item == "" {
		errs = append(errs, fmt.Errorf("source %s: selectors.item is required", spec.ID))
	}
	if spec.Selectors.Title == "" || spec.Selectors.Price == "" {
		errs = append(errs, fmt.Errorf("source %s: selectors.title and selectors.price are required", spec.ID))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if spec.Name == "" {
		spec.Name = spec.ID
	}
	if spec.Selectors.ImageAttr == "" {
		spec.Selectors.ImageAttr = "src"
	}

	h := &HTMLCollector{
		spec:         spec,
		transport:    http.DefaultTransport,
		timeout:      defaultRequestTimeout,
		maxRedirects: defaultMaxRedirects,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.agents == nil {
		h.agents = NewUserAgents(nil)
	}
	return h, nil
}

// Source returns the source identifier.
func (h *HTMLCollector) Source() string {
	return h.spec.ID
}

// Name returns the human readable source name.
func (h *HTMLCollector) Name() string {
	return h.spec.Name
}

// Collect visits every page in order and returns the listings found,
// de-duplicated by detail URL. Any page failure fails the whole call so
// a partial result is never mistaken for a full one. ctx is checked
// between pages; a request in flight runs until the request timeout.
func (h *HTMLCollector) Collect(ctx context.Context) ([]domain.Listing, error) {
	c := colly.NewCollector(
		colly.UserAgent(h.agents.Next()),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(h.timeout)
	c.WithTransport(h.transport)
	c.SetRedirectHandler(func(_ *http.Request, via []*http.Request) error {
		if len(via) >= h.maxRedirects {
			return ErrTooManyRedirects
		}
		return nil
	})

	seen, err := lru.New[string, struct{}](seenCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating dedupe cache: %w", err)
	}

	var (
		listings   []domain.Listing
		statusCode int
		parseErr   error
	)

	c.OnResponse(func(r *colly.Response) {
		ct := r.Headers.Get("Content-Type")
		if ct != "" && !strings.Contains(ct, "html") {
			parseErr = ErrParse{Err: fmt.Errorf("unexpected content type %q from %s", ct, r.Request.URL)}
		}
	})

	c.OnHTML(h.spec.Selectors.Item, func(e *colly.HTMLElement) {
		l, ok := h.extract(e)
		if !ok {
			return
		}
		if l.DetailURL != "" {
			if seen.Contains(l.DetailURL) {
				return
			}
			seen.Add(l.DetailURL, struct{}{})
		}
		listings = append(listings, l)
	})

	c.OnError(func(r *colly.Response, _ error) {
		statusCode = r.StatusCode
	})

	for _, page := range h.spec.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		target, err := withParams(page, h.spec.Params)
		if err != nil {
			return nil, ErrParse{Err: err}
		}

		statusCode = 0
		if err := c.Visit(target); err != nil {
			classified := classifyError(err, statusCode)
			h.log.Debug("page fetch failed",
				"source", h.spec.ID,
				"url", target,
				"category", Category(classified),
				"error", err,
			)
			return nil, classified
		}
		if parseErr != nil {
			return nil, parseErr
		}
	}

	h.log.Debug("collected listings", "source", h.spec.ID, "count", len(listings))
	return listings, nil
}

// extract builds a Listing from one item element. Missing fields are left
// empty for validation to report; ok is false only for skipped out of
// stock items.
func (h *HTMLCollector) extract(e *colly.HTMLElement) (domain.Listing, bool) {
	sel := h.spec.Selectors

	var href string
	if sel.Link == "" {
		href = strings.TrimSpace(e.Attr("href"))
	} else {
		href = firstAttr(e, sel.Link, "href")
	}

	l := domain.Listing{
		SourceID:   h.spec.ID,
		Title:      firstText(e, sel.Title),
		Price:      firstText(e, sel.Price),
		DetailURL:  absolute(e, href),
		ImageURL:   absolute(e, firstAttr(e, sel.Image, sel.ImageAttr)),
		StockLabel: domain.StockInStock,
	}
	l.SeverityColor = domain.ColorInStock

	if !h.inStock(e) {
		if h.spec.Stock.SkipOutOfStock {
			return domain.Listing{}, false
		}
		l.StockLabel = domain.StockOutOfStock
		l.SeverityColor = domain.ColorOutOfStock
	}

	return l, true
}

func (h *HTMLCollector) inStock(e *colly.HTMLElement) bool {
	rule := h.spec.Stock
	if rule.Selector == "" {
		return true
	}

	found := e.DOM.Find(rule.Selector)
	text := strings.TrimSpace(found.First().Text())

	switch {
	case rule.InStockText != "":
		return strings.EqualFold(text, rule.InStockText)
	case rule.OutOfStockText != "":
		return !strings.EqualFold(text, rule.OutOfStockText)
	default:
		return found.Length() == 0
	}
}

func firstText(e *colly.HTMLElement, sel string) string {
	if sel == "" {
		return ""
	}
	return strings.Join(strings.Fields(e.DOM.Find(sel).First().Text()), " ")
}

func firstAttr(e *colly.HTMLElement, sel, attr string) string {
	if sel == "" {
		return ""
	}
	v, _ := e.DOM.Find(sel).First().Attr(attr)
	return strings.TrimSpace(v)
}

func absolute(e *colly.HTMLElement, ref string) string {
	if ref == "" {
		return ""
	}
	return e.Request.AbsoluteURL(ref)
}

func withParams(page string, params map[string]string) (string, error) {
	if len(params) == 0 {
		return page, nil
	}
	u, err := url.Parse(page)
	if err != nil {
		return "", fmt.Errorf("parsing page url %q: %w", page, err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
