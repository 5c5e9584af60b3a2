// Package edgar fetches registration filings from SEC EDGAR.
package edgar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/secgest/internal/filing"
)

const (
	defaultTickersURL     = "https://www.sec.gov/files/company_tickers.json"
	defaultSubmissionsURL = "https://data.sec.gov/submissions"
	defaultArchivesURL    = "https://www.sec.gov/Archives/edgar/data"

	// DefaultUserAgent is sent when none is configured. SEC rejects
	// requests without a contact address.
	DefaultUserAgent = "secgest/1.0 (admin@example.com)"
)

// IPOForms are the registration forms fetched when none is named.
var IPOForms = []string{"S-1", "S-1/A", "424B4"}

var (
	// ErrCompanyNotFound is returned when a ticker has no CIK.
	ErrCompanyNotFound = errors.New("company not found")
	// ErrFilingNotFound is returned when a company has no recent filing of the form.
	ErrFilingNotFound = errors.New("filing not found")
)

// Filing describes one filing in a company's recent submissions.
type Filing struct {
	CIK             string `json:"cik"`
	Ticker          string `json:"ticker"`
	Form            string `json:"form"`
	AccessionNumber string `json:"accession_number"`
	FilingDate      string `json:"filing_date"`
	PrimaryDocument string `json:"primary_document"`
	URL             string `json:"url"`
}

// Client talks to EDGAR's public JSON and archive endpoints.
type Client struct {
	userAgent      string
	downloadDir    string
	tickersURL     string
	submissionsURL string
	archivesURL    string
	http           *http.Client

	mu      sync.Mutex
	tickers map[string]tickerEntry // upper-case ticker -> entry
}

type tickerEntry struct {
	CIK    int    `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURLs points the client at alternate endpoints.
func WithBaseURLs(tickers, submissions, archives string) Option {
	return func(c *Client) {
		c.tickersURL = tickers
		c.submissionsURL = strings.TrimSuffix(submissions, "/")
		c.archivesURL = strings.TrimSuffix(archives, "/")
	}
}

// WithDownloadDir saves downloaded filings under dir/<ticker>/.
func WithDownloadDir(dir string) Option {
	return func(c *Client) { c.downloadDir = dir }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func NewClient(userAgent string, opts ...Option) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	c := &Client{
		userAgent:      userAgent,
		tickersURL:     defaultTickersURL,
		submissionsURL: defaultSubmissionsURL,
		archivesURL:    defaultArchivesURL,
		http:           &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LookupCIK resolves a ticker or numeric CIK to a zero-padded CIK and a
// display ticker. The ticker map is fetched once and cached.
func (c *Client) LookupCIK(ctx context.Context, identifier string) (cik, ticker string, err error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", "", fmt.Errorf("%w: empty identifier", ErrCompanyNotFound)
	}
	if isDigits(identifier) {
		n, err := strconv.Atoi(identifier)
		if err != nil {
			return "", "", fmt.Errorf("%w: %s", ErrCompanyNotFound, identifier)
		}
		return fmt.Sprintf("%010d", n), "CIK" + identifier, nil
	}

	tickers, err := c.tickerMap(ctx)
	if err != nil {
		return "", "", err
	}
	entry, ok := tickers[strings.ToUpper(identifier)]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrCompanyNotFound, identifier)
	}
	return fmt.Sprintf("%010d", entry.CIK), strings.ToUpper(entry.Ticker), nil
}

func (c *Client) tickerMap(ctx context.Context) (map[string]tickerEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tickers != nil {
		return c.tickers, nil
	}

	var raw map[string]tickerEntry
	if err := c.getJSON(ctx, c.tickersURL, &raw); err != nil {
		return nil, fmt.Errorf("fetch ticker mapping: %w", err)
	}
	tickers := make(map[string]tickerEntry, len(raw))
	for _, e := range raw {
		tickers[strings.ToUpper(e.Ticker)] = e
	}
	c.tickers = tickers
	return tickers, nil
}

type submissions struct {
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			FilingDate      []string `json:"filingDate"`
			Form            []string `json:"form"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

// LatestFiling returns the most recent filing of the given form.
func (c *Client) LatestFiling(ctx context.Context, identifier, form string) (*Filing, error) {
	cik, ticker, err := c.LookupCIK(ctx, identifier)
	if err != nil {
		return nil, err
	}

	var sub submissions
	if err := c.getJSON(ctx, fmt.Sprintf("%s/CIK%s.json", c.submissionsURL, cik), &sub); err != nil {
		return nil, fmt.Errorf("fetch submissions for %s: %w", ticker, err)
	}

	recent := sub.Filings.Recent
	want := strings.ToUpper(strings.TrimSpace(form))
	for i, f := range recent.Form {
		if strings.ToUpper(strings.TrimSpace(f)) != want {
			continue
		}
		if i >= len(recent.AccessionNumber) || i >= len(recent.PrimaryDocument) || i >= len(recent.FilingDate) {
			break
		}
		accession := strings.ReplaceAll(recent.AccessionNumber[i], "-", "")
		cikNum, _ := strconv.Atoi(cik)
		return &Filing{
			CIK:             cik,
			Ticker:          ticker,
			Form:            want,
			AccessionNumber: recent.AccessionNumber[i],
			FilingDate:      recent.FilingDate[i],
			PrimaryDocument: recent.PrimaryDocument[i],
			URL:             fmt.Sprintf("%s/%d/%s/%s", c.archivesURL, cikNum, accession, recent.PrimaryDocument[i]),
		}, nil
	}
	return nil, fmt.Errorf("%w: no recent %s for %s", ErrFilingNotFound, form, identifier)
}

// Download fetches the filing's primary document. FormType on the result is
// the normalized filename stem. When a download directory is set the
// document is also saved there.
func (c *Client) Download(ctx context.Context, f *Filing) (filing.RawDocument, error) {
	body, err := c.get(ctx, f.URL, "text/html")
	if err != nil {
		return filing.RawDocument{}, fmt.Errorf("download %s: %w", f.URL, err)
	}

	stem := FileStem(f.Form, f.FilingDate, c.hasFinalProspectus(f.Ticker))
	doc := filing.RawDocument{Locator: f.URL, FormType: stem, Content: body}

	if c.downloadDir != "" {
		dir := filepath.Join(c.downloadDir, f.Ticker)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return doc, fmt.Errorf("create download dir: %w", err)
		}
		path := filepath.Join(dir, stem+".htm")
		if err := os.WriteFile(path, body, 0o644); err != nil {
			return doc, fmt.Errorf("save filing: %w", err)
		}
		doc.Locator = path
	}
	return doc, nil
}

// Fetch is LatestFiling followed by Download.
func (c *Client) Fetch(ctx context.Context, identifier, form string) (filing.RawDocument, *Filing, error) {
	f, err := c.LatestFiling(ctx, identifier, form)
	if err != nil {
		return filing.RawDocument{}, nil, err
	}
	doc, err := c.Download(ctx, f)
	return doc, f, err
}

// FileStem names a saved filing: "s-1", "s-1-a-<date>", "final-prospectus"
// (or "final-prospectus-<date>" when one is already saved) and
// "<form>-<date>" for anything else.
func FileStem(form, date string, haveFinal bool) string {
	switch strings.ToUpper(form) {
	case "S-1":
		return "s-1"
	case "S-1/A":
		return "s-1-a-" + date
	case "424B4":
		if haveFinal {
			return "final-prospectus-" + date
		}
		return "final-prospectus"
	}
	return strings.ReplaceAll(strings.ToLower(form), "/", "-") + "-" + date
}

func (c *Client) hasFinalProspectus(ticker string) bool {
	if c.downloadDir == "" {
		return false
	}
	matches, _ := filepath.Glob(filepath.Join(c.downloadDir, ticker, "final-prospectus*.htm"))
	return len(matches) > 0
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	body, err := c.get(ctx, url, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("EDGAR returned status %d for %s", resp.StatusCode, url)
	}
	return body, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
