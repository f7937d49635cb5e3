// Package webscrape extracts contact and business information from company
// websites.
package webscrape

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/nextgencrm/prospector/internal/resilience"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	maxBodyBytes = 1 << 20
	maxEmails    = 5
	maxPhones    = 3
	maxAddresses = 3
	maxServices  = 10
	maxTeamPages = 3
	maxPersonnel = 5
)

// Analysis is the partial-update result of analyzing one website.
type Analysis struct {
	URL        string `json:"url"`
	Accessible bool   `json:"accessible"`
	Error      string `json:"error,omitempty"`

	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Language    string `json:"language,omitempty"`

	Emails    []string `json:"emails,omitempty"`
	Phones    []string `json:"phones,omitempty"`
	Addresses []string `json:"addresses,omitempty"`

	ICO          string `json:"ico,omitempty"`
	DIC          string `json:"dic,omitempty"`
	Registration string `json:"registration,omitempty"`

	Services     []string          `json:"services,omitempty"`
	SocialMedia  map[string]string `json:"social_media,omitempty"`
	Technologies []string          `json:"technologies,omitempty"`

	WordCount       int    `json:"word_count"`
	HasContactInfo  bool   `json:"has_contact_info"`
	HasBusinessInfo bool   `json:"has_business_info"`
	ContentLanguage string `json:"content_language,omitempty"`

	Personnel []Person `json:"personnel,omitempty"`
}

// Person is a key person found on the website.
type Person struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Source string `json:"source"`
}

// Cache stores serialized analyses between runs. Satisfied by the store.
type Cache interface {
	GetCached(ctx context.Context, kind, key string) ([]byte, error)
	SetCached(ctx context.Context, kind, key string, data []byte, ttl time.Duration) error
}

// cacheKind matches the store's website cache bucket.
const cacheKind = "website"

// Config tunes the analyzer.
type Config struct {
	HTTPClient *http.Client
	Cache      Cache
	CacheTTL   time.Duration
	MaxRetries int
}

// Analyzer fetches and dissects company websites.
type Analyzer struct {
	http     *http.Client
	cache    Cache
	cacheTTL time.Duration
	retry    resilience.RetryConfig
	log      *zap.Logger
}

// NewAnalyzer creates a website analyzer.
func NewAnalyzer(cfg Config) *Analyzer {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	retry := resilience.DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxAttempts = cfg.MaxRetries
	}
	retry.OnRetry = resilience.RetryLogger("webscrape", "fetch")

	return &Analyzer{
		http:     hc,
		cache:    cfg.Cache,
		cacheTTL: ttl,
		retry:    retry,
		log:      zap.L().With(zap.String("component", "webscrape")),
	}
}

// Analyze runs the full website analysis. Unreachable or non-HTML sites
// yield an inaccessible result, not an error.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) *Analysis {
	if rawURL == "" {
		return &Analysis{Accessible: false, Error: "empty url"}
	}
	pageURL := normalizeURL(rawURL)

	if cached := a.cachedAnalysis(ctx, pageURL); cached != nil {
		a.log.Debug("website analysis cache hit", zap.String("url", pageURL))
		return cached
	}

	doc, err := a.fetch(ctx, pageURL)
	if err != nil {
		a.log.Warn("website fetch failed", zap.String("url", pageURL), zap.Error(err))
		return &Analysis{URL: pageURL, Accessible: false, Error: err.Error()}
	}

	analysis := a.analyzeDocument(doc, pageURL)

	// Contact details are often tucked away on a dedicated page.
	if contactURL := findContactPage(doc, pageURL); contactURL != "" && contactURL != pageURL {
		if contactDoc, err := a.fetch(ctx, contactURL); err == nil {
			mergeContactInfo(analysis, contactDoc)
		}
	}

	// Team and about pages tend to name the people running the place.
	for _, teamURL := range findTeamPages(doc, pageURL) {
		if teamURL == pageURL {
			continue
		}
		if teamDoc, err := a.fetch(ctx, teamURL); err == nil {
			analysis.Personnel = append(analysis.Personnel, extractPersonnel(teamDoc)...)
		}
	}
	analysis.Personnel = rankPersonnel(analysis.Personnel)

	a.storeAnalysis(ctx, pageURL, analysis)
	return analysis
}

// FindPersonnel returns ranked key people for a site without the full analysis.
func (a *Analyzer) FindPersonnel(ctx context.Context, rawURL string) ([]Person, error) {
	pageURL := normalizeURL(rawURL)
	doc, err := a.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	people := extractPersonnel(doc)
	for _, teamURL := range findTeamPages(doc, pageURL) {
		if teamURL == pageURL {
			continue
		}
		if teamDoc, err := a.fetch(ctx, teamURL); err == nil {
			people = append(people, extractPersonnel(teamDoc)...)
		}
	}
	return rankPersonnel(people), nil
}

func (a *Analyzer) analyzeDocument(doc *goquery.Document, pageURL string) *Analysis {
	text := doc.Text()

	analysis := &Analysis{
		URL:         pageURL,
		Accessible:  true,
		Title:       extractTitle(doc),
		Description: extractDescription(doc),
		Language:    detectLanguage(doc),
	}

	analysis.Emails, analysis.Phones, analysis.Addresses = extractContactInfo(text)
	analysis.ICO, analysis.DIC, analysis.Registration = extractBusinessInfo(text)
	analysis.Services = extractServices(doc)
	analysis.SocialMedia = extractSocialMedia(doc)
	analysis.Technologies = detectTechnologies(doc)
	analysis.Personnel = extractPersonnel(doc)

	analysis.WordCount = len(strings.Fields(text))
	analysis.HasContactInfo = contactInfoRe.MatchString(text)
	analysis.HasBusinessInfo = businessInfoRe.MatchString(text)
	if czechLettersRe.MatchString(text) {
		analysis.ContentLanguage = "czech"
	} else {
		analysis.ContentLanguage = "other"
	}

	return analysis
}

func (a *Analyzer) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	return resilience.DoVal(ctx, a.retry, func(ctx context.Context) (*goquery.Document, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "webscrape: create request")
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "cs,en-US;q=0.7,en;q=0.3")

		resp, err := a.http.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "webscrape: fetch")
		}
		defer resp.Body.Close() //nolint:errcheck

		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(
				eris.Errorf("webscrape: status %d", resp.StatusCode), resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return nil, eris.Errorf("webscrape: status %d", resp.StatusCode)
		}

		contentType := strings.ToLower(resp.Header.Get("Content-Type"))
		if !strings.Contains(contentType, "text/html") {
			return nil, eris.Errorf("webscrape: non-HTML content type %q", contentType)
		}

		doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, eris.Wrap(err, "webscrape: parse HTML")
		}
		return doc, nil
	})
}

func (a *Analyzer) cachedAnalysis(ctx context.Context, pageURL string) *Analysis {
	if a.cache == nil {
		return nil
	}
	data, err := a.cache.GetCached(ctx, cacheKind, pageURL)
	if err != nil || data == nil {
		return nil
	}
	var analysis Analysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		return nil
	}
	return &analysis
}

func (a *Analyzer) storeAnalysis(ctx context.Context, pageURL string, analysis *Analysis) {
	if a.cache == nil {
		return
	}
	data, err := json.Marshal(analysis)
	if err != nil {
		return
	}
	if err := a.cache.SetCached(ctx, cacheKind, pageURL, data, a.cacheTTL); err != nil {
		a.log.Warn("website cache write failed", zap.String("url", pageURL), zap.Error(err))
	}
}

// mergeContactInfo folds contact-page findings into the analysis, preferring
// the dedicated page's data and re-applying the caps.
func mergeContactInfo(analysis *Analysis, doc *goquery.Document) {
	emails, phones, addresses := extractContactInfo(doc.Text())
	analysis.Emails = capUnique(append(emails, analysis.Emails...), maxEmails)
	analysis.Phones = capUnique(append(phones, analysis.Phones...), maxPhones)
	analysis.Addresses = capUnique(append(addresses, analysis.Addresses...), maxAddresses)

	ico, dic, reg := extractBusinessInfo(doc.Text())
	if analysis.ICO == "" {
		analysis.ICO = ico
	}
	if analysis.DIC == "" {
		analysis.DIC = dic
	}
	if analysis.Registration == "" {
		analysis.Registration = reg
	}
}

func normalizeURL(rawURL string) string {
	if strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://") {
		return rawURL
	}
	return "https://" + rawURL
}

func capUnique(items []string, limit int) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, limit)
	for _, item := range items {
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
		if len(out) >= limit {
			break
		}
	}
	return out
}
