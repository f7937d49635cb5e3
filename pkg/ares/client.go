// Package ares is a client for the Czech ARES business registry REST API
// (ekonomicke-subjekty v3).
package ares

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://ares.gov.cz/ekonomicke-subjekty-v-be/rest"

// ErrNotFound is returned when the registry has no record for the ICO.
var ErrNotFound = eris.New("ares: subject not found")

// Client performs ARES registry lookups.
type Client interface {
	// Subject fetches the economic-subject record for an ICO.
	Subject(ctx context.Context, ico string) (*SubjectResponse, error)
	// PublicRegister fetches the public-register (VR) record, which carries
	// statutory representatives. Not every subject has one.
	PublicRegister(ctx context.Context, ico string) (*PublicRegisterResponse, error)
}

// SubjectResponse is the economic-subject payload.
type SubjectResponse struct {
	ICO              string         `json:"ico"`
	ObchodniJmeno    string         `json:"obchodniJmeno"`
	PravniForma      string         `json:"pravniForma"`
	DIC              string         `json:"dic"`
	DatumVzniku      string         `json:"datumVzniku"`
	Sidlo            *Sidlo         `json:"sidlo"`
	CzNace           []string       `json:"czNace"`
	SeznamRegistraci map[string]any `json:"seznamRegistraci"`
}

// Sidlo is the registered-office address.
type Sidlo struct {
	NazevUlice      string `json:"nazevUlice"`
	CisloDomovni    int    `json:"cisloDomovni"`
	CisloOrientacni int    `json:"cisloOrientacni"`
	NazevObce       string `json:"nazevObce"`
	PSC             int    `json:"psc"`
	NazevOkresu     string `json:"nazevOkresu"`
	NazevKraje      string `json:"nazevKraje"`
}

// PublicRegisterResponse is the VR payload, reduced to the parts we read.
type PublicRegisterResponse struct {
	ICO     string   `json:"ico"`
	ZapisVr VRRecord `json:"zapisVr"`
}

// VRRecord is the public-register entry carrying statutory representatives.
type VRRecord struct {
	ZakonniZastupci []Representative `json:"zakonniZastupci"`
}

// Representative is a statutory representative of the subject. Jmeno is the
// full display name as registered.
type Representative struct {
	Jmeno  string `json:"jmeno"`
	Funkce string `json:"funkce"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an ARES registry client. The API requires no key.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Subject(ctx context.Context, ico string) (*SubjectResponse, error) {
	body, err := c.get(ctx, c.baseURL+"/ekonomicke-subjekty/"+ico)
	if err != nil {
		return nil, err
	}

	var result SubjectResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "ares: unmarshal subject")
	}
	return &result, nil
}

func (c *httpClient) PublicRegister(ctx context.Context, ico string) (*PublicRegisterResponse, error) {
	body, err := c.get(ctx, c.baseURL+"/ekonomicke-subjekty-vr/"+ico)
	if err != nil {
		return nil, err
	}

	var result PublicRegisterResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "ares: unmarshal public register")
	}
	return &result, nil
}

func (c *httpClient) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "ares: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "ares: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "ares: read response")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, eris.Errorf("ares: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
