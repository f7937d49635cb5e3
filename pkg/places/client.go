// Package places is a client for the Google Maps Web Service APIs
// (geocoding, place text search, place details).
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api"

// ErrZeroResults is returned when the API finds nothing for the query.
var ErrZeroResults = eris.New("places: zero results")

// Client performs Google Maps Web Service operations.
type Client interface {
	// Geocode resolves a free-text address to coordinates.
	Geocode(ctx context.Context, address string) (lat, lng float64, err error)
	// TextSearch runs one page of a place text search. Pass the previous
	// response's NextPageToken to fetch the following page.
	TextSearch(ctx context.Context, req TextSearchRequest) (*TextSearchResponse, error)
	// Details fetches extended information for a single place.
	Details(ctx context.Context, placeID string) (*PlaceDetails, error)
}

// TextSearchRequest parameterizes one text-search page.
type TextSearchRequest struct {
	Query     string
	Lat       float64
	Lng       float64
	Radius    int
	Type      string
	PageToken string
}

// TextSearchResponse is one page of search results.
type TextSearchResponse struct {
	Results       []Place `json:"results"`
	NextPageToken string  `json:"next_page_token"`
	Status        string  `json:"status"`
	ErrorMessage  string  `json:"error_message"`
}

// Place is a single search result.
type Place struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Geometry         Geometry `json:"geometry"`
	Types            []string `json:"types"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	BusinessStatus   string   `json:"business_status"`
	Website          string   `json:"website"`
	PhoneNumber      string   `json:"formatted_phone_number"`
}

// Geometry holds a place's coordinates.
type Geometry struct {
	Location LatLng `json:"location"`
}

// LatLng is a coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PlaceDetails is the extended record for a single place.
type PlaceDetails struct {
	Name                     string       `json:"name"`
	FormattedAddress         string       `json:"formatted_address"`
	InternationalPhoneNumber string       `json:"international_phone_number"`
	Website                  string       `json:"website"`
	URL                      string       `json:"url"`
	BusinessStatus           string       `json:"business_status"`
	Rating                   float64      `json:"rating"`
	UserRatingsTotal         int          `json:"user_ratings_total"`
	Types                    []string     `json:"types"`
	Geometry                 Geometry     `json:"geometry"`
	Vicinity                 string       `json:"vicinity"`
	OpeningHours             OpeningHours `json:"opening_hours"`
}

// OpeningHours carries the human-readable schedule.
type OpeningHours struct {
	WeekdayText []string `json:"weekday_text"`
}

type geocodeResponse struct {
	Results []struct {
		Geometry Geometry `json:"geometry"`
	} `json:"results"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

type detailsResponse struct {
	Result       PlaceDetails `json:"result"`
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message"`
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
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Google Maps Web Service client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Geocode(ctx context.Context, address string) (float64, float64, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("address", address)

	var result geocodeResponse
	if err := c.get(ctx, "/geocode/json", q, &result); err != nil {
		return 0, 0, err
	}

	if result.Status == "ZERO_RESULTS" || len(result.Results) == 0 {
		return 0, 0, ErrZeroResults
	}
	if result.Status != "OK" {
		return 0, 0, eris.Errorf("places: geocode status %s: %s", result.Status, result.ErrorMessage)
	}

	loc := result.Results[0].Geometry.Location
	return loc.Lat, loc.Lng, nil
}

func (c *httpClient) TextSearch(ctx context.Context, req TextSearchRequest) (*TextSearchResponse, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("query", req.Query)
	q.Set("location", fmt.Sprintf("%f,%f", req.Lat, req.Lng))
	q.Set("radius", fmt.Sprintf("%d", req.Radius))
	if req.Type != "" {
		q.Set("type", req.Type)
	}
	if req.PageToken != "" {
		q.Set("pagetoken", req.PageToken)
	}

	var result TextSearchResponse
	if err := c.get(ctx, "/place/textsearch/json", q, &result); err != nil {
		return nil, err
	}

	if result.Status == "ZERO_RESULTS" {
		return &result, nil
	}
	if result.Status != "OK" {
		return nil, eris.Errorf("places: search status %s: %s", result.Status, result.ErrorMessage)
	}

	return &result, nil
}

func (c *httpClient) Details(ctx context.Context, placeID string) (*PlaceDetails, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("place_id", placeID)

	var result detailsResponse
	if err := c.get(ctx, "/place/details/json", q, &result); err != nil {
		return nil, err
	}

	if result.Status != "OK" {
		return nil, eris.Errorf("places: details status %s: %s", result.Status, result.ErrorMessage)
	}

	return &result.Result, nil
}

func (c *httpClient) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "places: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "places: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("places: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "places: unmarshal response")
	}

	return nil
}
