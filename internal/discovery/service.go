// Package discovery finds local businesses through the Google Maps Web
// Service and normalizes them into listings the pipeline can enrich.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nextgencrm/prospector/pkg/places"
)

const (
	cacheKindGeocode = "geocode"
	cacheKindSearch  = "search"

	geocodeTTL = 24 * time.Hour
	searchTTL  = time.Hour
)

// Listing is a discovered business in pipeline-neutral form.
type Listing struct {
	PlaceID        string   `json:"place_id"`
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	Street         string   `json:"street,omitempty"`
	City           string   `json:"city,omitempty"`
	PostalCode     string   `json:"postal_code,omitempty"`
	Country        string   `json:"country,omitempty"`
	Phone          string   `json:"phone,omitempty"`
	Website        string   `json:"website,omitempty"`
	Rating         *float64 `json:"rating,omitempty"`
	TotalRatings   int      `json:"total_ratings"`
	BusinessStatus string   `json:"business_status,omitempty"`
	Types          []string `json:"types,omitempty"`
	Category       string   `json:"category"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	GoogleMapsURL  string   `json:"google_maps_url,omitempty"`
}

// Detail is the extended record for a single listing.
type Detail struct {
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	Street         string   `json:"street,omitempty"`
	City           string   `json:"city,omitempty"`
	PostalCode     string   `json:"postal_code,omitempty"`
	Phone          string   `json:"phone,omitempty"`
	Website        string   `json:"website,omitempty"`
	GoogleURL      string   `json:"google_url,omitempty"`
	Rating         *float64 `json:"rating,omitempty"`
	TotalRatings   int      `json:"total_ratings"`
	BusinessStatus string   `json:"business_status,omitempty"`
	Types          []string `json:"types,omitempty"`
	OpeningHours   []string `json:"opening_hours,omitempty"`
}

// SearchRequest parameterizes one business search.
type SearchRequest struct {
	Keyword    string
	Location   string
	Radius     int
	Type       string
	MaxResults int
}

// Cache stores serialized search artifacts between runs. Satisfied by the
// store.
type Cache interface {
	GetCached(ctx context.Context, kind, key string) ([]byte, error)
	SetCached(ctx context.Context, kind, key string, data []byte, ttl time.Duration) error
}

// Config tunes the discovery service.
type Config struct {
	Client places.Client
	Cache  Cache
	// PageDelay is the wait before a next_page_token becomes usable.
	// Google rejects tokens used sooner than about two seconds after issue.
	PageDelay time.Duration
}

// Service discovers businesses for campaign keywords.
type Service struct {
	client    places.Client
	cache     Cache
	pageDelay time.Duration
	log       *zap.Logger
}

// NewService creates a discovery service.
func NewService(cfg Config) *Service {
	delay := cfg.PageDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}
	return &Service{
		client:    cfg.Client,
		cache:     cfg.Cache,
		pageDelay: delay,
		log:       zap.L().With(zap.String("component", "discovery")),
	}
}

// Search geocodes the location and walks the paginated text search until
// MaxResults listings are collected or the results run out.
func (s *Service) Search(ctx context.Context, req SearchRequest) ([]Listing, error) {
	if req.MaxResults <= 0 {
		req.MaxResults = 20
	}

	cacheKey := fmt.Sprintf("%s|%s|%d|%s", req.Keyword, req.Location, req.Radius, req.Type)
	if cached := s.cachedListings(ctx, cacheKey); cached != nil {
		s.log.Debug("search cache hit",
			zap.String("keyword", req.Keyword), zap.String("location", req.Location))
		if len(cached) > req.MaxResults {
			cached = cached[:req.MaxResults]
		}
		return cached, nil
	}

	lat, lng, err := s.geocode(ctx, req.Location)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("%s near %s", req.Keyword, req.Location)
	var listings []Listing
	pageToken := ""

	for len(listings) < req.MaxResults {
		page, err := s.client.TextSearch(ctx, places.TextSearchRequest{
			Query:     query,
			Lat:       lat,
			Lng:       lng,
			Radius:    req.Radius,
			Type:      req.Type,
			PageToken: pageToken,
		})
		if err != nil {
			// Keep whatever earlier pages yielded.
			if len(listings) > 0 {
				s.log.Warn("search page failed, returning partial results",
					zap.Int("collected", len(listings)), zap.Error(err))
				break
			}
			return nil, err
		}

		for _, place := range page.Results {
			if len(listings) >= req.MaxResults {
				break
			}
			listings = append(listings, listingFromPlace(place))
		}

		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
		if err := sleepCtx(ctx, s.pageDelay); err != nil {
			return listings, err
		}
	}

	s.storeListings(ctx, cacheKey, listings)
	s.log.Info("business search finished",
		zap.String("keyword", req.Keyword),
		zap.String("location", req.Location),
		zap.Int("found", len(listings)))
	return listings, nil
}

// Details fetches the extended record for a single place.
func (s *Service) Details(ctx context.Context, placeID string) (*Detail, error) {
	if s.cache != nil {
		if data, err := s.cache.GetCached(ctx, cacheKindSearch, "details|"+placeID); err == nil && data != nil {
			var detail Detail
			if json.Unmarshal(data, &detail) == nil {
				return &detail, nil
			}
		}
	}

	pd, err := s.client.Details(ctx, placeID)
	if err != nil {
		return nil, err
	}

	street, city, postal, _ := ParseCzechAddress(pd.FormattedAddress)
	detail := &Detail{
		Name:           pd.Name,
		Address:        pd.FormattedAddress,
		Street:         street,
		City:           city,
		PostalCode:     postal,
		Phone:          pd.InternationalPhoneNumber,
		Website:        pd.Website,
		GoogleURL:      pd.URL,
		TotalRatings:   pd.UserRatingsTotal,
		BusinessStatus: pd.BusinessStatus,
		Types:          pd.Types,
		OpeningHours:   pd.OpeningHours.WeekdayText,
	}
	if pd.Rating > 0 {
		rating := pd.Rating
		detail.Rating = &rating
	}

	if s.cache != nil {
		if data, err := json.Marshal(detail); err == nil {
			_ = s.cache.SetCached(ctx, cacheKindSearch, "details|"+placeID, data, geocodeTTL)
		}
	}
	return detail, nil
}

func (s *Service) geocode(ctx context.Context, location string) (float64, float64, error) {
	if s.cache != nil {
		if data, err := s.cache.GetCached(ctx, cacheKindGeocode, location); err == nil && data != nil {
			var coords [2]float64
			if json.Unmarshal(data, &coords) == nil {
				return coords[0], coords[1], nil
			}
		}
	}

	lat, lng, err := s.client.Geocode(ctx, location)
	if err != nil {
		return 0, 0, err
	}

	if s.cache != nil {
		if data, err := json.Marshal([2]float64{lat, lng}); err == nil {
			_ = s.cache.SetCached(ctx, cacheKindGeocode, location, data, geocodeTTL)
		}
	}
	return lat, lng, nil
}

func (s *Service) cachedListings(ctx context.Context, key string) []Listing {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.GetCached(ctx, cacheKindSearch, key)
	if err != nil || data == nil {
		return nil
	}
	var listings []Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil
	}
	return listings
}

func (s *Service) storeListings(ctx context.Context, key string, listings []Listing) {
	if s.cache == nil || len(listings) == 0 {
		return
	}
	data, err := json.Marshal(listings)
	if err != nil {
		return
	}
	if err := s.cache.SetCached(ctx, cacheKindSearch, key, data, searchTTL); err != nil {
		s.log.Warn("search cache write failed", zap.Error(err))
	}
}

func listingFromPlace(place places.Place) Listing {
	street, city, postal, country := ParseCzechAddress(place.FormattedAddress)

	listing := Listing{
		PlaceID:        place.PlaceID,
		Name:           place.Name,
		Address:        place.FormattedAddress,
		Street:         street,
		City:           city,
		PostalCode:     postal,
		Country:        country,
		Phone:          place.PhoneNumber,
		Website:        place.Website,
		TotalRatings:   place.UserRatingsTotal,
		BusinessStatus: place.BusinessStatus,
		Types:          place.Types,
		Category:       Categorize(place.Types),
		GoogleMapsURL:  "https://maps.google.com/?cid=" + place.PlaceID,
	}
	if place.Rating > 0 {
		rating := place.Rating
		listing.Rating = &rating
	}
	if place.Geometry.Location.Lat != 0 || place.Geometry.Location.Lng != 0 {
		lat, lng := place.Geometry.Location.Lat, place.Geometry.Location.Lng
		listing.Latitude = &lat
		listing.Longitude = &lng
	}
	return listing
}

// ParseCzechAddress splits a formatted address into street, city, postal
// code and country. The last comma-separated part is the country and the
// part before it usually carries "PSC City".
func ParseCzechAddress(formatted string) (street, city, postal, country string) {
	if formatted == "" {
		return "", "", "", ""
	}
	parts := strings.Split(formatted, ", ")
	if len(parts) >= 2 {
		if len(parts) >= 3 {
			postalCity := parts[len(parts)-2]
			fields := strings.Fields(postalCity)
			if len(fields) >= 2 && isDigits(fields[0]) {
				postal = fields[0]
				city = strings.Join(fields[1:], " ")
			} else {
				city = postalCity
			}
		}
		street = parts[0]
	}
	if strings.Contains(formatted, "Czech") || strings.Contains(formatted, "Česk") {
		country = "Czech Republic"
	}
	return street, city, postal, country
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
