// Package registry enriches prospects from the Czech ARES business
// registry.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/nextgencrm/prospector/internal/resilience"
	"github.com/nextgencrm/prospector/pkg/ares"
)

const (
	cacheKind = "registry"
	cacheTTL  = 24 * time.Hour

	maxActivities = 10
)

// ceoTitles mark a representative as the primary contact.
var ceoTitles = []string{"jednatel", "ředitel", "předseda", "ceo"}

// Enrichment is the partial-update result of one registry lookup.
type Enrichment struct {
	ICO              string           `json:"ico"`
	CompanyName      string           `json:"company_name"`
	LegalForm        string           `json:"legal_form,omitempty"`
	LegalFormCode    string           `json:"legal_form_code,omitempty"`
	TaxID            string           `json:"tax_id,omitempty"`
	RegistrationDate string           `json:"registration_date,omitempty"`
	Street           string           `json:"street,omitempty"`
	City             string           `json:"city,omitempty"`
	State            string           `json:"state,omitempty"`
	PostalCode       string           `json:"postal_code,omitempty"`
	Country          string           `json:"country,omitempty"`
	Industry         string           `json:"industry,omitempty"`
	Activities       []Activity       `json:"activities,omitempty"`
	Registrations    []string         `json:"registrations,omitempty"`
	CEOName          string           `json:"ceo_name,omitempty"`
	Management       []Representative `json:"management,omitempty"`
}

// Activity is one NACE-coded business activity.
type Activity struct {
	NACECode    string `json:"nace_code"`
	Description string `json:"description"`
}

// Representative is a statutory representative from the public register.
type Representative struct {
	Name     string `json:"name"`
	Position string `json:"position"`
}

// Cache stores serialized enrichments between runs. Satisfied by the store.
type Cache interface {
	GetCached(ctx context.Context, kind, key string) ([]byte, error)
	SetCached(ctx context.Context, kind, key string, data []byte, ttl time.Duration) error
}

// Config tunes the registry service.
type Config struct {
	Client     ares.Client
	Cache      Cache
	MaxRetries int
}

// Service looks up and normalizes ARES registry records.
type Service struct {
	client ares.Client
	cache  Cache
	retry  resilience.RetryConfig
	log    *zap.Logger
}

// NewService creates a registry enrichment service.
func NewService(cfg Config) *Service {
	retry := resilience.DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxAttempts = cfg.MaxRetries
	}
	retry.OnRetry = resilience.RetryLogger("registry", "lookup")

	return &Service{
		client: cfg.Client,
		cache:  cfg.Cache,
		retry:  retry,
		log:    zap.L().With(zap.String("component", "registry")),
	}
}

// Lookup fetches and normalizes the registry record for an ICO. The
// public-register read is best effort; a subject without a VR entry still
// yields a full enrichment.
func (s *Service) Lookup(ctx context.Context, ico string) (*Enrichment, error) {
	ico = strings.TrimSpace(ico)
	if !ares.ValidICO(ico) {
		return nil, eris.Errorf("registry: invalid ICO %q", ico)
	}

	if cached := s.cachedEnrichment(ctx, ico); cached != nil {
		s.log.Debug("registry cache hit", zap.String("ico", ico))
		return cached, nil
	}

	subject, err := resilience.DoVal(ctx, s.retry, func(ctx context.Context) (*ares.SubjectResponse, error) {
		return s.client.Subject(ctx, ico)
	})
	if err != nil {
		return nil, err
	}

	enrichment := enrichmentFromSubject(subject)

	if vr, err := s.client.PublicRegister(ctx, ico); err == nil {
		applyPublicRegister(enrichment, vr)
	} else if !eris.Is(err, ares.ErrNotFound) {
		s.log.Warn("public register lookup failed", zap.String("ico", ico), zap.Error(err))
	}

	s.storeEnrichment(ctx, ico, enrichment)
	return enrichment, nil
}

func enrichmentFromSubject(subject *ares.SubjectResponse) *Enrichment {
	e := &Enrichment{
		ICO:           subject.ICO,
		CompanyName:   subject.ObchodniJmeno,
		LegalFormCode: subject.PravniForma,
		TaxID:         subject.DIC,
	}
	if subject.PravniForma != "" {
		e.LegalForm = ares.LegalFormName(subject.PravniForma)
	}
	if subject.DatumVzniku != "" {
		if t, err := time.Parse("2006-01-02", subject.DatumVzniku); err == nil {
			e.RegistrationDate = t.Format(time.RFC3339)
		}
	}

	if sidlo := subject.Sidlo; sidlo != nil {
		var streetParts []string
		if sidlo.NazevUlice != "" {
			streetParts = append(streetParts, sidlo.NazevUlice)
		}
		if sidlo.CisloDomovni != 0 {
			streetParts = append(streetParts, fmt.Sprintf("%d", sidlo.CisloDomovni))
		}
		if sidlo.CisloOrientacni != 0 {
			streetParts = append(streetParts, fmt.Sprintf("/%d", sidlo.CisloOrientacni))
		}
		e.Street = strings.Join(streetParts, " ")
		e.City = sidlo.NazevObce
		if sidlo.PSC != 0 {
			e.PostalCode = fmt.Sprintf("%d", sidlo.PSC)
		}
		if sidlo.NazevOkresu != "" {
			e.State = sidlo.NazevOkresu
		} else {
			e.State = sidlo.NazevKraje
		}
		e.Country = "Czech Republic"
	}

	for i, code := range subject.CzNace {
		if i >= maxActivities {
			break
		}
		e.Activities = append(e.Activities, Activity{
			NACECode:    code,
			Description: ares.NACEDescription(code),
		})
	}
	if len(e.Activities) > 0 {
		e.Industry = e.Activities[0].Description
	}

	for key, value := range subject.SeznamRegistraci {
		if str, ok := value.(string); ok && str == "AKTIVNI" {
			name := strings.ToUpper(strings.TrimPrefix(key, "stavZdroje"))
			e.Registrations = append(e.Registrations, name)
		}
	}

	return e
}

func applyPublicRegister(e *Enrichment, vr *ares.PublicRegisterResponse) {
	for _, rep := range vr.ZapisVr.ZakonniZastupci {
		if rep.Jmeno == "" && rep.Funkce == "" {
			continue
		}
		e.Management = append(e.Management, Representative{
			Name:     rep.Jmeno,
			Position: rep.Funkce,
		})
	}

	for _, rep := range e.Management {
		position := strings.ToLower(rep.Position)
		for _, title := range ceoTitles {
			if strings.Contains(position, title) {
				e.CEOName = rep.Name
				return
			}
		}
	}
}

func (s *Service) cachedEnrichment(ctx context.Context, ico string) *Enrichment {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.GetCached(ctx, cacheKind, ico)
	if err != nil || data == nil {
		return nil
	}
	var e Enrichment
	if err := json.Unmarshal(data, &e); err != nil {
		return nil
	}
	return &e
}

func (s *Service) storeEnrichment(ctx context.Context, ico string, e *Enrichment) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := s.cache.SetCached(ctx, cacheKind, ico, data, cacheTTL); err != nil {
		s.log.Warn("registry cache write failed", zap.String("ico", ico), zap.Error(err))
	}
}
