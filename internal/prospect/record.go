// Package prospect defines the record type carried through the enrichment
// pipeline and its outreach sequence state machine.
package prospect

import (
	"time"

	"github.com/google/uuid"
)

// ProspectRecord is the unit the pipeline manipulates. Created from a
// discovery listing, mutated by each enrichment stage, then dropped or
// handed to the store.
type ProspectRecord struct { //nolint:revive // stutters but widely used across codebase
	ID          string `json:"id" db:"id"`
	CompanyName string `json:"company_name" db:"company_name"`
	Website     string `json:"website,omitempty" db:"website"`
	Description string `json:"description,omitempty" db:"description"`
	Industry    string `json:"industry,omitempty" db:"industry"`
	Location    string `json:"location,omitempty" db:"location"`

	// National registry identifiers
	ICO string `json:"ico,omitempty" db:"ico"`
	DIC string `json:"dic,omitempty" db:"dic"`

	// Primary contact
	FirstName    string `json:"first_name,omitempty" db:"first_name"`
	LastName     string `json:"last_name,omitempty" db:"last_name"`
	ContactTitle string `json:"contact_title,omitempty" db:"contact_title"`
	Email        string `json:"email,omitempty" db:"email"`
	Phone        string `json:"phone,omitempty" db:"phone"`

	// Additional people found on the website or in the public register.
	AdditionalContacts []Contact `json:"additional_contacts,omitempty" db:"-"`

	// Discovery provenance
	Keyword        string   `json:"keyword,omitempty" db:"keyword"`
	SearchLocation string   `json:"search_location,omitempty" db:"search_location"`
	CampaignTag    string   `json:"campaign_tag,omitempty" db:"campaign_tag"`
	PlaceID        string   `json:"place_id,omitempty" db:"place_id"`
	Rating         *float64 `json:"rating,omitempty" db:"rating"`
	RatingCount    *int     `json:"rating_count,omitempty" db:"rating_count"`
	Latitude       *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude      *float64 `json:"longitude,omitempty" db:"longitude"`

	// Structured address (registry is authoritative when enriched)
	Street  string `json:"street,omitempty" db:"street"`
	City    string `json:"city,omitempty" db:"city"`
	State   string `json:"state,omitempty" db:"state"`
	ZipCode string `json:"zip_code,omitempty" db:"zip_code"`
	Country string `json:"country,omitempty" db:"country"`

	// Registry enrichment
	LegalForm     string     `json:"legal_form,omitempty" db:"legal_form"`
	LegalFormCode string     `json:"legal_form_code,omitempty" db:"legal_form_code"`
	FoundedDate   string     `json:"founded_date,omitempty" db:"founded_date"`
	Activities    []Activity `json:"activities,omitempty" db:"-"`
	IcoEnriched   bool       `json:"ico_enriched" db:"ico_enriched"`
	IcoEnrichedAt *time.Time `json:"ico_enriched_at,omitempty" db:"ico_enriched_at"`

	// AI quality assessment
	QualityScore     *int     `json:"quality_score,omitempty" db:"quality_score"`
	ValidationStatus string   `json:"validation_status,omitempty" db:"validation_status"`
	AIAnalyzed       bool     `json:"ai_analyzed" db:"ai_analyzed"`
	TargetPersona    string   `json:"target_persona,omitempty" db:"target_persona"`
	Recommendations  []string `json:"recommendations,omitempty" db:"-"`
	Summary          string   `json:"summary,omitempty" db:"summary"`

	// Outreach sequence
	Status             string     `json:"status" db:"status"`
	SequencePosition   int        `json:"sequence_position" db:"sequence_position"`
	NextFollowupDate   *time.Time `json:"next_followup_date,omitempty" db:"next_followup_date"`
	LastMessageSubject string     `json:"last_message_subject,omitempty" db:"last_message_subject"`
	LastMessageBody    string     `json:"last_message_body,omitempty" db:"last_message_body"`
	Validated          bool       `json:"validated" db:"validated"`
	ValidationNotes    string     `json:"validation_notes,omitempty" db:"validation_notes"`
	Responded          bool       `json:"responded" db:"responded"`
	RespondedAt        *time.Time `json:"responded_at,omitempty" db:"responded_at"`

	// Conversion linkage into the surrounding CRM
	ConvertedLeadID    string `json:"converted_lead_id,omitempty" db:"converted_lead_id"`
	ConvertedContactID string `json:"converted_contact_id,omitempty" db:"converted_contact_id"`
	ConvertedOrgID     string `json:"converted_org_id,omitempty" db:"converted_org_id"`

	Deleted   bool      `json:"-" db:"deleted"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Contact is a person associated with a prospect.
type Contact struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Source   string `json:"source,omitempty"`
}

// Activity is a NACE-style business activity entry.
type Activity struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Outreach statuses.
const (
	StatusNew          = "new"
	StatusSent         = "sent"
	StatusFollowUp1    = "follow_up_1"
	StatusFollowUp2    = "follow_up_2"
	StatusFollowUp3    = "follow_up_3"
	StatusResponded    = "responded"
	StatusConverted    = "converted"
	StatusDead         = "dead"
	StatusDisqualified = "disqualified"
)

// Contact sources.
const (
	SourceWebsite  = "website"
	SourceRegistry = "registry"
)

// NewDraft creates a fresh record for a discovered business.
func NewDraft(companyName string, now time.Time) *ProspectRecord {
	return &ProspectRecord{
		ID:          uuid.NewString(),
		CompanyName: companyName,
		Status:      StatusNew,
		Country:     "Czech Republic",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// HasEmail reports whether the record carries a usable email address.
func (r *ProspectRecord) HasEmail() bool {
	return r.Email != ""
}

// FullName returns the primary contact's full name, if any.
func (r *ProspectRecord) FullName() string {
	switch {
	case r.FirstName != "" && r.LastName != "":
		return r.FirstName + " " + r.LastName
	case r.FirstName != "":
		return r.FirstName
	default:
		return r.LastName
	}
}
