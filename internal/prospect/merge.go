package prospect

import (
	"strings"
	"time"

	"github.com/nextgencrm/prospector/internal/discovery"
	"github.com/nextgencrm/prospector/internal/registry"
	"github.com/nextgencrm/prospector/internal/webscrape"
)

// genericEmailPrefixes are role addresses deprioritized when picking a
// primary contact email.
var genericEmailPrefixes = []string{"info@", "contact@", "admin@"}

// FromListing builds a draft record from a discovered business listing.
func FromListing(l discovery.Listing, keyword, location string, now time.Time) *ProspectRecord {
	r := NewDraft(l.Name, now)
	r.Website = l.Website
	r.Phone = l.Phone
	r.Location = l.Address
	r.Street = l.Street
	r.City = l.City
	r.ZipCode = l.PostalCode
	if l.Country != "" {
		r.Country = l.Country
	}
	r.Industry = l.Category
	r.PlaceID = l.PlaceID
	r.Rating = l.Rating
	if l.TotalRatings > 0 {
		count := l.TotalRatings
		r.RatingCount = &count
	}
	r.Latitude = l.Latitude
	r.Longitude = l.Longitude
	r.Keyword = keyword
	r.SearchLocation = location
	return r
}

// ApplyRegistry folds a registry enrichment into the record. Company name
// and address come from the registry verbatim; optional fields only fill
// gaps so earlier sources are not clobbered.
func ApplyRegistry(r *ProspectRecord, e *registry.Enrichment, now time.Time) {
	if e == nil {
		return
	}

	if e.CompanyName != "" {
		r.CompanyName = e.CompanyName
	}
	if e.Street != "" {
		r.Street = e.Street
	}
	if e.City != "" {
		r.City = e.City
	}
	if e.State != "" {
		r.State = e.State
	}
	if e.PostalCode != "" {
		r.ZipCode = e.PostalCode
	}
	if e.Country != "" {
		r.Country = e.Country
	}
	if e.Industry != "" {
		r.Industry = e.Industry
	}

	if r.ICO == "" {
		r.ICO = e.ICO
	}
	if r.DIC == "" {
		r.DIC = e.TaxID
	}
	if r.LegalForm == "" {
		r.LegalForm = e.LegalForm
	}
	if r.LegalFormCode == "" {
		r.LegalFormCode = e.LegalFormCode
	}
	if r.FoundedDate == "" {
		r.FoundedDate = e.RegistrationDate
	}
	if len(e.Activities) > 0 {
		r.Activities = r.Activities[:0]
		for _, a := range e.Activities {
			r.Activities = append(r.Activities, Activity{Code: a.NACECode, Description: a.Description})
		}
	}

	if r.FirstName == "" && r.LastName == "" && e.CEOName != "" {
		first, last := splitName(e.CEOName)
		r.FirstName = first
		r.LastName = last
		for _, rep := range e.Management {
			if rep.Name == e.CEOName {
				if r.ContactTitle == "" {
					r.ContactTitle = rep.Position
				}
				break
			}
		}
	}
	for _, rep := range e.Management {
		addContact(r, Contact{Name: rep.Name, Position: rep.Position, Source: SourceRegistry})
	}

	r.IcoEnriched = true
	enrichedAt := now
	r.IcoEnrichedAt = &enrichedAt
}

// ApplyWebsite folds a website analysis into the record. Fields only fill
// gaps; an inaccessible analysis changes nothing.
func ApplyWebsite(r *ProspectRecord, a *webscrape.Analysis) {
	if a == nil || !a.Accessible {
		return
	}

	if r.Email == "" {
		r.Email = PickEmail(a.Emails)
	}
	if r.Phone == "" && len(a.Phones) > 0 {
		r.Phone = a.Phones[0]
	}
	if r.Description == "" {
		r.Description = a.Description
	}
	if r.ICO == "" {
		r.ICO = a.ICO
	}
	if r.DIC == "" {
		r.DIC = a.DIC
	}

	if r.FirstName == "" && r.LastName == "" && len(a.Personnel) > 0 {
		top := a.Personnel[0]
		first, last := splitName(top.Name)
		r.FirstName = first
		r.LastName = last
		if r.ContactTitle == "" {
			r.ContactTitle = top.Title
		}
	}
	for _, p := range a.Personnel {
		addContact(r, Contact{Name: p.Name, Position: p.Title, Source: SourceWebsite})
	}
}

// PickEmail selects a primary contact email, preferring personal mailboxes
// over role addresses.
func PickEmail(emails []string) string {
	if len(emails) == 0 {
		return ""
	}
	for _, email := range emails {
		lower := strings.ToLower(email)
		generic := false
		for _, prefix := range genericEmailPrefixes {
			if strings.Contains(lower, prefix) {
				generic = true
				break
			}
		}
		if !generic {
			return email
		}
	}
	return emails[0]
}

// splitName splits a display name into first and last. A single-word name
// lands in LastName untouched.
func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) >= 2 {
		return parts[0], strings.Join(parts[1:], " ")
	}
	return "", name
}

func addContact(r *ProspectRecord, c Contact) {
	if c.Name == "" {
		return
	}
	if c.Name == r.FullName() {
		return
	}
	for _, existing := range r.AdditionalContacts {
		if strings.EqualFold(existing.Name, c.Name) {
			return
		}
	}
	r.AdditionalContacts = append(r.AdditionalContacts, c)
}
