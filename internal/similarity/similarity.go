// Package similarity scores how alike two prospect records are, per field and
// as a weighted aggregate in [0,1].
package similarity

import (
	"strings"

	"github.com/agext/levenshtein"

	"github.com/nextgencrm/prospector/internal/prospect"
)

// Aggregate weights. Registry ID and website are additive bonuses: strong
// signals when present but too often missing to dilute the base average.
const (
	weightEmail   = 0.4
	weightCompany = 0.3
	weightPhone   = 0.15
	weightAddress = 0.15
	weightICO     = 0.3
	weightWebsite = 0.2
)

// substringFloor is the minimum score when one normalized string contains
// the other.
const substringFloor = 0.8

// String compares two free-text strings after normalization. Exact match
// scores 1.0, containment floors at 0.8, otherwise an edit-distance ratio.
func String(a, b string) float64 {
	na := FoldDiacritics(NormalizeCompanyName(a))
	nb := FoldDiacritics(NormalizeCompanyName(b))
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	ratio := levenshtein.Similarity(na, nb, nil)
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		if ratio < substringFloor {
			return substringFloor
		}
	}
	return ratio
}

// Email compares two email addresses. Exact case-insensitive match scores
// 1.0, a shared domain 0.8, anything else 0.
func Email(a, b string) float64 {
	la := strings.ToLower(strings.TrimSpace(a))
	lb := strings.ToLower(strings.TrimSpace(b))
	if la == "" || lb == "" {
		return 0
	}
	if la == lb {
		return 1
	}
	if da, db := emailDomain(la), emailDomain(lb); da != "" && da == db {
		return 0.8
	}
	return 0
}

// Phone compares two phone numbers after normalization. Exact match scores
// 1.0; containment with at least 7 digits on both sides scores 0.9.
func Phone(a, b string) float64 {
	na := NormalizePhone(a)
	nb := NormalizePhone(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	if digitCount(na) >= 7 && digitCount(nb) >= 7 &&
		(strings.Contains(na, nb) || strings.Contains(nb, na)) {
		return 0.9
	}
	return 0
}

// Website compares two website URLs. Exact match after stripping protocol,
// www. and trailing slash scores 1.0; a shared domain 0.9.
func Website(a, b string) float64 {
	na := NormalizeWebsite(a)
	nb := NormalizeWebsite(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	if websiteDomain(na) == websiteDomain(nb) {
		return 0.9
	}
	return 0
}

// ICO compares two registry identifiers. Authoritative: exact or nothing.
func ICO(a, b string) float64 {
	ta := strings.TrimSpace(a)
	tb := strings.TrimSpace(b)
	if ta == "" || tb == "" {
		return 0
	}
	if ta == tb {
		return 1
	}
	return 0
}

// FieldScores holds the per-field similarity breakdown for a pair of records.
type FieldScores struct {
	Email   float64
	Company float64
	Phone   float64
	Address float64
	ICO     float64
	Website float64
}

// MatchingFields lists the fields scoring 0.8 or better.
func (f FieldScores) MatchingFields() []string {
	var out []string
	add := func(name string, score float64) {
		if score >= 0.8 {
			out = append(out, name)
		}
	}
	add("email", f.Email)
	add("company_name", f.Company)
	add("phone", f.Phone)
	add("address", f.Address)
	add("ico", f.ICO)
	add("website", f.Website)
	return out
}

// Compare produces the per-field breakdown for two records.
func Compare(a, b *prospect.ProspectRecord) FieldScores {
	return FieldScores{
		Email:   Email(a.Email, b.Email),
		Company: String(a.CompanyName, b.CompanyName),
		Phone:   Phone(a.Phone, b.Phone),
		Address: String(joinAddress(a), joinAddress(b)),
		ICO:     ICO(a.ICO, b.ICO),
		Website: Website(a.Website, b.Website),
	}
}

// Overall computes the weighted aggregate similarity for two records,
// normalized by the weights of fields present on both sides and clipped
// to [0,1]. Sparse records still score 1.0 against themselves.
func Overall(a, b *prospect.ProspectRecord) float64 {
	scores := Compare(a, b)

	var sum, applied float64
	apply := func(score, weight float64, present bool) {
		if !present {
			return
		}
		sum += score * weight
		applied += weight
	}

	apply(scores.Email, weightEmail, a.Email != "" && b.Email != "")
	apply(scores.Company, weightCompany, a.CompanyName != "" && b.CompanyName != "")
	apply(scores.Phone, weightPhone, a.Phone != "" && b.Phone != "")
	apply(scores.Address, weightAddress, joinAddress(a) != "" && joinAddress(b) != "")
	apply(scores.ICO, weightICO, a.ICO != "" && b.ICO != "")
	apply(scores.Website, weightWebsite, a.Website != "" && b.Website != "")

	if applied == 0 {
		return 0
	}

	result := sum / applied
	if result < 0 {
		return 0
	}
	if result > 1 {
		return 1
	}
	return result
}

func joinAddress(r *prospect.ProspectRecord) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{r.Street, r.City, r.ZipCode, r.Location} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, " ")
}
