package dedup

import (
	"strings"

	"github.com/nextgencrm/prospector/internal/prospect"
)

// genericEmailPrefixes are role mailboxes penalized during selection.
var genericEmailPrefixes = []string{"info@", "contact@", "admin@", "office@"}

// BestOf picks the most complete record from a duplicate group.
func BestOf(group []*prospect.ProspectRecord) *prospect.ProspectRecord {
	if len(group) == 0 {
		return nil
	}
	best := group[0]
	bestScore := completenessScore(best)
	for _, r := range group[1:] {
		if score := completenessScore(r); score > bestScore {
			best, bestScore = r, score
		}
	}
	return best
}

// Merge folds duplicate records into the master, field by field. The master
// is copied, never mutated.
func Merge(master *prospect.ProspectRecord, duplicates []*prospect.ProspectRecord) *prospect.ProspectRecord {
	merged := *master

	for _, dup := range duplicates {
		if len(dup.CompanyName) > len(merged.CompanyName) {
			merged.CompanyName = dup.CompanyName
		}
		if betterEmail(dup.Email, merged.Email) {
			merged.Email = dup.Email
		}
		if betterPhone(dup.Phone, merged.Phone) {
			merged.Phone = dup.Phone
		}
		if betterWebsite(dup.Website, merged.Website) {
			merged.Website = dup.Website
		}
		if dup.Description != "" && !strings.Contains(merged.Description, dup.Description) {
			merged.Description = strings.TrimSpace(merged.Description + " " + dup.Description)
		}
		if merged.ICO == "" {
			merged.ICO = dup.ICO
		}
		if len(dup.Industry) > len(merged.Industry) {
			merged.Industry = dup.Industry
		}
		if len(dup.Location) > len(merged.Location) {
			merged.Location = dup.Location
		}
	}

	return &merged
}

// completenessScore rewards filled fields; generic emails cost points.
func completenessScore(r *prospect.ProspectRecord) int {
	score := 0
	if r.CompanyName != "" {
		score += 10
	}
	if strings.Contains(r.Email, "@") {
		score += 15
	}
	if r.Phone != "" {
		score += 10
	}
	if r.Website != "" {
		score += 8
	}
	if r.ICO != "" {
		score += 12
	}
	if r.Industry != "" {
		score += 5
	}
	if r.Location != "" {
		score += 5
	}
	score += len(r.Description) / 10

	if isGenericEmail(r.Email) {
		score -= 5
	}
	return score
}

func isGenericEmail(email string) bool {
	lower := strings.ToLower(email)
	for _, prefix := range genericEmailPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func betterEmail(a, b string) bool {
	if a == "" {
		return false
	}
	if b == "" {
		return true
	}
	aGeneric, bGeneric := isGenericEmail(a), isGenericEmail(b)
	if aGeneric != bGeneric {
		return !aGeneric
	}
	return len(a) > len(b)
}

func betterPhone(a, b string) bool {
	if a == "" {
		return false
	}
	if b == "" {
		return true
	}
	aFormatted := strings.ContainsAny(a, "+- ")
	bFormatted := strings.ContainsAny(b, "+- ")
	if aFormatted != bFormatted {
		return aFormatted
	}
	return len(a) > len(b)
}

func betterWebsite(a, b string) bool {
	if a == "" {
		return false
	}
	if b == "" {
		return true
	}
	aHTTPS := strings.HasPrefix(a, "https://")
	bHTTPS := strings.HasPrefix(b, "https://")
	if aHTTPS != bHTTPS {
		return aHTTPS
	}
	return len(a) > len(b)
}
