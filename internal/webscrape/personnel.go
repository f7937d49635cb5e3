package webscrape

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// namePat matches a sequence of capitalized Czech words on one line.
const namePat = `[A-ZÁČĎÉĚÍŇÓŘŠŤÚŮÝŽ][a-záčďéěíňóřšťúůýž]+(?:[ \t][A-ZÁČĎÉĚÍŇÓŘŠŤÚŮÝŽ][a-záčďéěíňóřšťúůýž]+)*`

// Czech title-name and name-title patterns seen on company pages.
var personnelRes = []*regexp.Regexp{
	regexp.MustCompile(`((?i:jednatel(?:ka)?|ředitel(?:ka)?|CEO|CFO|CTO|majitel(?:ka)?|vlastník|partner(?:ka)?))\s*:?\s*(` + namePat + `)`),
	regexp.MustCompile(`(` + namePat + `)\s*[-–—]\s*((?i:jednatel(?:ka)?|ředitel(?:ka)?|CEO|CFO|CTO|majitel(?:ka)?))`),
}

// titleImportance ranks positions; unknown titles score 1.
var titleImportance = map[string]int{
	"ceo":      10,
	"jednatel": 9,
	"ředitel":  8,
	"majitel":  8,
	"vlastník": 7,
	"cfo":      6,
	"cto":      6,
	"partner":  5,
}

// extractPersonnel finds title/name pairs in the page text.
func extractPersonnel(doc *goquery.Document) []Person {
	text := doc.Text()
	var people []Person

	for i, re := range personnelRes {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			title, name := m[1], m[2]
			if i == 1 {
				// second pattern captures name first
				name, title = m[1], m[2]
			}
			name = strings.TrimSpace(name)
			title = strings.TrimSpace(title)
			if name == "" || title == "" {
				continue
			}
			people = append(people, Person{Name: name, Title: title, Source: "website_text"})
		}
	}
	return people
}

// rankPersonnel removes duplicates by normalized name and keeps the five
// most important titles.
func rankPersonnel(people []Person) []Person {
	seen := make(map[string]bool, len(people))
	unique := make([]Person, 0, len(people))
	for _, p := range people {
		key := strings.ReplaceAll(strings.ToLower(p.Name), " ", "")
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, p)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return personImportance(unique[i]) > personImportance(unique[j])
	})

	if len(unique) > maxPersonnel {
		unique = unique[:maxPersonnel]
	}
	if len(unique) == 0 {
		return nil
	}
	return unique
}

func personImportance(p Person) int {
	title := strings.ToLower(p.Title)
	best := 1
	for key, value := range titleImportance {
		if strings.Contains(title, key) && value > best {
			best = value
		}
	}
	return best
}
