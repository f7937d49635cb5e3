package webscrape

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	// Czech phone formats, most specific first.
	phoneRes = []*regexp.Regexp{
		regexp.MustCompile(`\+420\s*\d{3}\s*\d{3}\s*\d{3}`),
		regexp.MustCompile(`\+420\s*\d{9}`),
		regexp.MustCompile(`\d{3}\s*\d{3}\s*\d{3}`),
		regexp.MustCompile(`\d{9}`),
	}

	streetRe = regexp.MustCompile(`[A-ZÁČĎÉĚÍŇÓŘŠŤÚŮÝŽ][a-záčďéěíňóřšťúůýž\s]+\d+[a-z]?/?[\d\w]*`)

	icoRe = regexp.MustCompile(`(?i)IČO?[:\s]*(\d{8})`)
	dicRe = regexp.MustCompile(`(?i)DIČ[:\s]*(CZ\d{8,10})`)

	registrationRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)zapsaná?\s+v\s+obchodním\s+rejstříku\s+([^,.\n]+)`),
		regexp.MustCompile(`(?i)spisová\s+značka[:\s]*([A-Z]\s*\d+[^,.\n]*)`),
	}

	serviceClassRe = regexp.MustCompile(`(?i)service|product|offer`)

	contactInfoRe  = regexp.MustCompile(`@|\+420|\d{9}`)
	businessInfoRe = regexp.MustCompile(`(?i)IČO|DIČ`)
	czechLettersRe = regexp.MustCompile(`[řžťďňěšč]`)

	whitespaceRe = regexp.MustCompile(`\s+`)
)

// socialDomains maps link hosts to platform labels.
var socialDomains = []struct {
	domain   string
	platform string
}{
	{"facebook.com", "facebook"},
	{"instagram.com", "instagram"},
	{"linkedin.com", "linkedin"},
	{"twitter.com", "twitter"},
	{"youtube.com", "youtube"},
}

func extractTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func extractDescription(doc *goquery.Document) string {
	if content, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		if desc := strings.TrimSpace(content); desc != "" {
			return desc
		}
	}
	if content, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		if desc := strings.TrimSpace(content); desc != "" {
			return desc
		}
	}
	text := strings.TrimSpace(doc.Find("p").First().Text())
	if len(text) > 50 {
		if len(text) > 300 {
			return text[:300] + "..."
		}
		return text
	}
	return ""
}

func detectLanguage(doc *goquery.Document) string {
	if lang, ok := doc.Find("html").Attr("lang"); ok && len(lang) >= 2 {
		return strings.ToLower(lang[:2])
	}
	if content, ok := doc.Find(`meta[http-equiv="content-language"]`).Attr("content"); ok && len(content) >= 2 {
		return strings.ToLower(content[:2])
	}

	text := strings.ToLower(doc.Text())
	score := 0
	for _, ch := range []string{"ř", "ž", "ť", "ď", "ň", "ě", "š", "č", "ý", "á", "í", "é", "ú", "ů"} {
		if strings.Contains(text, ch) {
			score++
		}
	}
	for _, word := range []string{"společnost", "kontakt", "služby", "o nás", "domů", "česká", "praha"} {
		if strings.Contains(text, word) {
			score += 3
		}
	}
	if score > 5 {
		return "cs"
	}
	return "en"
}

// extractContactInfo pulls emails, phones and street addresses from page text.
func extractContactInfo(text string) (emails, phones, addresses []string) {
	for _, email := range emailRe.FindAllString(text, -1) {
		lower := strings.ToLower(email)
		// image filenames match the email pattern
		if strings.HasSuffix(lower, ".png") || strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".gif") {
			continue
		}
		emails = append(emails, lower)
	}

	for _, re := range phoneRes {
		for _, phone := range re.FindAllString(text, -1) {
			cleaned := whitespaceRe.ReplaceAllString(phone, "")
			if len(cleaned) >= 9 {
				phones = append(phones, cleaned)
			}
		}
	}

	for _, address := range streetRe.FindAllString(text, -1) {
		trimmed := strings.TrimSpace(address)
		if len(strings.Fields(trimmed)) >= 2 {
			addresses = append(addresses, trimmed)
		}
	}

	return capUnique(emails, maxEmails), capUnique(phones, maxPhones), capUnique(addresses, maxAddresses)
}

// extractBusinessInfo pulls Czech registry identifiers from page text.
func extractBusinessInfo(text string) (ico, dic, registration string) {
	if m := icoRe.FindStringSubmatch(text); m != nil {
		ico = m[1]
	}
	if m := dicRe.FindStringSubmatch(text); m != nil {
		dic = m[1]
	}
	for _, re := range registrationRes {
		if m := re.FindStringSubmatch(text); m != nil {
			registration = strings.TrimSpace(m[1])
			break
		}
	}
	return ico, dic, registration
}

// extractServices collects offer headings and list items from sections whose
// class hints at services or products.
func extractServices(doc *goquery.Document) []string {
	var services []string
	doc.Find("div, section").Each(func(_ int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		if !serviceClassRe.MatchString(class) {
			return
		}
		sel.Find("h1, h2, h3, h4, h5, h6, li").Each(func(_ int, item *goquery.Selection) {
			text := strings.TrimSpace(item.Text())
			if len(text) > 3 && len(text) < 100 {
				services = append(services, text)
			}
		})
	})
	return capUnique(services, maxServices)
}

func extractSocialMedia(doc *goquery.Document) map[string]string {
	social := make(map[string]string)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		for _, sd := range socialDomains {
			if strings.Contains(href, sd.domain) {
				if _, seen := social[sd.platform]; !seen {
					social[sd.platform] = href
				}
				break
			}
		}
	})
	if len(social) == 0 {
		return nil
	}
	return social
}

func detectTechnologies(doc *goquery.Document) []string {
	found := make(map[string]bool)
	var order []string
	add := func(tech string) {
		if !found[tech] {
			found[tech] = true
			order = append(order, tech)
		}
	}

	if content, ok := doc.Find(`meta[name="generator"]`).Attr("content"); ok && content != "" {
		add(content)
		if strings.Contains(strings.ToLower(content), "wordpress") {
			add("WordPress")
		}
	}

	drupalRe := regexp.MustCompile(`(?i)drupal`)
	doc.Find("[id], [class]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		id, _ := sel.Attr("id")
		class, _ := sel.Attr("class")
		if drupalRe.MatchString(id) || drupalRe.MatchString(class) {
			add("Drupal")
			return false
		}
		return true
	})

	doc.Find("script[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		src = strings.ToLower(src)
		switch {
		case strings.Contains(src, "jquery"):
			add("jQuery")
		case strings.Contains(src, "bootstrap"):
			add("Bootstrap")
		case strings.Contains(src, "react"):
			add("React")
		case strings.Contains(src, "vue"):
			add("Vue.js")
		}
	})

	return order
}

// findContactPage returns the first link that looks like a contact page.
func findContactPage(doc *goquery.Document, baseURL string) string {
	keywords := []string{"kontakt", "contact", "kontakty", "spojení"}
	var result string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		lowerHref := strings.ToLower(href)
		lowerText := strings.ToLower(sel.Text())
		for _, kw := range keywords {
			if strings.Contains(lowerHref, kw) || strings.Contains(lowerText, kw) {
				if abs := absoluteURL(baseURL, href); abs != "" {
					result = abs
					return false
				}
			}
		}
		return true
	})
	return result
}

// findTeamPages returns up to three links that look like team or about pages.
func findTeamPages(doc *goquery.Document, baseURL string) []string {
	keywords := []string{"tým", "team", "o nás", "about", "management", "vedení"}
	var pages []string
	seen := make(map[string]bool)

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		lowerHref := strings.ToLower(href)
		lowerText := strings.ToLower(sel.Text())
		for _, kw := range keywords {
			if strings.Contains(lowerHref, kw) || strings.Contains(lowerText, kw) {
				if abs := absoluteURL(baseURL, href); abs != "" && !seen[abs] {
					seen[abs] = true
					pages = append(pages, abs)
				}
				break
			}
		}
		return len(pages) < maxTeamPages
	})
	return pages
}

// absoluteURL resolves href against base; fragments and javascript links
// resolve to "".
func absoluteURL(baseURL, href string) string {
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
