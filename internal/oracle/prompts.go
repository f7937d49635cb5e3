package oracle

import (
	"fmt"
	"strings"

	"github.com/nextgencrm/prospector/internal/prospect"
)

const qualitySystemPrompt = `Jsi expert na B2B lead kvalifikaci pro český trh.
Analyzuješ firemní prospekty pro cold email kampaně.
Odpovídej vždy ve formátu JSON s českými komentáři.`

const duplicateSystemPrompt = `Jsi expert na deduplikaci firemních dat s důrazem na český trh.`

const summarySystemPrompt = `Jsi B2B sales expert specializující se na český trh a cold email kampaně.`

func qualityPrompt(r *prospect.ProspectRecord) string {
	var b strings.Builder
	b.WriteString("Analyzuj následující B2B prospect pro cold email kampaň v České republice.\n\n")
	b.WriteString("Data prospektu:\n")
	fmt.Fprintf(&b, "- Název společnosti: %s\n", orNA(r.CompanyName))
	fmt.Fprintf(&b, "- Odvětví: %s\n", orNA(r.Industry))
	fmt.Fprintf(&b, "- Lokace: %s\n", orNA(r.Location))
	fmt.Fprintf(&b, "- Website: %s\n", orNA(r.Website))
	fmt.Fprintf(&b, "- IČO: %s\n", orNA(r.ICO))
	fmt.Fprintf(&b, "- Kontaktní osoba: %s\n", orNA(r.FullName()))
	fmt.Fprintf(&b, "- Email: %s\n", orNA(r.Email))
	fmt.Fprintf(&b, "- Telefon: %s\n", orNA(r.Phone))
	fmt.Fprintf(&b, "- Popis: %s\n", orNA(r.Description))
	b.WriteString(`
Vrať JSON s následující analýzou:
{
  "quality_score": "číslo 0-100 (celkové hodnocení kvality)",
  "contact_quality": "číslo 0-100 (kvalita kontaktních údajů)",
  "business_potential": "číslo 0-100 (obchodní potenciál)",
  "data_completeness": "číslo 0-100 (úplnost dat)",
  "validation_status": "valid/invalid/needs_review",
  "strengths": ["silné stránky prospektu"],
  "weaknesses": ["slabé stránky nebo chybějící data"],
  "recommendations": ["doporučení pro zlepšení"],
  "target_persona": "typ osoby k oslovení (CEO, IT manažer, atd.)",
  "approach_strategy": "doporučená strategie oslovení",
  "urgency": "high/medium/low (priorita oslovení)"
}

Zaměř se na:
- Kvalitu a úplnost kontaktních údajů
- Vhodnost pro naše služby (marketing automation)
- Potenciál pro obchodní spolupráci
- Rizika nebo problémy
`)
	return b.String()
}

func duplicatePrompt(candidate *prospect.ProspectRecord, existing []*prospect.ProspectRecord) string {
	var b strings.Builder
	b.WriteString("Zkontroluj, zda následující nový prospect není duplikát existujících záznamů.\n\n")
	b.WriteString("Nový prospect:\n")
	b.WriteString(truncateJSON(candidate))
	b.WriteString("\n\nExistující prospekti:\n")
	b.WriteString(truncateJSON(existing))
	b.WriteString(`

Vrať JSON s:
{
  "is_duplicate": true/false,
  "confidence": "číslo 0-100",
  "duplicate_of": "ID duplikátu (pokud nalezen)",
  "reasoning": "zdůvodnění rozhodnutí",
  "differences": ["rozdíly mezi záznamy"],
  "recommendation": "doporučení (keep/merge/discard)"
}

Porovnávej podle:
- Název společnosti (i s drobnými odchylkami)
- IČO (pokud dostupné)
- Adresa nebo lokace
- Kontaktní informace
- Website
`)
	return b.String()
}

func summaryPrompt(r *prospect.ProspectRecord) string {
	var b strings.Builder
	b.WriteString("Na základě všech dostupných dat vytvoř komprehenzivní shrnutí prospektu pro cold email kampaň.\n\n")
	b.WriteString("Data o společnosti:\n")
	b.WriteString(truncateJSON(r))
	b.WriteString(`

Vrať JSON s:
{
  "summary": "stručné shrnutí společnosti (2-3 věty)",
  "key_points": ["klíčové body pro cold email"],
  "personalization_tips": ["tipy pro personalizaci emailu"],
  "red_flags": ["varování nebo rizika"],
  "next_steps": ["doporučené další kroky"]
}
`)
	return b.String()
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
