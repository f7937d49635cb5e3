package ares

import "fmt"

// legalForms maps common pravniForma codes to readable Czech names.
var legalForms = map[string]string{
	"101": "Fyzická osoba podnikající podle živnostenského zákona",
	"112": "Společnost s ručením omezeným",
	"121": "Akciová společnost",
	"301": "Státní podnik",
	"421": "Obecně prospěšná společnost",
	"511": "Zapsaný spolek",
	"551": "Církev",
	"601": "Obecní úřad",
	"611": "Krajský úřad",
	"651": "Ministerstvo",
	"701": "Zahraniční osoba",
	"801": "Podnikající fyzická osoba",
	"901": "Zahraniční fyzická osoba",
}

// LegalFormName returns the readable name for a pravniForma code,
// falling back to a generic label for unmapped codes.
func LegalFormName(code string) string {
	if name, ok := legalForms[code]; ok {
		return name
	}
	return fmt.Sprintf("Právní forma %s", code)
}
