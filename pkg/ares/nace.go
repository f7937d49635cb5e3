package ares

import "fmt"

// naceDescriptions is a reduced mapping of CZ-NACE codes seen in practice.
var naceDescriptions = map[string]string{
	// Manufacturing
	"29100": "Výroba motorových vozidel",
	"18130": "Příprava k tisku a vydavatelské služby",
	"26300": "Výroba komunikačních zařízení",
	"27120": "Výroba rozvodných a řídících elektrických zařízení",
	"28230": "Výroba kancelářských strojů a počítačů",

	// Construction and services
	"43220": "Instalace vodoinstalatérství, plynárenství a topení",
	"43342": "Malířské a sklenářské práce",
	"43320": "Truhlářské práce",
	"43390": "Ostatní dokončovací práce",
	"45200": "Údržba a oprava motorových vozidel",

	// Trade
	"46190": "Zprostředkování velkoobchodu se smíšeným zbožím",
	"471":   "Maloobchodní prodej v nespecializovaných prodejnách",
	"47740": "Maloobchodní prodej lékařských a ortopedických potřeb",

	// Transport and logistics
	"49393": "Mezinárodní silniční nákladní doprava",
	"49410": "Nákladní silniční doprava",
	"52100": "Skladování",
	"52210": "Doplňkové služby pro dopravu",
	"53100": "Poštovní činnosti",
	"53200": "Kurýrní činnosti",

	// Food and accommodation
	"56100": "Stravování v restauracích",
	"5590":  "Ostatní ubytování",

	// ICT and telecommunications
	"61":   "Telekomunikační činnosti",
	"6120": "Bezdrátové telekomunikační činnosti",
	"63":   "Informační činnosti",

	// Financial services
	"64929": "Ostatní finanční služby",
	"66":    "Pomocné činnosti v pojišťovnictví a penzijních fondech",
	"66190": "Ostatní činnosti pomáhající finančním službám",
	"653":   "Neživotní pojištění",

	// Professional services
	"6920":  "Účetní, vedení účetnictví a daňové poradenství",
	"69200": "Ostatní účetní činnosti",
	"702":   "Poradenství v oblasti řízení",
	"711":   "Architektonické a inženýrské činnosti",
	"7219":  "Výzkum a vývoj v ostatních přírodních vědách",
	"74300": "Překladatelské a tlumočnické činnosti",

	// Other services
	"772":   "Pronájem osobního zboží a domácích potřeb",
	"77110": "Pronájem osobních automobilů",
	"82920": "Balicí činnosti",
	"8532":  "Odborné vzdělávání",
	"854":   "Vyšší odborné vzdělávání",
	"8553":  "Výuka jízdy",
	"86220": "Praxe lékařů specialistů",
	"92000": "Provozování hazardních her",
	"93290": "Ostatní zábavní a rekreační činnosti",
	"95110": "Oprava počítačů a periferních zařízení",

	// General codes
	"181":  "Tisk a rozmnožování nahraných nosičů",
	"4725": "Maloobchodní prodej nápojů",
}

// NACEDescription returns a readable description for a CZ-NACE code,
// falling back to "NACE <code>" for unmapped codes.
func NACEDescription(code string) string {
	if desc, ok := naceDescriptions[code]; ok {
		return desc
	}
	return fmt.Sprintf("NACE %s", code)
}
