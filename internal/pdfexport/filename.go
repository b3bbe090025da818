package pdfexport

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Document suffixes used in download file names
const (
	SuffixConvocation   = "convocation"
	SuffixInvitations   = "invitations"
	SuffixInvitation    = "invitation"
	SuffixBulletin      = "bulletin"
	SuffixAgents        = "agents"
	SuffixResults       = "results"
	SuffixModuleResults = "module_results"
	SuffixDossier       = "dossier"
	SuffixAccount       = "account"
)

// Slug folds accents and lowercases name, joining alphanumeric runs with
// hyphens: "Élodie  O'Brien" becomes "elodie-o-brien".
func Slug(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingDash = false
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// Filename returns "<slug>_<suffix>.pdf", using "document" when name has no
// usable characters
func Filename(name, suffix string) string {
	s := Slug(name)
	if s == "" {
		s = "document"
	}
	return s + "_" + suffix + ".pdf"
}
