package batch

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/reclutahub/recluta-cli/internal/model"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?\(?\d{2,4}\)?[-.\s]?\d{3,4}[-.\s]?\d{3,4}`)
	// A name word: letters (accents included), optionally ending in a dot
	// for initials like "Ma." or "J.".
	nameWordRe = regexp.MustCompile(`^[A-Za-zÁÉÍÓÚÜÑáéíóúüñ]+\.?$`)
	digitsRe   = regexp.MustCompile(`\d`)

	// Header words that disqualify a line as a candidate name.
	boilerplateWords = []string{"curriculum", "vitae", "resumen", "resume", "perfil", "contacto"}

	deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// ExtractContact pulls best-effort contact data out of extracted CV text.
// Missing fields are left empty; the caller decides whether to prompt the
// user or fall back to placeholders.
func ExtractContact(text string) model.ContactData {
	var contact model.ContactData

	if m := emailRe.FindString(text); m != "" {
		contact.Email = strings.ToLower(m)
	}

	if m := phoneRe.FindString(text); m != "" {
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, m)
		if len(digits) >= 8 {
			contact.Phone = strings.TrimSpace(m)
		}
	}

	contact.Name = extractName(text)
	return contact
}

// extractName scans the first lines of the CV for something that looks
// like a person's name: two to five word tokens of plain letters, not a
// section header, not a line with contact details mixed in.
func extractName(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || len(line) > 50 {
			continue
		}
		if strings.ContainsAny(line, "@") ||
			strings.Contains(line, "http") ||
			strings.Contains(line, "www") {
			continue
		}
		if digitsRe.MatchString(line[:1]) {
			continue
		}
		if isBoilerplate(line) {
			continue
		}

		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 5 {
			continue
		}
		ok := true
		for _, w := range words {
			if !nameWordRe.MatchString(w) {
				ok = false
				break
			}
		}
		if ok {
			return line
		}
	}
	return ""
}

// isBoilerplate reports whether the line is a document header such as
// "Currículum Vitae". Comparison is accent-insensitive so "currículum"
// and "curriculum" both match.
func isBoilerplate(line string) bool {
	folded, _, err := transform.String(deaccent, strings.ToLower(line))
	if err != nil {
		folded = strings.ToLower(line)
	}
	for _, w := range boilerplateWords {
		if strings.Contains(folded, w) {
			return true
		}
	}
	return false
}
