// Package text cleans editor selections before synthesis: HTML markup,
// list decorations, and exotic whitespace all read badly out loud.
package text

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// DefaultMaxChars is the synthesis length limit, generous enough for any
// language's card content.
const DefaultMaxChars = 5000

// Static errors.
var (
	ErrEmptyText   = errors.New("no speakable text after cleanup")
	ErrTextTooLong = errors.New("text exceeds the maximum length")
)

// Regex patterns, compiled once per Normalizer.
const (
	htmlTagPattern      = `<[^>]+>`
	unicodeBulletRegex  = `^\s*[•·‣⁃▪▫‧◦⦾⦿]\s*`
	dashBulletRegex     = `^\s*[-*+]\s+`
	numberedBulletRegex = `^\s*\d+[.)]\s*`
	letteredBulletRegex = `^\s*[a-zA-Z][.)]\s+`
	whitespaceRegex     = `\s+`
)

// Normalizer strips markup and list structure from raw selections.
type Normalizer struct {
	htmlTags       *regexp.Regexp
	bulletPrefixes []*regexp.Regexp
	whitespace     *regexp.Regexp
	entityReplacer *strings.Replacer
	spaceReplacer  *strings.Replacer
}

// NewNormalizer compiles the patterns and replacers up front.
func NewNormalizer() *Normalizer {
	entityPairs := []string{
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&mdash;", "—",
		"&ndash;", "–",
	}

	// Unicode spaces that synthesis engines mispronounce or choke on.
	spacePairs := []string{
		" ", " ", // no-break space
		" ", " ", // en quad
		" ", " ", // em quad
		" ", " ", // en space
		" ", " ", // em space
		" ", " ", // thin space
		"​", "", // zero-width space
		"\x00", "", // null byte
	}

	return &Normalizer{
		htmlTags: regexp.MustCompile(htmlTagPattern),
		bulletPrefixes: []*regexp.Regexp{
			regexp.MustCompile(unicodeBulletRegex),
			regexp.MustCompile(dashBulletRegex),
			regexp.MustCompile(numberedBulletRegex),
			regexp.MustCompile(letteredBulletRegex),
		},
		whitespace:     regexp.MustCompile(whitespaceRegex),
		entityReplacer: strings.NewReplacer(entityPairs...),
		spaceReplacer:  strings.NewReplacer(spacePairs...),
	}
}

// Normalize turns a raw editor selection into a single clean line of
// speakable text. Bullet markers are dropped line by line before the lines
// are joined, so list items read as consecutive sentences.
func (n *Normalizer) Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	cleaned := n.htmlTags.ReplaceAllString(raw, "")
	cleaned = n.entityReplacer.Replace(cleaned)

	var kept []string

	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		for _, prefix := range n.bulletPrefixes {
			line = strings.TrimSpace(prefix.ReplaceAllString(line, ""))
		}

		if line != "" {
			kept = append(kept, line)
		}
	}

	joined := strings.Join(kept, " ")
	joined = n.whitespace.ReplaceAllString(joined, " ")
	joined = n.spaceReplacer.Replace(joined)

	return strings.TrimSpace(joined)
}

// Validate enforces the non-empty and length bounds after cleanup.
// maxChars <= 0 applies DefaultMaxChars.
func Validate(text string, maxChars int) error {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}

	if len([]rune(text)) > maxChars {
		return fmt.Errorf("%w: %d characters (max %d)", ErrTextTooLong, len([]rune(text)), maxChars)
	}

	return nil
}
