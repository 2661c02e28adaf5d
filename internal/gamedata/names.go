package gamedata

import (
	"path"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const shortNameSeparator = " - "

var richTextTag = regexp.MustCompile(`<[^<>]*>`)

// A Caser carries transform state, so each caller borrows its own.
var folders = sync.Pool{
	New: func() any {
		c := cases.Fold()
		return &c
	},
}

// Fold normalises a name for case-insensitive comparison.
func Fold(s string) string {
	c := folders.Get().(*cases.Caser)
	defer folders.Put(c)
	return c.String(norm.NFC.String(strings.TrimSpace(s)))
}

func StripRichText(s string) string {
	return strings.TrimSpace(richTextTag.ReplaceAllString(s, ""))
}

func StripExt(name string) string {
	ext := path.Ext(name)
	if ext == "" || ext == name {
		return name
	}
	return strings.TrimSuffix(name, ext)
}

// NameVariants returns name and, when it differs, name without its
// extension.
func NameVariants(name string) []string {
	stripped := StripExt(name)
	if stripped == name {
		return []string{name}
	}
	return []string{name, stripped}
}

// ShortName drops a leading "numeral - " style prefix.
func ShortName(name string) string {
	i := strings.LastIndex(name, shortNameSeparator)
	if i < 0 {
		return name
	}
	return strings.TrimSpace(name[i+len(shortNameSeparator):])
}

func canonicalID(id string) string {
	return Fold(StripExt(StripRichText(id)))
}
