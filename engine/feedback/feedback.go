// Package feedback fills feedback templates and computes the descriptive
// fragments templates can request by name.
package feedback

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fragment names templates may use besides variable names.
const (
	RoomDesc         = "room_desc"
	InventoryDesc    = "inventory_desc"
	ContainerContent = "container_content"
	Prep             = "prep"
	EntityDesc       = "entity_desc"
)

var placeholder = regexp.MustCompile(`\{(\w+)\}`)

var upper = cases.Upper(language.English)

// Render replaces every {name} in tmpl: variable values first, then
// fragments from frag, each computed at most once. Unknown names are left
// in place. The result starts with a capital letter.
func Render(tmpl string, vals map[string]string, frag func(name string) (string, bool)) string {
	cache := map[string]string{}
	out := placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[1 : len(m)-1]
		if v, ok := vals[name]; ok {
			return v
		}
		if v, ok := cache[name]; ok {
			return v
		}
		if frag != nil {
			if v, ok := frag(name); ok {
				cache[name] = v
				return v
			}
		}
		return m
	})
	return Capitalize(strings.TrimSpace(out))
}

// Capitalize upper-cases the first letter of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return upper.String(string(r)) + s[size:]
}

// Article returns "a" or "an" for a noun phrase.
func Article(phrase string) string {
	if phrase == "" {
		return "a"
	}
	switch phrase[0] {
	case 'a', 'e', 'i', 'o', 'u':
		return "an"
	}
	return "a"
}

// WithArticle prefixes a noun phrase with its indefinite article.
func WithArticle(phrase string) string {
	return Article(phrase) + " " + phrase
}

// List joins items as "x", "x and y" or "x, y and z".
func List(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}
