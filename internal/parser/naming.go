package parser

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

var commonInitialisms = map[string]bool{
	"API": true, "CSS": true, "HTML": true, "HTTP": true, "ID": true, "IP": true,
	"JSON": true, "SQL": true, "UI": true, "URI": true, "URL": true, "UUID": true,
}

// goName converts a schema identifier (snake_case, camelCase, kebab-case)
// into an exported Go identifier.
func goName(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var b strings.Builder
	for _, part := range parts {
		if up := strings.ToUpper(part); commonInitialisms[up] {
			b.WriteString(up)
			continue
		}
		r := []rune(part)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}

	out := b.String()
	if out == "" {
		return "X"
	}
	if unicode.IsDigit([]rune(out)[0]) {
		out = "X" + out
	}
	return out
}

// typeName returns the record type name for a collection.
func typeName(collection string, singularize bool) string {
	if singularize {
		collection = inflection.Singular(collection)
	}
	return goName(collection)
}
