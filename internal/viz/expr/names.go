package expr

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/zeebo/xxh3"
)

// VarName derives the variable name of an expression: "v" followed by the
// first six hex digits of its xxh3 hash. Two distinct expressions collide
// with probability 1/16^6.
func VarName(expression string) string {
	return fmt.Sprintf("v%016x", xxh3.HashString(expression))[:7]
}

// Single-quoted names may carry \' escapes, as written by Quote.
var columnRefRe = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)|prop\('((?:[^'\\]|\\.|\\)*)'\)|prop\("([^"]*)"\)`)

// Columns lists the columns referenced by an expression or a whole program,
// in order of first appearance.
func Columns(program string) []string {
	var cols []string
	seen := map[string]bool{}
	for _, m := range columnRefRe.FindAllStringSubmatch(program, -1) {
		name := m[1] + strings.ReplaceAll(m[2], `\'`, "'") + m[3]
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		cols = append(cols, name)
	}
	return cols
}

// PopupStub is the canonical {value, title, operation} triple a popup entry
// is synthesized from. Operation values are expressions used verbatim;
// other values are column names.
type PopupStub struct {
	Value     string
	Title     string
	Operation bool
}

// NewPopupStub builds a stub; the title defaults to the value.
func NewPopupStub(value, title string, operation bool) PopupStub {
	return PopupStub{Value: value, Title: Or(title, value), Operation: operation}
}

// Expression is the program text the stub's value evaluates.
func (s PopupStub) Expression() string {
	if s.Operation {
		return s.Value
	}
	return Prop(s.Value)
}
