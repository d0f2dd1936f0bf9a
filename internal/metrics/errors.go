package metrics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Labeler is implemented by errors that name their own failure group.
// The runner and targets packages label their error types this way.
type Labeler interface {
	ErrorLabel() string
}

var builtinLabels = map[string]string{
	"errors.errorString": "Error",
	"errors.joinError":   "Multiple errors",
	"fmt.wrapError":      "Wrapped error",
	"fmt.wrapErrors":     "Wrapped error",
	"url.Error":          "Request URL error",
}

// ErrorLabel returns the failure group err is counted under. The first
// Labeler in the chain wins, then context errors, then the dynamic type.
func ErrorLabel(err error) string {
	if err == nil {
		return ""
	}
	var l Labeler
	if errors.As(err, &l) {
		return l.ErrorLabel()
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "Context deadline exceeded"
	case errors.Is(err, context.Canceled):
		return "Context canceled"
	}
	return TypeLabel(fmt.Sprintf("%T", err))
}

// TypeLabel turns a %T type name into a readable label, such as
// "*net.OpError" into "Op Error (net)".
func TypeLabel(typeName string) string {
	name := strings.TrimPrefix(strings.TrimSpace(typeName), "*")
	if name == "" {
		return "Unknown error"
	}
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if label, ok := builtinLabels[name]; ok {
		return label
	}

	pkg, typ, found := strings.Cut(name, ".")
	if !found {
		pkg, typ = "", name
	}

	words := splitWords(typ)
	for i, w := range words {
		if !isAllUpper(w) {
			words[i] = capitalize(w)
		}
	}
	label := strings.Join(words, " ")

	if pkg == "" || pkg == "main" {
		return label
	}
	return fmt.Sprintf("%s (%s)", label, pkg)
}

// splitWords breaks a camel-case identifier at case changes and digit runs,
// keeping acronyms together ("HTTPError" is "HTTP", "Error").
func splitWords(s string) []string {
	runes := []rune(s)
	var words []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, r := runes[i-1], runes[i]
		nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
		upperStart := unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower))
		digitStart := unicode.IsDigit(r) && !unicode.IsDigit(prev)
		if upperStart || digitStart {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	return append(words, string(runes[start:]))
}

func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			hasLetter = true
		}
	}
	return hasLetter
}

func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) > 0 {
		runes[0] = unicode.ToUpper(runes[0])
	}
	return string(runes)
}
