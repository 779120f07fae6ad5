package schema

import (
	"reflect"
	"strings"
)

// ParseTag returns the annotations declared in the struct tag under key.
// Options are comma separated; "-" declares none.
func ParseTag(tag, key string) []Annotation {
	value, ok := reflect.StructTag(tag).Lookup(key)
	if !ok || value == "-" {
		return nil
	}

	var out []Annotation

	for opt := range strings.SplitSeq(value, ",") {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}

		name, args := splitAnnotation(opt)
		out = append(out, Annotation{Name: name, Args: args, Source: SourceTag})
	}

	return out
}

// ParseDirective parses a comment line of the form //prefix:name [args].
// Like //go: directives there is no space after the slashes.
func ParseDirective(line, prefix string) (Annotation, bool) {
	rest, ok := strings.CutPrefix(line, "//"+prefix+":")
	if !ok || rest == "" {
		return Annotation{}, false
	}

	name, args := splitAnnotation(rest)
	if name == "" {
		return Annotation{}, false
	}

	return Annotation{Name: name, Args: args, Source: SourceDirective}, true
}

// Annotations collects the annotations of a field: options of the tagKey
// struct tag first, then directives found in comments, in order.
func Annotations(tag, tagKey string, comments []string, directive string) []Annotation {
	out := ParseTag(tag, tagKey)

	for _, line := range comments {
		if a, ok := ParseDirective(line, directive); ok {
			out = append(out, a)
		}
	}

	return out
}

// splitAnnotation splits "name<rest>" at the end of the leading identifier.
// Whatever follows the identifier, "=x", "(x)" or " x", is the argument text.
func splitAnnotation(s string) (name, args string) {
	i := 0
	for i < len(s) && isIdentByte(s[i]) {
		i++
	}

	return s[:i], strings.TrimSpace(s[i:])
}

func isIdentByte(c byte) bool {
	return c == '_' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}
