package spf

import (
	"errors"
	"fmt"
	"strings"
)

// SPF record parsing errors.
var (
	ErrRecordSyntax     = errors.New("spf: malformed SPF record")
	ErrInvalidMechanism = errors.New("spf: invalid mechanism")
)

// mechanisms lists the mechanism names from RFC 7208 Section 5.
var mechanisms = map[string]bool{
	"all": true, "include": true, "a": true, "mx": true,
	"ptr": true, "ip4": true, "ip6": true, "exists": true,
}

// Record is a parsed SPF DNS record.
//
// An example record for example.com:
//
//	v=spf1 +mx a:colo.example.com/28 -all
type Record struct {
	// Version is always "spf1".
	Version string

	// Directives in record order.
	Directives []Directive

	// Redirect is the "redirect=" modifier.
	Redirect string

	// Explanation is the "exp=" modifier.
	Explanation string

	// Other contains unknown modifiers.
	Other []Modifier
}

// Directive is a mechanism with its optional qualifier and argument.
type Directive struct {
	// Qualifier: "" and "+" mean pass, "-" fail, "~" softfail, "?" neutral.
	Qualifier string

	// Mechanism is one of all, include, a, mx, ptr, ip4, ip6, exists.
	Mechanism string

	// Value is everything after the mechanism name, e.g. ":colo.example.com/28".
	Value string
}

// Modifier is a name=value term.
type Modifier struct {
	Key   string
	Value string
}

// String returns the directive in record form.
func (d Directive) String() string {
	return d.Qualifier + d.Mechanism + d.Value
}

// String returns the SPF record as a DNS TXT record string.
func (r Record) String() string {
	var b strings.Builder
	b.WriteString("v=")
	b.WriteString(r.Version)

	for _, d := range r.Directives {
		b.WriteByte(' ')
		b.WriteString(d.String())
	}
	if r.Redirect != "" {
		b.WriteString(" redirect=")
		b.WriteString(r.Redirect)
	}
	if r.Explanation != "" {
		b.WriteString(" exp=")
		b.WriteString(r.Explanation)
	}
	for _, m := range r.Other {
		b.WriteByte(' ')
		b.WriteString(m.Key)
		b.WriteByte('=')
		b.WriteString(m.Value)
	}

	return b.String()
}

// All returns the qualifier of the terminal "all" directive, normalizing
// the implicit pass to "+". It returns "" when the record has no "all".
func (r Record) All() string {
	for _, d := range r.Directives {
		if d.Mechanism == "all" {
			if d.Qualifier == "" {
				return "+"
			}
			return d.Qualifier
		}
	}
	return ""
}

// IsRecord reports whether txt carries the SPF version marker: "v=spf1"
// followed by a space or the end of the string.
func IsRecord(txt string) bool {
	const marker = "v=spf1"
	if len(txt) < len(marker) || !strings.EqualFold(txt[:len(marker)], marker) {
		return false
	}
	return len(txt) == len(marker) || txt[len(marker)] == ' '
}

// ParseRecord parses an SPF TXT record.
//
// Returns the parsed record, whether the string carries the SPF marker, and
// any syntax error in the terms that follow it.
func ParseRecord(s string) (record *Record, isSPF bool, err error) {
	if !IsRecord(s) {
		return nil, false, nil
	}

	r := &Record{Version: "spf1"}
	for _, term := range strings.Fields(s[len("v=spf1"):]) {
		name := term
		qualifier := ""
		if strings.ContainsAny(name[:1], "+-~?") {
			qualifier, name = name[:1], name[1:]
		}

		key, value, isModifier := strings.Cut(name, "=")
		if isModifier && qualifier == "" && !strings.ContainsAny(key, ":/") {
			switch strings.ToLower(key) {
			case "redirect":
				r.Redirect = strings.ToLower(value)
			case "exp":
				r.Explanation = value
			default:
				r.Other = append(r.Other, Modifier{Key: key, Value: value})
			}
			continue
		}

		end := strings.IndexAny(name, ":/")
		if end < 0 {
			end = len(name)
		}
		mech := strings.ToLower(name[:end])
		if !mechanisms[mech] {
			return r, true, fmt.Errorf("%w: %q", ErrInvalidMechanism, term)
		}
		if mech == "all" && end != len(name) {
			return r, true, fmt.Errorf("%w: %q takes no argument", ErrRecordSyntax, term)
		}
		r.Directives = append(r.Directives, Directive{
			Qualifier: qualifier,
			Mechanism: mech,
			Value:     name[end:],
		})
	}

	return r, true, nil
}
