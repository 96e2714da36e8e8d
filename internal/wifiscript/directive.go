package wifiscript

import (
	"regexp"
)

var (
	directiveRe = regexp.MustCompile(`<!--\s*#(\w+)\s*(.*?)\s*-->`)
	argRe       = regexp.MustCompile(`(\w+)\s*=\s*(?:"([^"]*)"|(\S+))`)
)

// Directive is one parsed <!-- #kind key="value" ... --> marker.
type Directive struct {
	Kind string
	Args map[string]string
	// Order keeps the argument keys in source order.
	Order []string
}

// Arg returns the first present value among keys.
func (d Directive) Arg(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := d.Args[k]; ok {
			return v, true
		}
	}
	return "", false
}

// ParseDirective parses the full text of one marker.
func ParseDirective(marker string) (Directive, bool) {
	m := directiveRe.FindStringSubmatch(marker)
	if m == nil {
		return Directive{}, false
	}
	d := Directive{Kind: m[1], Args: make(map[string]string)}
	for _, a := range argRe.FindAllStringSubmatch(m[2], -1) {
		val := a[2]
		if val == "" {
			val = a[3]
		}
		if _, dup := d.Args[a[1]]; !dup {
			d.Order = append(d.Order, a[1])
		}
		d.Args[a[1]] = val
	}
	return d, true
}
