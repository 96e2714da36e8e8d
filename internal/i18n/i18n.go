// Package i18n picks the page language and translates the short strings the
// panel generates itself (menus, messages). Page bodies are localized by
// per-language template directories instead.
package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Supported lists the languages with translations; the first is the default.
var Supported = []language.Tag{
	language.English,
	language.French,
	language.Spanish,
	language.Portuguese,
	language.German,
}

// Catalog translates message keys. Keys are the English text.
type Catalog struct {
	matcher language.Matcher
	builder *catalog.Builder
	plain   map[string]map[string]string
}

// New builds the catalog with the built-in translations.
func New() (*Catalog, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	plain := make(map[string]map[string]string, len(translations))
	for tag, msgs := range translations {
		base, _ := tag.Base()
		plain[base.String()] = msgs
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("load %s translation %q: %w", tag, key, err)
			}
		}
	}
	return &Catalog{matcher: language.NewMatcher(Supported), builder: b, plain: plain}, nil
}

// Match picks a supported language. An explicit preference (cookie or
// ?lang=) wins over the Accept-Language header. The result is a base
// language code such as "fr".
func (c *Catalog) Match(preferred, acceptLanguage string) string {
	var wanted []language.Tag
	if preferred != "" {
		if tag, err := language.Parse(preferred); err == nil {
			wanted = append(wanted, tag)
		}
	}
	if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil {
		wanted = append(wanted, tags...)
	}
	_, idx, conf := c.matcher.Match(wanted...)
	if conf == language.No {
		idx = 0
	}
	base, _ := Supported[idx].Base()
	return base.String()
}

// T returns the translation of key into lang, or key itself. The text is
// not formatted, so keys and translations may contain '%'.
func (c *Catalog) T(lang, key string) string {
	if msg, ok := c.plain[baseOf(lang)][key]; ok {
		return msg
	}
	return key
}

// Tf translates format into lang and formats args like fmt.Sprintf.
func (c *Catalog) Tf(lang, format string, args ...any) string {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	return message.NewPrinter(tag, message.Catalog(c.builder)).Sprintf(format, args...)
}

func baseOf(lang string) string {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	return base.String()
}

// Supports reports whether lang has a translation table.
func Supports(lang string) bool {
	lang = strings.ToLower(strings.TrimSpace(lang))
	for _, t := range Supported {
		if b, _ := t.Base(); b.String() == lang {
			return true
		}
	}
	return false
}
