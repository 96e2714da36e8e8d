package wifiscript

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// voidElements never take a closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// CheckMarkup reports the first unbalanced or misnested tag in a template.
// Directive markers are blanked first so that markers inside attribute
// values do not confuse the tokenizer.
func CheckMarkup(text string) error {
	var stack []string
	z := html.NewTokenizer(strings.NewReader(directiveRe.ReplaceAllString(text, "")))
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return fmt.Errorf("tokenize: %w", err)
			}
			if len(stack) > 0 {
				return fmt.Errorf("unclosed tags at end of file: %v", stack)
			}
			return nil
		case html.StartTagToken:
			name, _ := z.TagName()
			if tag := strings.ToLower(string(name)); !voidElements[tag] {
				stack = append(stack, tag)
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := strings.ToLower(string(name))
			if voidElements[tag] {
				continue
			}
			if len(stack) == 0 {
				return fmt.Errorf("unexpected </%s>", tag)
			}
			if last := stack[len(stack)-1]; last != tag {
				return fmt.Errorf("expected </%s>, got </%s>", last, tag)
			}
			stack = stack[:len(stack)-1]
		}
	}
}

// CheckDir runs CheckMarkup on every .html file under root. The result maps
// slash-separated relative paths to their problem; it is empty when every
// page is well formed.
func CheckDir(root string) (map[string]error, error) {
	problems := make(map[string]error)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".html") {
			return nil
		}
		raw, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		if err := CheckMarkup(string(raw)); err != nil {
			rel, _ := filepath.Rel(root, p)
			problems[filepath.ToSlash(rel)] = err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", root, err)
	}
	return problems, nil
}

// SortedKeys returns the file names of a CheckDir result in order.
func SortedKeys(problems map[string]error) []string {
	keys := make([]string, 0, len(problems))
	for k := range problems {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
