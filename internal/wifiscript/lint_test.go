package wifiscript

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckMarkup(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		wantErr string
	}{
		{name: "nested", html: `<div><p>Hello</p></div>`},
		{name: "void and self closing", html: `<p>a<br>b<br/><img src="x"></p>`},
		{name: "directive in attribute", html: `<a href="/wifi?sid=<!-- #get var="SID" -->">home</a>`},
		{name: "directive in text", html: `<tr><td><!-- #get field="Name" --></td></tr><!-- #include file="row.html" -->`},
		{name: "doctype", html: `<!DOCTYPE html><html><body></body></html>`},
		{name: "script body", html: `<script>if (a < b) { x = "</p>"; }</script>`},
		{name: "unclosed", html: `<div><p>text</div>`, wantErr: "expected </p>, got </div>"},
		{name: "stray close", html: `text</span>`, wantErr: "unexpected </span>"},
		{name: "left open", html: `<section><table>`, wantErr: "unclosed tags"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckMarkup(tt.html)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCheckDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "admin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ok.html"), []byte(`<p>ok</p>`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "admin", "bad.html"), []byte(`<p><b>bad</p>`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte(`<p>`), 0o644))

	problems, err := CheckDir(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin/bad.html"}, SortedKeys(problems))

	_, err = CheckDir(filepath.Join(root, "missing"))
	assert.Error(t, err)
}
