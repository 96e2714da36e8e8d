package console

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeConsole(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/StartSession/", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("USER") != "admin" || r.FormValue("PASS") != "pw" {
			_, _ = io.WriteString(w, `<ConsoleSession></ConsoleSession>`)
			return
		}
		_, _ = io.WriteString(w, `<ConsoleSession><SessionID>abc</SessionID><Prompt>Region (root) # </Prompt></ConsoleSession>`)
	})
	mux.HandleFunc("/SessionCommand/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc", r.FormValue("ID"))
		assert.Equal(t, "show users", r.FormValue("COMMAND"))
		_, _ = io.WriteString(w, `<ConsoleSession><Result>OK</Result></ConsoleSession>`)
	})
	mux.HandleFunc("/ReadResponses/abc/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<ConsoleSession><Line Number="1" Level="normal" Prompt="false" Command="false" Input="false">Agents connected: 0</Line><Line Number="2" Level="normal" Prompt="true" Command="false" Input="false">Region (root) # </Line></ConsoleSession>`)
	})
	mux.HandleFunc("/CloseSession/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<ConsoleSession><Result>OK</Result></ConsoleSession>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestProxyRoundTrip(t *testing.T) {
	srv := fakeConsole(t)
	p := New(srv.URL+"/", "admin", "pw")
	ctx := context.Background()

	s, raw, err := p.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", s.SessionID)
	assert.Contains(t, string(raw), "<SessionID>abc</SessionID>")

	out, err := p.Command(ctx, s.SessionID, "show users")
	require.NoError(t, err)
	assert.Contains(t, string(out), "OK")

	out, err = p.Read(ctx, s.SessionID)
	require.NoError(t, err)
	lines, err := ParseLines(out)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "Agents connected: 0", lines[0].Text)
	assert.True(t, lines[1].Prompt)

	_, err = p.Close(ctx, s.SessionID)
	require.NoError(t, err)
}

func TestProxyRefused(t *testing.T) {
	srv := fakeConsole(t)
	_, _, err := New(srv.URL, "admin", "wrong").Start(context.Background())
	assert.Error(t, err)
}

func TestProxyNotConfigured(t *testing.T) {
	p := New("", "", "")
	assert.False(t, p.Configured())
	_, err := p.Read(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
