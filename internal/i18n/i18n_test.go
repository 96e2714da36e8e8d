package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	assert.Equal(t, "fr", c.Match("", "fr-CA,fr;q=0.9,en;q=0.8"))
	assert.Equal(t, "de", c.Match("de", "fr"))
	assert.Equal(t, "pt", c.Match("", "pt-BR"))
	assert.Equal(t, "en", c.Match("", "ja"))
	assert.Equal(t, "en", c.Match("", ""))
	assert.Equal(t, "es", c.Match("klingon!!", "es"))
}

func TestTranslate(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	assert.Equal(t, "Déconnexion", c.T("fr", "Logout"))
	assert.Equal(t, "Logout", c.T("en", "Logout"))
	assert.Equal(t, "3 Benutzer online", c.Tf("de", "%d users online", 3))
	assert.Equal(t, "100% done", c.T("fr", "100% done"))
	assert.Equal(t, "Untranslated", c.T("fr", "Untranslated"))
	assert.Equal(t, "Logout", c.T("not a tag", "Logout"))
}

func TestSupports(t *testing.T) {
	assert.True(t, Supports("fr"))
	assert.True(t, Supports(" EN "))
	assert.False(t, Supports("ja"))
}

func TestEveryLanguageHasSameKeys(t *testing.T) {
	var reference map[string]string
	for _, msgs := range translations {
		reference = msgs
		break
	}
	for tag, msgs := range translations {
		assert.Len(t, msgs, len(reference), tag.String())
		for key := range reference {
			assert.Contains(t, msgs, key, tag.String())
		}
	}
}
