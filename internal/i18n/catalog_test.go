package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svcerr "github.com/openfieldhq/webcore/internal/errors"
)

func TestLookupFallbackKeyOrder(t *testing.T) {
	c := NewCatalog("en")
	c.Add("en", "webcore.errors.messages.blank", "can't be blank")
	c.Add("en", "webcore.errors.attributes.name.blank", "is required")

	template, ok := c.Lookup("en", []string{
		"webcore.errors.attributes.name.blank",
		"webcore.errors.messages.blank",
	})
	require.True(t, ok)
	assert.Equal(t, "is required", template, "more specific key must win")

	template, ok = c.Lookup("en", []string{
		"webcore.errors.attributes.email.blank",
		"webcore.errors.messages.blank",
	})
	require.True(t, ok)
	assert.Equal(t, "can't be blank", template)
}

func TestLookupLocaleChain(t *testing.T) {
	c := NewCatalog("en")
	c.Add("en", "greeting", "hello")
	c.Add("fr", "greeting", "bonjour")

	template, ok := c.Lookup("fr-CA", []string{"greeting"})
	require.True(t, ok)
	assert.Equal(t, "bonjour", template, "language root must be consulted before default")

	template, ok = c.Lookup("de", []string{"greeting"})
	require.True(t, ok)
	assert.Equal(t, "hello", template, "default locale is the terminal fallback")
}

func TestResolveMissingTranslation(t *testing.T) {
	c := NewCatalog("en")

	_, err := c.Resolve("en", []string{"nope.not.here", "also.missing"}, nil)
	require.Error(t, err)

	var serr *svcerr.ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "TRANSLATION_MISSING", serr.Code)
	assert.Equal(t, "nope.not.here", serr.Details["key"])
}

func TestInterpolate(t *testing.T) {
	out := Interpolate("%{attribute} must be at least %{count} characters", map[string]string{
		"attribute": "Password",
		"count":     "8",
	})
	assert.Equal(t, "Password must be at least 8 characters", out)

	out = Interpolate("value is %{value}", nil)
	assert.Equal(t, "value is %{value}", out, "unknown vars stay verbatim")
}

func TestLoadDirMergesAndFlattens(t *testing.T) {
	dir := t.TempDir()

	base := []byte(`
en:
  webcore:
    errors:
      messages:
        blank: "can't be blank"
        taken: "has already been taken"
`)
	override := []byte(`
en:
  webcore:
    errors:
      messages:
        taken: "is not available"
fr:
  webcore:
    errors:
      messages:
        blank: "doit être rempli"
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "00_base.yml"), base, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "10_override.yml"), override, 0o644))

	c := NewCatalog("en")
	require.NoError(t, c.LoadDir(dir))

	template, ok := c.Lookup("en", []string{"webcore.errors.messages.blank"})
	require.True(t, ok)
	assert.Equal(t, "can't be blank", template)

	template, ok = c.Lookup("en", []string{"webcore.errors.messages.taken"})
	require.True(t, ok)
	assert.Equal(t, "is not available", template, "lexically later file overrides")

	template, ok = c.Lookup("fr", []string{"webcore.errors.messages.blank"})
	require.True(t, ok)
	assert.Equal(t, "doit être rempli", template)
}
