package validation

import "github.com/openfieldhq/webcore/internal/i18n"

// DefaultMessages are the built-in English templates for the common message
// kinds. Locale files under Paths.Locales override them key by key.
var DefaultMessages = map[string]string{
	"blank":        "can't be blank",
	"empty":        "can't be empty",
	"invalid":      "is invalid",
	"taken":        "has already been taken",
	"inclusion":    "is not included in the list",
	"exclusion":    "is reserved",
	"confirmation": "doesn't match %{attribute}",
	"too_short":    "is too short (minimum is %{count} characters)",
	"too_long":     "is too long (maximum is %{count} characters)",
	"not_a_number": "is not a number",
}

// RegisterDefaultMessages seeds catalog with the built-in templates under
// the generic message keys.
func RegisterDefaultMessages(catalog *i18n.Catalog) {
	for kind, template := range DefaultMessages {
		catalog.Add(i18n.DefaultLocale, KeyPrefix+".messages."+kind, template)
	}
}
