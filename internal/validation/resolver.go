package validation

import (
	"fmt"

	"github.com/openfieldhq/webcore/internal/errors"
	"github.com/openfieldhq/webcore/internal/i18n"
)

// KeyPrefix roots every registry lookup in the shared catalog namespace.
const KeyPrefix = "webcore.errors"

// ResolveRequest carries everything one symbolic-message lookup needs. The
// scope list is explicit and ordered; the resolver knows nothing about model
// types or inheritance.
type ResolveRequest struct {
	Locale    string
	Scopes    []string
	Attribute string
	Kind      string
	Default   string
	Vars      map[string]string
}

// MessageResolver turns symbolic message kinds into display text via the
// translation catalog.
type MessageResolver struct {
	catalog *i18n.Catalog
}

// NewMessageResolver creates a resolver backed by catalog.
func NewMessageResolver(catalog *i18n.Catalog) *MessageResolver {
	return &MessageResolver{catalog: catalog}
}

// ScopedKeys returns the scope-specific lookup keys for a request, most
// specific first: for each scope, the attribute-qualified key then the
// scope-level key.
func (r *MessageResolver) ScopedKeys(req ResolveRequest) []string {
	keys := make([]string, 0, 2*len(req.Scopes))
	for _, scope := range req.Scopes {
		keys = append(keys,
			fmt.Sprintf("%s.models.%s.attributes.%s.%s", KeyPrefix, scope, req.Attribute, req.Kind),
			fmt.Sprintf("%s.models.%s.%s", KeyPrefix, scope, req.Kind),
		)
	}
	return keys
}

// GlobalKeys returns the terminal lookup keys tried after the caller
// default: the attribute-scoped key, then the generic kind key.
func (r *MessageResolver) GlobalKeys(req ResolveRequest) []string {
	return []string{
		fmt.Sprintf("%s.attributes.%s.%s", KeyPrefix, req.Attribute, req.Kind),
		fmt.Sprintf("%s.messages.%s", KeyPrefix, req.Kind),
	}
}

// Resolve walks the fallback chain: scope-specific keys, then the caller
// default, then the global keys. The first hit is interpolated with
// req.Vars. A full miss yields a TranslationMissing error naming the
// generic key.
func (r *MessageResolver) Resolve(req ResolveRequest) (string, error) {
	if template, ok := r.catalog.Lookup(req.Locale, r.ScopedKeys(req)); ok {
		return i18n.Interpolate(template, req.Vars), nil
	}
	if req.Default != "" {
		return i18n.Interpolate(req.Default, req.Vars), nil
	}
	if template, ok := r.catalog.Lookup(req.Locale, r.GlobalKeys(req)); ok {
		return i18n.Interpolate(template, req.Vars), nil
	}
	key := fmt.Sprintf("%s.messages.%s", KeyPrefix, req.Kind)
	return "", errors.TranslationMissing(req.Locale, key).WithDetails("attribute", req.Attribute)
}

func errNoResolver(kind string) error {
	return fmt.Errorf("cannot resolve symbolic message %q: no resolver configured", kind)
}
