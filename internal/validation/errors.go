// Package validation implements the model error registry: an ordered mapping
// from attribute names to message lists, with i18n-backed message resolution.
package validation

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"strings"
	"unicode"

	"github.com/openfieldhq/webcore/internal/i18n"
)

// BaseAttribute collects messages that apply to the whole record rather than
// a single attribute. Its messages carry no label prefix in FullMessages.
const BaseAttribute = "base"

// Recordable is the contract a validated model supplies to the registry.
// These four methods are the registry's only coupling to the model.
type Recordable interface {
	// ModelName returns the human-readable model label, e.g. "User".
	ModelName() string
	// HumanAttributeName returns the display label for an attribute.
	HumanAttributeName(attribute string) string
	// ValidationValue returns the current value of an attribute, used for
	// %{value} interpolation. Never mutated by the registry.
	ValidationValue(attribute string) interface{}
	// LookupScopes returns the ordered scope identifiers consulted during
	// message resolution, most specific first.
	LookupScopes() []string
}

// Errors is the registry itself. Attribute insertion order is preserved for
// iteration and display. It is not safe for concurrent use; a registry
// belongs to a single validation pass.
type Errors struct {
	model    Recordable
	resolver *MessageResolver
	locale   string

	order    []string
	messages map[string]*[]string
}

// Option configures a registry at construction time.
type Option func(*Errors)

// WithResolver attaches an i18n-backed message resolver. Without one,
// symbolic message keys fail to resolve.
func WithResolver(r *MessageResolver) Option {
	return func(e *Errors) { e.resolver = r }
}

// WithLocale sets the lookup locale for symbolic messages.
func WithLocale(locale string) Option {
	return func(e *Errors) { e.locale = locale }
}

// NewErrors creates an empty registry for the given model. A nil model is
// allowed; labels then fall back to a default humanization of the attribute
// name and resolution uses no model scopes.
func NewErrors(model Recordable, opts ...Option) *Errors {
	e := &Errors{
		model:    model,
		messages: make(map[string]*[]string),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddOption adjusts a single Add call.
type AddOption func(*addOptions)

type addOptions struct {
	defaultMsg string
	vars       map[string]string
}

// WithDefault supplies a fallback template used when every catalog key in
// the fallback chain misses.
func WithDefault(template string) AddOption {
	return func(o *addOptions) { o.defaultMsg = template }
}

// WithVars supplies extra interpolation variables for symbolic messages.
func WithVars(vars map[string]string) AddOption {
	return func(o *addOptions) { o.vars = vars }
}

// Add appends a message to the attribute's list. A message beginning with
// ":" is a symbolic kind (":blank", ":taken") resolved through the fallback
// chain before storing; resolution failure leaves the registry untouched and
// is returned to the caller. Literal messages never fail.
func (e *Errors) Add(attribute, message string, opts ...AddOption) error {
	if kind, ok := strings.CutPrefix(message, ":"); ok {
		var options addOptions
		for _, opt := range opts {
			opt(&options)
		}
		resolved, err := e.resolveMessage(attribute, kind, options)
		if err != nil {
			return err
		}
		message = resolved
	}
	list := e.GetOrInsert(attribute)
	*list = append(*list, message)
	return nil
}

// AddFunc appends a message produced by fn, evaluated now. Deferred message
// construction keeps expensive formatting out of the common path while still
// capturing values at add time.
func (e *Errors) AddFunc(attribute string, fn func() string) {
	list := e.GetOrInsert(attribute)
	*list = append(*list, fn())
}

func (e *Errors) resolveMessage(attribute, kind string, options addOptions) (string, error) {
	if e.resolver == nil {
		if options.defaultMsg != "" {
			return i18n.Interpolate(options.defaultMsg, e.interpolationVars(attribute, options.vars)), nil
		}
		return "", errNoResolver(kind)
	}
	return e.resolver.Resolve(ResolveRequest{
		Locale:    e.locale,
		Scopes:    e.scopes(),
		Attribute: attribute,
		Kind:      kind,
		Default:   options.defaultMsg,
		Vars:      e.interpolationVars(attribute, options.vars),
	})
}

func (e *Errors) scopes() []string {
	if e.model == nil {
		return nil
	}
	return e.model.LookupScopes()
}

func (e *Errors) interpolationVars(attribute string, extra map[string]string) map[string]string {
	vars := make(map[string]string, len(extra)+3)
	vars["attribute"] = e.label(attribute)
	if e.model != nil {
		vars["model"] = e.model.ModelName()
		vars["value"] = stringify(e.model.ValidationValue(attribute))
	}
	for k, v := range extra {
		vars[k] = v
	}
	return vars
}

// GetOrInsert returns the mutable message list for attribute, creating and
// persisting an empty list on first access. This is the registry's explicit
// lazy-creation handle; use Messages for a read that never allocates.
func (e *Errors) GetOrInsert(attribute string) *[]string {
	if list, ok := e.messages[attribute]; ok {
		return list
	}
	list := &[]string{}
	e.messages[attribute] = list
	e.order = append(e.order, attribute)
	return list
}

// Messages returns a copy of the attribute's messages. It never mutates the
// registry; untouched attributes yield nil.
func (e *Errors) Messages(attribute string) []string {
	list, ok := e.messages[attribute]
	if !ok || len(*list) == 0 {
		if ok {
			return []string{}
		}
		return nil
	}
	out := make([]string, len(*list))
	copy(out, *list)
	return out
}

// Attributes returns attribute names in insertion order.
func (e *Errors) Attributes() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// IsEmpty reports whether the registry holds no messages. Attributes that
// were lazily created but never written do not count.
func (e *Errors) IsEmpty() bool {
	for _, attr := range e.order {
		if len(*e.messages[attr]) > 0 {
			return false
		}
	}
	return true
}

// Count returns the total number of messages across all attributes.
func (e *Errors) Count() int {
	n := 0
	for _, attr := range e.order {
		n += len(*e.messages[attr])
	}
	return n
}

// Clear removes all attributes and messages.
func (e *Errors) Clear() {
	e.order = nil
	e.messages = make(map[string]*[]string)
}

// Each invokes fn for every (attribute, message) pair in display order.
func (e *Errors) Each(fn func(attribute, message string)) {
	for _, attr := range e.order {
		for _, msg := range *e.messages[attr] {
			fn(attr, msg)
		}
	}
}

// FullMessages formats every message with its attribute label, in attribute
// insertion order then message append order. Messages under BaseAttribute
// are emitted without a prefix. Duplicates across attributes are kept.
func (e *Errors) FullMessages() []string {
	var out []string
	e.Each(func(attr, msg string) {
		out = append(out, e.FullMessage(attr, msg))
	})
	return out
}

// FullMessage formats a single message for the given attribute.
func (e *Errors) FullMessage(attribute, message string) string {
	if attribute == BaseAttribute {
		return message
	}
	return e.label(attribute) + " " + message
}

func (e *Errors) label(attribute string) string {
	if e.model != nil {
		if name := e.model.HumanAttributeName(attribute); name != "" {
			return name
		}
	}
	return Humanize(attribute)
}

// Humanize converts a snake_case attribute name into a display label:
// "first_name" becomes "First name".
func Humanize(attribute string) string {
	words := strings.Split(attribute, "_")
	for i, w := range words {
		if i == 0 && w != "" {
			r := []rune(w)
			r[0] = unicode.ToUpper(r[0])
			words[i] = string(r)
		}
	}
	return strings.Join(words, " ")
}

// MarshalXML encodes the registry as an <errors> element with one <error>
// child per formatted message.
func (e *Errors) MarshalXML(enc *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "errors"}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, msg := range e.FullMessages() {
		elem := xml.StartElement{Name: xml.Name{Local: "error"}}
		if err := enc.EncodeElement(msg, elem); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// ToXML renders the registry as a standalone XML document.
func (e *Errors) ToXML() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(e); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// MarshalJSON encodes the registry as an object mapping each attribute to
// its raw message list, preserving attribute insertion order.
func (e *Errors) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, attr := range e.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(attr)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(*e.messages[attr])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func stringify(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return strings.Trim(string(b), `"`)
}
