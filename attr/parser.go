package attr

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// DefaultTagKey is the struct tag key attributes are declared under.
const DefaultTagKey = "attr"

var (
	tagKeyMu sync.RWMutex
	tagKey   = DefaultTagKey
)

// SetTagKey changes the struct tag key attributes are read from.
// Must be called before any lookups for consistent results; changing the
// key clears the parse and deep-scan caches.
func SetTagKey(key string) {
	tagKeyMu.Lock()
	tagKey = key
	tagKeyMu.Unlock()
	ClearCache()
}

// TagKey returns the struct tag key currently in effect.
func TagKey() string {
	tagKeyMu.RLock()
	defer tagKeyMu.RUnlock()
	return tagKey
}

// Parser parses attribute declarations out of struct tag values.
// Parsed results are cached by the raw tag string since identical tags
// repeat heavily across a codebase.
type Parser struct {
	mu    sync.RWMutex
	cache map[string][]Attribute
}

func NewParser() *Parser {
	return &Parser{
		cache: make(map[string][]Attribute, 128),
	}
}

var defaultParser = NewParser()

// Parse parses a tag value with the default parser.
//
// Grammar, by example:
//
//	`attr:"deprecated"`                          // bare attribute
//	`attr:"route:/users/{id},method=GET"`        // positional + named args
//	`attr:"id;gen:uuid"`                         // several attributes
func Parse(tag string) ([]Attribute, error) {
	return defaultParser.Parse(tag)
}

// ParseField parses the attributes declared on a struct field under the
// configured tag key. Fields without the tag yield an empty slice.
func ParseField(f reflect.StructField) ([]Attribute, error) {
	return defaultParser.Parse(f.Tag.Get(TagKey()))
}

// Parse parses a tag value into its declared attributes.
// Declarations are separated by ";", arguments by ",". An argument
// containing "=" is a named parameter, anything else is positional.
func (p *Parser) Parse(tag string) ([]Attribute, error) {
	if tag == "" {
		return nil, nil
	}

	p.mu.RLock()
	if cached, ok := p.cache[tag]; ok {
		p.mu.RUnlock()
		return cached, nil
	}
	p.mu.RUnlock()

	parsed, err := parseTagValue(tag)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[tag] = parsed
	p.mu.Unlock()

	return parsed, nil
}

// ClearCache removes all cached parse results. Useful in tests.
func (p *Parser) ClearCache() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.cache)
}

// CacheLen returns the number of cached parse results.
func (p *Parser) CacheLen() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.cache)
}

func parseTagValue(tag string) ([]Attribute, error) {
	decls := strings.Split(tag, ";")
	attrs := make([]Attribute, 0, len(decls))

	for _, decl := range decls {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}

		a, err := parseDecl(decl)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}

	return attrs, nil
}

// parseDecl parses a single declaration: "name" or "name:arg1,key=value".
func parseDecl(decl string) (Attribute, error) {
	name := decl
	var argList string

	if idx := strings.IndexByte(decl, ':'); idx != -1 {
		name = strings.TrimSpace(decl[:idx])
		argList = decl[idx+1:]
	}

	if name == "" {
		return Attribute{}, fmt.Errorf("attr: empty attribute name in %q", decl)
	}

	a := Attribute{Name: name}
	if argList == "" {
		return a, nil
	}

	for _, arg := range strings.Split(argList, ",") {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}

		if eq := strings.IndexByte(arg, '='); eq != -1 {
			key := strings.TrimSpace(arg[:eq])
			if key == "" {
				return Attribute{}, fmt.Errorf("attr: empty parameter name in %q", decl)
			}
			if a.Params == nil {
				a.Params = make(map[string]string, 4)
			}
			a.Params[key] = strings.TrimSpace(arg[eq+1:])
			continue
		}

		a.Args = append(a.Args, arg)
	}

	return a, nil
}
