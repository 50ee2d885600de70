package attr

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		tag         string
		expectError bool
		expected    []Attribute
	}{
		{
			name:     "Empty",
			tag:      "",
			expected: nil,
		},
		{
			name:     "BareAttribute",
			tag:      "deprecated",
			expected: []Attribute{{Name: "deprecated"}},
		},
		{
			name: "PositionalAndNamedArgs",
			tag:  "route:/users/{id},method=GET",
			expected: []Attribute{{
				Name:   "route",
				Args:   []string{"/users/{id}"},
				Params: map[string]string{"method": "GET"},
			}},
		},
		{
			name: "MultipleDeclarations",
			tag:  "id;gen:uuid",
			expected: []Attribute{
				{Name: "id"},
				{Name: "gen", Args: []string{"uuid"}},
			},
		},
		{
			name: "WhitespaceTolerant",
			tag:  " validate : min = 1 , max = 10 ",
			expected: []Attribute{{
				Name:   "validate",
				Params: map[string]string{"min": "1", "max": "10"},
			}},
		},
		{
			name:     "EmptyDeclarationsSkipped",
			tag:      ";;",
			expected: []Attribute{},
		},
		{
			name: "EmptyParamValue",
			tag:  "col:k=,extra",
			expected: []Attribute{{
				Name:   "col",
				Args:   []string{"extra"},
				Params: map[string]string{"k": ""},
			}},
		},
		{
			name:        "EmptyAttributeName",
			tag:         ":uuid",
			expectError: true,
		},
		{
			name:        "EmptyParamName",
			tag:         "a:=v",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs, err := NewParser().Parse(tt.tag)

			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, attrs)
		})
	}
}

func TestParserCaching(t *testing.T) {
	p := NewParser()

	first, err := p.Parse("gen:uuid")
	require.NoError(t, err)

	second, err := p.Parse("gen:uuid")
	require.NoError(t, err)

	assert.Equal(t, 1, p.CacheLen())
	// Cached parse returns the identical slice.
	assert.Same(t, &first[0], &second[0])

	p.ClearCache()
	assert.Equal(t, 0, p.CacheLen())
}

func TestParseField(t *testing.T) {
	type sample struct {
		ID    string `attr:"id;gen:uuid" json:"id"`
		Name  string `json:"name"`
		Email string `attr:"index"`
	}

	st := reflect.TypeOf(sample{})

	id, _ := st.FieldByName("ID")
	attrs, err := ParseField(id)
	require.NoError(t, err)
	require.Len(t, attrs, 2)
	assert.Equal(t, "id", attrs[0].Name)
	assert.Equal(t, "uuid", attrs[1].Arg(0))

	name, _ := st.FieldByName("Name")
	attrs, err = ParseField(name)
	require.NoError(t, err)
	assert.Empty(t, attrs)
}

func TestSetTagKey(t *testing.T) {
	SetTagKey("meta")
	defer SetTagKey(DefaultTagKey)

	type sample struct {
		ID string `meta:"id" attr:"ignored"`
	}

	f, _ := reflect.TypeOf(sample{}).FieldByName("ID")
	attrs, err := ParseField(f)
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	assert.Equal(t, "id", attrs[0].Name)
}

func TestAttributeAccessors(t *testing.T) {
	a := New("route", "/users").Set("method", "GET")

	assert.True(t, a.Is("route"))
	assert.False(t, a.Is("Route"))
	assert.Equal(t, "/users", a.Arg(0))
	assert.Equal(t, "", a.Arg(1))
	assert.Equal(t, "GET", a.Param("method"))
	assert.Equal(t, "", a.Param("missing"))
	assert.False(t, a.IsZero())
	assert.True(t, Attribute{}.IsZero())
}
