package typeinfo

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	east "github.com/bermudaphp/reflection/typeinfo/internal/east/metrics"
	west "github.com/bermudaphp/reflection/typeinfo/internal/west/metrics"
)

// =========================================================================
// Test Data Structures
// =========================================================================

type Audit struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

type BlogPost struct {
	Audit
	ID     string `attr:"id;gen:uuid"`
	Title  string `attr:"index"`
	Body   string
	Draft  bool
	secret string
}

func (p *BlogPost) Publish()        { p.Draft = false }
func (p BlogPost) Summary() string  { return p.Title }
func (p BlogPost) Tagged(...string) {}

type badGenerator struct {
	ID string `attr:"gen:nope"`
}

// =========================================================================
// Lookup Tests
// =========================================================================

func TestLookup(t *testing.T) {
	ClearCache()

	tests := []struct {
		name        string
		target      any
		expectError error
	}{
		{name: "Struct", target: BlogPost{}},
		{name: "StructPtr", target: &BlogPost{}},
		{name: "ReflectType", target: reflect.TypeOf(BlogPost{})},
		{name: "String", target: "hello", expectError: ErrNotRegistered},
		{name: "Int", target: 42, expectError: ErrNotStruct},
		{name: "Nil", target: nil, expectError: ErrNotStruct},
		{name: "SliceOfStruct", target: []BlogPost{}, expectError: ErrNotStruct},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := Lookup(tt.target)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				assert.Nil(t, info)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "BlogPost", info.Name)
			assert.Equal(t, reflect.TypeOf(BlogPost{}), info.Type)
		})
	}
}

func TestLookupCacheIdentity(t *testing.T) {
	ClearCache()

	first, err := Lookup(BlogPost{})
	require.NoError(t, err)

	second, err := Lookup(&BlogPost{})
	require.NoError(t, err)

	assert.Same(t, first, second, "expected identical handle from cache")
	assert.Equal(t, 1, CacheLen())

	ClearCache()
	assert.Equal(t, 0, CacheLen())

	third, err := Lookup(BlogPost{})
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestLookupSameStringedTypes(t *testing.T) {
	ClearCache()

	eastType := reflect.TypeOf(east.T{})
	westType := reflect.TypeOf(west.T{})

	// Both types print as "metrics.T"; handles must never cross over.
	require.Equal(t, eastType.String(), westType.String())
	assert.NotEqual(t, flightKey(eastType), flightKey(westType))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ei, err := Lookup(east.T{})
			assert.NoError(t, err)
			assert.Equal(t, eastType, ei.Type)
			wi, err := Lookup(west.T{})
			assert.NoError(t, err)
			assert.Equal(t, westType, wi.Type)
		}()
	}
	wg.Wait()

	eastInfo, err := Lookup(east.T{})
	require.NoError(t, err)
	westInfo, err := Lookup(west.T{})
	require.NoError(t, err)

	assert.NotSame(t, eastInfo, westInfo)
	assert.Len(t, eastInfo.Fields, 2)
	assert.Len(t, westInfo.Fields, 3)
	assert.NotEqual(t, eastInfo.Qualified, westInfo.Qualified)
}

func TestLookupByName(t *testing.T) {
	ClearCache()
	ResetRegistry()

	// Unknown names miss with a typed error.
	_, err := Lookup("BlogPost")
	assert.ErrorIs(t, err, ErrNotRegistered)

	// Reflecting a type makes its short and qualified names resolvable.
	info, err := Lookup(BlogPost{})
	require.NoError(t, err)

	byShort, err := Lookup("BlogPost")
	require.NoError(t, err)
	assert.Same(t, info, byShort)

	byQualified, err := Lookup(info.Qualified)
	require.NoError(t, err)
	assert.Same(t, info, byQualified)
}

func TestRegister(t *testing.T) {
	ClearCache()
	ResetRegistry()

	require.NoError(t, Register("post", BlogPost{}))

	info, err := Lookup("post")
	require.NoError(t, err)
	assert.Equal(t, "BlogPost", info.Name)

	// Same name, same type: idempotent.
	assert.NoError(t, Register("post", &BlogPost{}))

	// Same name, different type: rejected.
	assert.Error(t, Register("post", Audit{}))

	// Non-structs cannot be registered.
	assert.ErrorIs(t, Register("n", 42), ErrNotStruct)

	entries := Entries()
	require.NotEmpty(t, entries)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, "post")
}

func TestDerivedNamesDoNotDisplaceExplicit(t *testing.T) {
	ClearCache()
	ResetRegistry()

	require.NoError(t, Register("Audit", BlogPost{}))

	// Reflecting Audit derives the name "Audit", but the explicit
	// registration keeps priority.
	_, err := Lookup(Audit{})
	require.NoError(t, err)

	typ, ok := LookupName("Audit")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeOf(BlogPost{}), typ)
}

// =========================================================================
// Handle Contents
// =========================================================================

func TestTypeInfoShape(t *testing.T) {
	ClearCache()

	info, err := Lookup(BlogPost{})
	require.NoError(t, err)

	assert.Equal(t, "BlogPost", info.Name)
	assert.Equal(t, "blog_post", info.Singular)
	assert.Equal(t, "blog_posts", info.Plural)
	assert.NotEmpty(t, info.PkgPath)
	assert.Equal(t, info.PkgPath+".BlogPost", info.Qualified)

	// Embedded Audit is flattened: Audit itself plus its two fields, then
	// the four exported and one unexported field of BlogPost.
	assert.Len(t, info.Fields, 8)

	created, ok := info.Field("CreatedAt")
	require.True(t, ok)
	assert.Equal(t, "Audit.CreatedAt", created.Path)
	assert.Equal(t, []int{0, 0}, created.Index)

	id, ok := info.Field("ID")
	require.True(t, ok)
	assert.True(t, id.Exported)
	require.NotNil(t, id.Generator)
	assert.Equal(t, "uuid", id.Generator.Name())

	title, ok := info.Field("Title")
	require.True(t, ok)
	a, ok := title.Attr("index")
	require.True(t, ok)
	assert.Equal(t, "index", a.Name)
	_, ok = title.Attr("missing")
	assert.False(t, ok)

	secret, ok := info.Field("secret")
	require.True(t, ok)
	assert.False(t, secret.Exported)

	_, ok = info.Field("Missing")
	assert.False(t, ok)
}

func TestTypeInfoMethods(t *testing.T) {
	ClearCache()

	info, err := Lookup(BlogPost{})
	require.NoError(t, err)

	publish, ok := info.Method("Publish")
	require.True(t, ok)
	assert.True(t, publish.PtrRecv)
	assert.Empty(t, publish.In)
	assert.Empty(t, publish.Out)

	summary, ok := info.Method("Summary")
	require.True(t, ok)
	assert.False(t, summary.PtrRecv)
	require.Len(t, summary.Out, 1)
	assert.Equal(t, reflect.TypeOf(""), summary.Out[0])

	tagged, ok := info.Method("Tagged")
	require.True(t, ok)
	assert.True(t, tagged.Variadic)

	_, ok = info.Method("Missing")
	assert.False(t, ok)
}

func TestFieldShadowing(t *testing.T) {
	ClearCache()

	type Base struct {
		Name string
		Kind string
	}
	type Derived struct {
		Base
		Name string
	}

	info, err := Lookup(Derived{})
	require.NoError(t, err)

	// The outer Name shadows the promoted one.
	name, ok := info.Field("Name")
	require.True(t, ok)
	assert.Equal(t, []int{1}, name.Index)

	kind, ok := info.Field("Kind")
	require.True(t, ok)
	assert.Equal(t, []int{0, 1}, kind.Index)
}

func TestUnknownGenerator(t *testing.T) {
	ClearCache()

	_, err := Lookup(badGenerator{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown generator "nope"`)
}

func TestFieldGetSet(t *testing.T) {
	ClearCache()

	info, err := Lookup(BlogPost{})
	require.NoError(t, err)

	post := &BlogPost{Title: "hello"}
	title, _ := info.Field("Title")

	v, err := title.Get(post)
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	require.NoError(t, title.Set(post, "goodbye"))
	assert.Equal(t, "goodbye", post.Title)

	// Convertible values are converted.
	type alias string
	require.NoError(t, title.Set(post, alias("aliased")))
	assert.Equal(t, "aliased", post.Title)

	// Promoted fields resolve through the index path.
	created, _ := info.Field("CreatedAt")
	now := time.Now()
	require.NoError(t, created.Set(post, now))
	assert.Equal(t, now, post.CreatedAt)

	// Error cases.
	assert.Error(t, title.Set(post, 42))
	assert.Error(t, title.Set(BlogPost{}, "not a pointer"))
	secret, _ := info.Field("secret")
	assert.Error(t, secret.Set(post, "x"))
	_, err = secret.Get(post)
	assert.Error(t, err)
	_, err = title.Get((*BlogPost)(nil))
	assert.Error(t, err)
}

func TestTypeInfoNew(t *testing.T) {
	info := MustLookup(BlogPost{})

	fresh := info.New()
	_, ok := fresh.(*BlogPost)
	assert.True(t, ok)
}
