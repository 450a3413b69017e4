package keyspace

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetDel(t *testing.T) {
	s := New()
	s.Set("foo", []byte("bar"), 0)

	v, ok := s.Get("foo")
	require.True(t, ok)
	assert.Equal(t, "bar", string(v))

	assert.Equal(t, 1, s.Del("foo", "foo"))
	_, ok = s.Get("foo")
	assert.False(t, ok)
}

func TestTTLMonotonicity(t *testing.T) {
	s := New()
	fakeNow := time.Now()
	s.now = func() time.Time { return fakeNow }

	s.Set("x", []byte("y"), time.Second)
	_, ok := s.Get("x")
	require.True(t, ok)

	fakeNow = fakeNow.Add(1100 * time.Millisecond)
	_, ok = s.Get("x")
	assert.False(t, ok)
	assert.False(t, s.Exists("x"))

	// Once expired, it stays absent even on repeated reads (§8).
	_, ok = s.Get("x")
	assert.False(t, ok)
}

func TestTypeAndExists(t *testing.T) {
	s := New()
	assert.Equal(t, KindNone, s.Type("missing"))

	s.Set("k", []byte("v"), 0)
	assert.Equal(t, KindString, s.Type("k"))
	assert.True(t, s.Exists("k"))
}

func TestListOpsAndEmptinessInvariant(t *testing.T) {
	s := New()

	n, wrongType := s.RPush("L", []byte("a"), []byte("b"), []byte("c"))
	require.False(t, wrongType)
	assert.Equal(t, 3, n)

	n, wrongType = s.LPush("L", []byte("z"))
	require.False(t, wrongType)
	assert.Equal(t, 4, n)

	got := s.LRange("L", 0, -1)
	assertByteSeq(t, []string{"z", "a", "b", "c"}, got)

	v, ok := s.LPop("L")
	require.True(t, ok)
	assert.Equal(t, "z", string(v))
	assert.Equal(t, 3, s.LLen("L"))

	for i := 0; i < 3; i++ {
		_, ok := s.LPop("L")
		require.True(t, ok)
	}
	assert.False(t, s.Exists("L"))
	assert.Equal(t, KindNone, s.Type("L"))
}

func TestLRangeClamp(t *testing.T) {
	s := New()
	s.RPush("L", []byte("a"), []byte("b"), []byte("c"))

	assertByteSeq(t, []string{"a", "b", "c"}, s.LRange("L", -100, 100))
	assertByteSeq(t, []string{"b", "c"}, s.LRange("L", 1, 100))
	assert.Empty(t, s.LRange("L", 5, 10))
	assert.Empty(t, s.LRange("L", 2, 1))
}

func TestSetOpsAndEmptinessInvariant(t *testing.T) {
	s := New()

	added, wrongType := s.SAdd("S", "a", "b", "a")
	require.False(t, wrongType)
	assert.Equal(t, 2, added)

	assert.True(t, s.SIsMember("S", "a"))
	assert.Equal(t, 2, s.SCard("S"))

	removed, wrongType := s.SRem("S", "a", "b")
	require.False(t, wrongType)
	assert.Equal(t, 2, removed)
	assert.False(t, s.Exists("S"))
}

func TestHashOpsAndEmptinessInvariant(t *testing.T) {
	s := New()

	created, wrongType := s.HSet("u", "name", []byte("Alice"))
	require.False(t, wrongType)
	assert.True(t, created)

	created, wrongType = s.HSet("u", "name", []byte("Bob"))
	require.False(t, wrongType)
	assert.False(t, created)

	all := s.HGetAll("u")
	require.Len(t, all, 1)
	assert.Equal(t, "name", all[0].Field)
	assert.Equal(t, "Bob", string(all[0].Value))

	removed, wrongType := s.HDel("u", "name")
	require.False(t, wrongType)
	assert.Equal(t, 1, removed)
	assert.False(t, s.Exists("u"))
	assert.Equal(t, KindNone, s.Type("u"))
}

func TestWrongTypeLenientPolicy(t *testing.T) {
	s := New()
	s.Set("k", []byte("v"), 0)

	_, wrongType := s.LPush("k", []byte("x"))
	assert.True(t, wrongType)

	// The existing string Entry must survive the failed list op untouched.
	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", string(v))

	assert.Equal(t, 0, s.LLen("k"))
}

func TestKeysGlob(t *testing.T) {
	s := New()
	s.Set("foo1", []byte("x"), 0)
	s.Set("foo2", []byte("x"), 0)
	s.Set("bar", []byte("x"), 0)

	got := s.Keys("foo?")
	sort.Strings(got)
	assert.Equal(t, []string{"foo1", "foo2"}, got)

	got = s.Keys("*")
	sort.Strings(got)
	assert.Equal(t, []string{"bar", "foo1", "foo2"}, got)
}

func TestFlushDBAndDBSize(t *testing.T) {
	s := New()
	s.Set("a", []byte("1"), 0)
	s.Set("b", []byte("2"), 0)
	assert.Equal(t, 2, s.DBSize())

	s.FlushDB()
	assert.Equal(t, 0, s.DBSize())
}

func assertByteSeq(t *testing.T, want []string, got [][]byte) {
	t.Helper()
	require.Len(t, got, len(want))
	for i, w := range want {
		assert.Equal(t, w, string(got[i]))
	}
}
