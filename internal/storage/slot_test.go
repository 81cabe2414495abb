package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseSlot(t *testing.T, slot Slot) {
	t.Helper()
	ctx := context.Background()

	_, err := slot.Load(ctx, "jumpship_cart:abc")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, slot.Store(ctx, "jumpship_cart:abc", []byte(`[{"id":"a"}]`)))
	got, err := slot.Load(ctx, "jumpship_cart:abc")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, string(got))

	require.NoError(t, slot.Store(ctx, "jumpship_cart:abc", []byte(`[]`)))
	got, err = slot.Load(ctx, "jumpship_cart:abc")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	_, err = slot.Load(ctx, "jumpship_cart:other")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemorySlot(t *testing.T) {
	exerciseSlot(t, NewMemorySlot())
}

func TestMemorySlotCopiesValues(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()
	value := []byte("abc")
	require.NoError(t, slot.Store(ctx, "k", value))
	value[0] = 'z'

	got, err := slot.Load(ctx, "k")
	require.NoError(t, err)
	got[1] = 'z'

	again, err := slot.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestFileSlot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "carts")
	slot, err := NewFileSlot(dir)
	require.NoError(t, err)
	exerciseSlot(t, slot)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files are renamed away")
	assert.Equal(t, "jumpship_5Fcart_3Aabc.json", entries[0].Name())
}

func TestFileSlotRequiresDir(t *testing.T) {
	_, err := NewFileSlot(" ")
	assert.Error(t, err)
}

func TestFileSlotHonoursCancelledContext(t *testing.T) {
	slot, err := NewFileSlot(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, slot.Store(ctx, "k", []byte("v")), context.Canceled)
	_, err = slot.Load(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEncodeKey(t *testing.T) {
	cases := map[string]string{
		"":                   "_",
		"jumpship_cart":      "jumpship_5Fcart",
		"jumpship_cart:01HX": "jumpship_5Fcart_3A01HX",
		"../etc/passwd":      "_2E_2E_2Fetc_2Fpasswd",
		"..":                 "_2E_2E",
		"a b/c":              "a_20b_2Fc",
	}
	for in, want := range cases {
		assert.Equal(t, want, EncodeKey(in), "key %q", in)
		back, err := DecodeKey(want)
		require.NoError(t, err)
		assert.Equal(t, in, back)
	}
}

func TestEncodeKeyKeepsDistinctKeysApart(t *testing.T) {
	keys := []string{"a:b", "a_b", "a b", "a.b", "a/b", "a_3Ab", "ключ", "__x__"}
	seen := map[string]string{}
	for _, k := range keys {
		enc := EncodeKey(k)
		if prev, ok := seen[enc]; ok {
			t.Fatalf("%q and %q both encode to %q", prev, k, enc)
		}
		seen[enc] = k
		assert.NotContains(t, enc, "/")
		assert.False(t, strings.HasPrefix(enc, "__"), "reserved firestore id prefix in %q", enc)
		back, err := DecodeKey(enc)
		require.NoError(t, err)
		assert.Equal(t, k, back)
	}
}

func TestDecodeKeyRejectsBadEscapes(t *testing.T) {
	for _, name := range []string{"a_", "a_4", "a_ZZ"} {
		_, err := DecodeKey(name)
		assert.Error(t, err, "name %q", name)
	}
}

func TestFileSlotSeparatesSimilarKeys(t *testing.T) {
	ctx := context.Background()
	slot, err := NewFileSlot(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, slot.Store(ctx, "a:b", []byte("colon")))
	require.NoError(t, slot.Store(ctx, "a_b", []byte("underscore")))

	got, err := slot.Load(ctx, "a:b")
	require.NoError(t, err)
	assert.Equal(t, "colon", string(got))
}

func TestNewFirestoreSlotRequiresClient(t *testing.T) {
	_, err := NewFirestoreSlot(nil, "carts")
	assert.Error(t, err)
}
