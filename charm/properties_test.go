// ABOUTME: Tests for the charm KV property store
// ABOUTME: Uses the badger-backed test client
package charm

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyBagRoundTrip(t *testing.T) {
	c := NewTestClient(t)
	ctx := context.Background()

	bag, err := LoadPropertyBag(c, "google:evt1")
	require.NoError(t, err)
	_, ok := bag.Get("ActivityType")
	assert.False(t, ok)

	bag.Set("ActivityType", "PTO")
	bag.Set("EngagementType", "")
	v, ok := bag.Get("ActivityType")
	assert.True(t, ok)
	assert.Equal(t, "PTO", v)

	require.NoError(t, bag.Save(ctx))

	raw, ok, err := c.Value("props:google:evt1:ActivityType")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "PTO", raw)

	reloaded, err := LoadPropertyBag(c, "google:evt1")
	require.NoError(t, err)
	v, _ = reloaded.Get("ActivityType")
	assert.Equal(t, "PTO", v)
	v, ok = reloaded.Get("EngagementType")
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestPropertyBagScopedByItem(t *testing.T) {
	c := NewTestClient(t)
	ctx := context.Background()

	first, err := LoadPropertyBag(c, "a.ics")
	require.NoError(t, err)
	first.Set("CustomerEvent", "Acme")
	require.NoError(t, first.Save(ctx))

	second, err := LoadPropertyBag(c, "b.ics")
	require.NoError(t, err)
	_, ok := second.Get("CustomerEvent")
	assert.False(t, ok)

	count, err := CountItems(c)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPropertyItemKeysWithColons(t *testing.T) {
	c := NewTestClient(t)
	ctx := context.Background()

	for _, key := range []string{"google:evt1", "a.ics"} {
		bag, err := LoadPropertyBag(c, key)
		require.NoError(t, err)
		bag.Set("ActivityType", "Training")
		bag.Set("OnSite", "true")
		require.NoError(t, bag.Save(ctx))
	}

	keys, err := PropertyItemKeys(c)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.ics", "google:evt1"}, keys)
}

func TestPropertyBagIgnoresLongerItemKeys(t *testing.T) {
	c := NewTestClient(t)
	ctx := context.Background()

	outer, err := LoadPropertyBag(c, "google:evt1")
	require.NoError(t, err)
	outer.Set("OnSite", "false")
	require.NoError(t, outer.Save(ctx))

	inner, err := LoadPropertyBag(c, "google")
	require.NoError(t, err)
	inner.Set("ActivityType", "Training")
	require.NoError(t, inner.Save(ctx))

	reloaded, err := LoadPropertyBag(c, "google")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"ActivityType": "Training"}, reloaded.values)
	_, ok := reloaded.Get("evt1:OnSite")
	assert.False(t, ok)

	other, err := LoadPropertyBag(c, "google:evt1")
	require.NoError(t, err)
	v, ok := other.Get("OnSite")
	assert.True(t, ok)
	assert.Equal(t, "false", v)
}

func TestPropertyBagSaveCanceled(t *testing.T) {
	c := NewTestClient(t)
	bag, err := LoadPropertyBag(c, "a.ics")
	require.NoError(t, err)
	bag.Set("OnSite", "true")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, bag.Save(ctx))
}

func TestShowStatus(t *testing.T) {
	c := NewTestClient(t)
	bag, err := LoadPropertyBag(c, "a.ics")
	require.NoError(t, err)
	bag.Set("OnSite", "true")
	require.NoError(t, bag.Save(context.Background()))

	var out bytes.Buffer
	require.NoError(t, showStatus(&out, c))
	assert.Contains(t, out.String(), "Server:    localhost")
	assert.Contains(t, out.String(), "ID:        local")
	assert.Contains(t, out.String(), "Items:     1")
}

func TestClientScanAndWipe(t *testing.T) {
	c := NewTestClient(t)
	require.NoError(t, c.Put(map[string]string{"props:a:y": "2", "props:a:x": "1", "other": "3"}))

	keys, values, err := c.Scan("props:a:")
	require.NoError(t, err)
	assert.Equal(t, []string{"props:a:x", "props:a:y"}, keys)
	assert.Equal(t, "2", values["props:a:y"])

	_, ok, err := c.Value("props:missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Wipe())
	keys, _, err = c.Scan("")
	require.NoError(t, err)
	assert.Empty(t, keys)
}
