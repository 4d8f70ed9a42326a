// ABOUTME: Charm KV property store so classifications follow the user across devices
// ABOUTME: Keys are props:<itemKey>:<name>; writes are staged until Save
package charm

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

const propertyPrefix = "props:"

func propertyKey(itemKey, name string) string {
	return propertyPrefix + itemKey + ":" + name
}

// PropertyBag is one item's custom properties in the charm KV.
type PropertyBag struct {
	client  *Client
	itemKey string
	values  map[string]string
	staged  map[string]string
}

// LoadPropertyBag reads every property stored for itemKey.
func LoadPropertyBag(c *Client, itemKey string) (*PropertyBag, error) {
	prefix := propertyKey(itemKey, "")
	keys, stored, err := c.Scan(prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}

	bag := &PropertyBag{
		client:  c,
		itemKey: itemKey,
		values:  make(map[string]string, len(keys)),
		staged:  make(map[string]string),
	}
	for _, k := range keys {
		// Property names never hold a colon; such keys belong to a longer
		// item key that shares this one as a prefix.
		name := strings.TrimPrefix(k, prefix)
		if strings.Contains(name, ":") {
			continue
		}
		bag.values[name] = stored[k]
	}
	return bag, nil
}

func (b *PropertyBag) Get(key string) (string, bool) {
	if v, ok := b.staged[key]; ok {
		return v, true
	}
	v, ok := b.values[key]
	return v, ok
}

func (b *PropertyBag) Set(key, value string) {
	b.staged[key] = value
}

// Save writes staged values and syncs once.
func (b *PropertyBag) Save(ctx context.Context) error {
	if len(b.staged) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	writes := make(map[string]string, len(b.staged))
	for k, v := range b.staged {
		writes[propertyKey(b.itemKey, k)] = v
	}
	if err := b.client.Put(writes); err != nil {
		return fmt.Errorf("failed to save properties: %w", err)
	}

	for k, v := range b.staged {
		b.values[k] = v
	}
	b.staged = make(map[string]string)
	return nil
}

// CountItems returns how many distinct items have stored properties.
func CountItems(c *Client) (int, error) {
	items, err := PropertyItemKeys(c)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// PropertyItemKeys returns every item key with stored properties, sorted.
// Item keys may contain colons; the property name never does.
func PropertyItemKeys(c *Client) ([]string, error) {
	keys, _, err := c.Scan(propertyPrefix)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var items []string
	for _, k := range keys {
		rest := strings.TrimPrefix(k, propertyPrefix)
		i := strings.LastIndex(rest, ":")
		if i < 0 || seen[rest[:i]] {
			continue
		}
		seen[rest[:i]] = true
		items = append(items, rest[:i])
	}
	sort.Strings(items)
	return items, nil
}
