package model

// ItemType is the kind of content a call item or card cell carries
type ItemType string

const (
	ItemText   ItemType = "text"
	ItemImage  ItemType = "image"
	ItemNumber ItemType = "number"
	ItemEmpty  ItemType = "empty" // unfilled 90-ball strip cell
)

// FreeSpaceKey is the sentinel key of a free-space card cell
const FreeSpaceKey = -1

// CallItem is one entry of a call deck, and also one cell of a player card
type CallItem struct {
	Key    int      `json:"key"`
	Type   ItemType `json:"type"`
	Value  string   `json:"value"`
	Head   string   `json:"head,omitempty"`
	Called bool     `json:"called"`
}

// IsEmpty reports whether the cell holds no item
func (c CallItem) IsEmpty() bool {
	return c.Type == ItemEmpty
}

// CallItems is an ordered deck or card
type CallItems []CallItem

// Clone returns a copy that shares nothing with c
func (c CallItems) Clone() CallItems {
	if c == nil {
		return CallItems{}
	}
	out := make(CallItems, len(c))
	copy(out, c)
	return out
}

// IndexOfKey returns the position of the first item with the given key, or -1
func (c CallItems) IndexOfKey(key int) int {
	for i, item := range c {
		if item.Key == key {
			return i
		}
	}
	return -1
}

// Keys returns the keys of every non-empty item
func (c CallItems) Keys() []int {
	keys := make([]int, 0, len(c))
	for _, item := range c {
		if !item.IsEmpty() {
			keys = append(keys, item.Key)
		}
	}
	return keys
}
