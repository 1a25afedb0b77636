package samsara

import (
	"context"
	"encoding/json"
	"strings"
)

// ListTags fetches every organization tag, walking all pages.
func (c *Client) ListTags(ctx context.Context) ([]Tag, error) {
	var out []Tag
	err := c.listPages(ctx, "/tags", nil, func(data json.RawMessage) error {
		var page []Tag
		if err := json.Unmarshal(data, &page); err != nil {
			return err
		}
		out = append(out, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TagIndex maps tag names to ids and ids to names for one organization.
// Name lookups are case-insensitive; tag casing on the remote side is not
// under this system's control.
type TagIndex struct {
	byName map[string]string
	byID   map[string]string
}

// NewTagIndex builds an index over the given tags.
func NewTagIndex(tags []Tag) *TagIndex {
	idx := &TagIndex{
		byName: make(map[string]string, len(tags)),
		byID:   make(map[string]string, len(tags)),
	}
	for _, t := range tags {
		if t.ID == "" || t.Name == "" {
			continue
		}
		idx.byName[tagNameKey(t.Name)] = t.ID
		idx.byID[t.ID] = t.Name
	}
	return idx
}

// IDFor resolves a tag name to its id, ignoring case.
func (x *TagIndex) IDFor(name string) (string, bool) {
	id, ok := x.byName[tagNameKey(name)]
	return id, ok
}

// NameFor resolves a tag id to its name.
func (x *TagIndex) NameFor(id string) (string, bool) {
	name, ok := x.byID[id]
	return name, ok
}

// Names returns the id → name view, used to resolve tag ids on records that
// carry only tagIds.
func (x *TagIndex) Names() map[string]string {
	return x.byID
}

func tagNameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
