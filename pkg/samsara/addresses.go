package samsara

import (
	"context"
	"encoding/json"
	"net/http"
)

// ListAddresses fetches every address in the organization, walking all pages.
func (c *Client) ListAddresses(ctx context.Context) ([]Address, error) {
	var out []Address
	err := c.listPages(ctx, "/addresses", nil, func(data json.RawMessage) error {
		var page []Address
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

// GetAddress fetches a single address by id.
func (c *Client) GetAddress(ctx context.Context, id string) (*Address, error) {
	var addr Address
	if err := c.get(ctx, "/addresses/"+id, nil, &addr); err != nil {
		return nil, err
	}
	return &addr, nil
}

// CreateAddress creates a new address and returns the created record.
func (c *Client) CreateAddress(ctx context.Context, addr *Address) (*Address, error) {
	var created Address
	if err := c.write(ctx, http.MethodPost, "/addresses", addr, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// PatchAddress applies a field-level patch to an existing address.
func (c *Client) PatchAddress(ctx context.Context, id string, patch *AddressPatch) (*Address, error) {
	var updated Address
	if err := c.write(ctx, http.MethodPatch, "/addresses/"+id, patch.Wire(), &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteAddress permanently removes an address.
func (c *Client) DeleteAddress(ctx context.Context, id string) error {
	return c.write(ctx, http.MethodDelete, "/addresses/"+id, nil, nil)
}
