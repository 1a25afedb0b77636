package samsara

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// ListDrivers fetches drivers in the organization. Deactivated drivers are
// excluded by the remote API unless includeDeactivated is set.
func (c *Client) ListDrivers(ctx context.Context, includeDeactivated bool) ([]Driver, error) {
	var out []Driver
	collect := func(data json.RawMessage) error {
		var page []Driver
		if err := json.Unmarshal(data, &page); err != nil {
			return err
		}
		out = append(out, page...)
		return nil
	}
	if err := c.listPages(ctx, "/fleet/drivers", nil, collect); err != nil {
		return nil, err
	}
	if includeDeactivated {
		q := url.Values{"driverActivationStatus": {"deactivated"}}
		if err := c.listPages(ctx, "/fleet/drivers", q, collect); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// GetDriver fetches a single driver by id.
func (c *Client) GetDriver(ctx context.Context, id string) (*Driver, error) {
	var d Driver
	if err := c.get(ctx, "/fleet/drivers/"+id, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDriver creates a new driver and returns the created record.
func (c *Client) CreateDriver(ctx context.Context, d *Driver) (*Driver, error) {
	var created Driver
	if err := c.write(ctx, http.MethodPost, "/fleet/drivers", d, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// PatchDriver applies a field-level patch to an existing driver.
func (c *Client) PatchDriver(ctx context.Context, id string, patch *DriverPatch) (*Driver, error) {
	var updated Driver
	if err := c.write(ctx, http.MethodPatch, "/fleet/drivers/"+id, patch.Wire(), &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}
