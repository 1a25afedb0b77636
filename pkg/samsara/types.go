// Package samsara provides a typed client for the subset of the Samsara
// fleet-management API the sync engine uses: addresses, drivers, and tags.
// The client applies bounded retries with exponential backoff and jitter,
// an optional client-side request throttle, and cursor pagination. External-id
// conflicts are surfaced as typed errors so the planner can record them as
// specific failure reasons.
package samsara

import "encoding/json"

// Tag is a remote organization tag.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LatLng is a geographic coordinate pair.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Circle is the canonical geofence shape the engine manages.
type Circle struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters int     `json:"radiusMeters"`
}

// Geofence is an address geofence. Exactly one shape is populated. Polygon
// geofences are hand-drawn in the remote UI and kept opaque: the engine never
// reads into or overwrites them. The legacy center/radius shape appears on
// records created before the circle shape existed.
type Geofence struct {
	Circle  *Circle         `json:"circle,omitempty"`
	Polygon json.RawMessage `json:"polygon,omitempty"`

	// Legacy shape, normalized to Circle before comparison.
	Center       *LatLng `json:"center,omitempty"`
	RadiusMeters int     `json:"radiusMeters,omitempty"`
}

// HasPolygon reports whether the geofence carries an opaque polygon.
func (g *Geofence) HasPolygon() bool {
	return g != nil && len(g.Polygon) > 0 && string(g.Polygon) != "null"
}

// Canonical returns the circle form of the geofence, converting the legacy
// center/radius shape when present. Returns nil for polygon or empty
// geofences.
func (g *Geofence) Canonical() *Circle {
	if g == nil || g.HasPolygon() {
		return nil
	}
	if g.Circle != nil {
		return g.Circle
	}
	if g.Center != nil {
		return &Circle{
			Latitude:     g.Center.Latitude,
			Longitude:    g.Center.Longitude,
			RadiusMeters: g.RadiusMeters,
		}
	}
	return nil
}

// Address is a remote address record.
type Address struct {
	ID               string            `json:"id,omitempty"`
	Name             string            `json:"name,omitempty"`
	FormattedAddress string            `json:"formattedAddress,omitempty"`
	Geofence         *Geofence         `json:"geofence,omitempty"`
	ExternalIDs      map[string]string `json:"externalIds,omitempty"`
	TagIDs           []string          `json:"tagIds,omitempty"`
	Tags             []Tag             `json:"tags,omitempty"`
}

// TagNames collects the tag names attached to the address, resolving tag ids
// through the provided id → name index when the expanded tag objects are
// absent.
func (a *Address) TagNames(idToName map[string]string) []string {
	names := make([]string, 0, len(a.Tags)+len(a.TagIDs))
	for _, t := range a.Tags {
		if t.Name != "" {
			names = append(names, t.Name)
		}
	}
	for _, id := range a.TagIDs {
		if name, ok := idToName[id]; ok {
			names = append(names, name)
		}
	}
	return names
}

// AllTagIDs collects tag ids from both the id list and expanded tag objects.
func (a *Address) AllTagIDs() []string {
	ids := make([]string, 0, len(a.TagIDs)+len(a.Tags))
	ids = append(ids, a.TagIDs...)
	for _, t := range a.Tags {
		if t.ID != "" {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// Driver is a remote driver record.
type Driver struct {
	ID             string            `json:"id,omitempty"`
	FirstName      string            `json:"firstName,omitempty"`
	LastName       string            `json:"lastName,omitempty"`
	Username       string            `json:"username,omitempty"`
	Email          string            `json:"email,omitempty"`
	PrimaryPhone   string            `json:"primaryPhone,omitempty"`
	SecondaryPhone string            `json:"secondaryPhone,omitempty"`
	TimeZone       string            `json:"timeZone,omitempty"`
	IsDeactivated  bool              `json:"isDeactivated,omitempty"`
	ExternalIDs    map[string]string `json:"externalIds,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	TagIDs         []string          `json:"tagIds,omitempty"`
	Tags           []Tag             `json:"tags,omitempty"`
}

// AllTagIDs collects tag ids from both the id list and expanded tag objects.
func (d *Driver) AllTagIDs() []string {
	ids := make([]string, 0, len(d.TagIDs)+len(d.Tags))
	ids = append(ids, d.TagIDs...)
	for _, t := range d.Tags {
		if t.ID != "" {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// AddressPatch is a minimal field-level patch for an address. Nil pointer
// fields are omitted from the wire payload; ClearGeofence sends an explicit
// null to drop the geofence.
type AddressPatch struct {
	Name             *string
	FormattedAddress *string
	Geofence         *Geofence
	ClearGeofence    bool
	ExternalIDs      map[string]string
	TagIDs           []string
}

// IsZero reports whether the patch would produce no wire payload.
func (p *AddressPatch) IsZero() bool {
	return p == nil || (p.Name == nil && p.FormattedAddress == nil &&
		p.Geofence == nil && !p.ClearGeofence &&
		p.ExternalIDs == nil && p.TagIDs == nil)
}

// Wire maps the patch onto the JSON body sent to the remote API. Payload
// shaping stays at this boundary so the diff builder works in typed terms.
func (p *AddressPatch) Wire() map[string]any {
	body := map[string]any{}
	if p == nil {
		return body
	}
	if p.Name != nil {
		body["name"] = *p.Name
	}
	if p.FormattedAddress != nil {
		body["formattedAddress"] = *p.FormattedAddress
	}
	if p.Geofence != nil {
		body["geofence"] = p.Geofence
	} else if p.ClearGeofence {
		body["geofence"] = nil
	}
	if p.ExternalIDs != nil {
		body["externalIds"] = p.ExternalIDs
	}
	if p.TagIDs != nil {
		body["tagIds"] = p.TagIDs
	}
	return body
}

// DriverPatch is a minimal field-level patch for a driver. Metadata values
// of nil mean "remove this metadata key".
type DriverPatch struct {
	FirstName      *string
	LastName       *string
	Username       *string
	Email          *string
	PrimaryPhone   *string
	SecondaryPhone *string
	TimeZone       *string
	IsDeactivated  *bool
	ExternalIDs    map[string]string
	Metadata       map[string]*string
	TagIDs         []string
}

// IsZero reports whether the patch would produce no wire payload.
func (p *DriverPatch) IsZero() bool {
	return p == nil || (p.FirstName == nil && p.LastName == nil &&
		p.Username == nil && p.Email == nil && p.PrimaryPhone == nil &&
		p.SecondaryPhone == nil && p.TimeZone == nil && p.IsDeactivated == nil &&
		p.ExternalIDs == nil && p.Metadata == nil && p.TagIDs == nil)
}

// Wire maps the patch onto the JSON body sent to the remote API.
func (p *DriverPatch) Wire() map[string]any {
	body := map[string]any{}
	if p == nil {
		return body
	}
	set := func(key string, v *string) {
		if v != nil {
			body[key] = *v
		}
	}
	set("firstName", p.FirstName)
	set("lastName", p.LastName)
	set("username", p.Username)
	set("email", p.Email)
	set("primaryPhone", p.PrimaryPhone)
	set("secondaryPhone", p.SecondaryPhone)
	set("timeZone", p.TimeZone)
	if p.IsDeactivated != nil {
		body["isDeactivated"] = *p.IsDeactivated
	}
	if p.ExternalIDs != nil {
		body["externalIds"] = p.ExternalIDs
	}
	if p.Metadata != nil {
		meta := make(map[string]any, len(p.Metadata))
		for k, v := range p.Metadata {
			if v == nil {
				meta[k] = nil
			} else {
				meta[k] = *v
			}
		}
		body["metadata"] = meta
	}
	if p.TagIDs != nil {
		body["tagIds"] = p.TagIDs
	}
	return body
}
