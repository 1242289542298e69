package leadwatcher

import (
	"context"
	"net/url"

	"github.com/sells-group/leadwatcher/internal/icp"
)

// ListProfiles returns a page of ICP profiles.
func (c *Client) ListProfiles(ctx context.Context, q url.Values) (*Page[icp.Profile], error) {
	return getPage[icp.Profile](ctx, c, "list profiles", "/icp-profiles", q)
}

// GetProfile returns one profile with its definition upgraded to the
// canonical schema.
func (c *Client) GetProfile(ctx context.Context, id string) (*icp.Profile, error) {
	return getData[icp.Profile](ctx, c, "get profile "+id, "/icp-profiles/"+escape(id), nil)
}

// CreateProfile creates a profile from form data.
func (c *Client) CreateProfile(ctx context.Context, form icp.FormData) (*icp.Profile, error) {
	return postData[icp.Profile](ctx, c, "create profile", "/icp-profiles", form)
}

// UpdateProfile replaces a profile's name, definition and active flag.
func (c *Client) UpdateProfile(ctx context.Context, id string, form icp.FormData) (*icp.Profile, error) {
	return putData[icp.Profile](ctx, c, "update profile "+id, "/icp-profiles/"+escape(id), form)
}

// SetProfileActive patches only is_active.
func (c *Client) SetProfileActive(ctx context.Context, id string, active bool) (*icp.Profile, error) {
	body := map[string]bool{"is_active": active}
	return patchData[icp.Profile](ctx, c, "toggle profile "+id, "/icp-profiles/"+escape(id)+"/active", body)
}

// DuplicateProfile asks the server to clone a profile.
func (c *Client) DuplicateProfile(ctx context.Context, id string) (*icp.Profile, error) {
	return postData[icp.Profile](ctx, c, "duplicate profile "+id, "/icp-profiles/"+escape(id)+"/duplicate", nil)
}

// DeleteProfile hard-deletes a profile.
func (c *Client) DeleteProfile(ctx context.Context, id string) error {
	return c.delete(ctx, "delete profile "+id, "/icp-profiles/"+escape(id))
}
