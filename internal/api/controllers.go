package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ruphautomations/ruphctl/internal/domain"
)

// ErrValidation marks failures caught before any network I/O.
var ErrValidation = errors.New("validation")

type listControllersResponse struct {
	Systems []domain.Controller `json:"systems"`
}

type getControllerResponse struct {
	System *domain.Controller `json:"system"`
}

type activateRequest struct {
	OwnerEmail     string `json:"ownerEmail"`
	ControllerName string `json:"controllerName"`
	IsActivated    bool   `json:"isActivated"`
}

// ListControllers fetches the controllers owned by ownerEmail, in the order
// the backend returns them. An empty list is a normal outcome, not an
// error. Rotated tokens in the response are persisted as a side effect.
func (c *Client) ListControllers(ctx context.Context, ownerEmail string) ([]domain.Controller, error) {
	if ownerEmail == "" {
		return nil, fmt.Errorf("%w: owner email is required", ErrValidation)
	}
	var res listControllersResponse
	// The backend expects the trailing slash before the query.
	path := "/system/get-all-controllers/?email=" + url.QueryEscape(ownerEmail)
	if _, err := c.call(ctx, "list_controllers", http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res.Systems, nil
}

// GetController fetches one controller by its numeric ID.
func (c *Client) GetController(ctx context.Context, id int) (*domain.Controller, error) {
	var res getControllerResponse
	path := fmt.Sprintf("/system/get-controller/%d", id)
	if _, err := c.call(ctx, "get_controller", http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	if res.System == nil {
		return nil, fmt.Errorf("controller %d missing from response", id)
	}
	return res.System, nil
}

// ActivateController claims the controller pre-provisioned under batchID for
// ownerEmail. The client asserts isActivated itself rather than asking the
// server to decide. Batch ID and name are validated before any request is
// issued.
func (c *Client) ActivateController(ctx context.Context, batchID, controllerName, ownerEmail string) error {
	if batchID == "" {
		return fmt.Errorf("%w: controller batch id is required", ErrValidation)
	}
	if controllerName == "" {
		return fmt.Errorf("%w: controller name is required", ErrValidation)
	}
	if ownerEmail == "" {
		return fmt.Errorf("%w: owner email is required", ErrValidation)
	}
	body := activateRequest{
		OwnerEmail:     ownerEmail,
		ControllerName: controllerName,
		IsActivated:    true,
	}
	path := "/system/update-controller/" + url.PathEscape(batchID)
	_, err := c.call(ctx, "activate_controller", http.MethodPatch, path, body, nil)
	return err
}
