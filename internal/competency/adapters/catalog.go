package adapters

import (
	"context"

	entitlementports "toolgate/internal/entitlement/ports"
	"toolgate/pkg/domain"
)

// CapabilityCatalog resolves capability display names from the entitlement
// capability catalog.
type CapabilityCatalog struct {
	store entitlementports.CapabilityStore
}

func NewCapabilityCatalog(store entitlementports.CapabilityStore) *CapabilityCatalog {
	return &CapabilityCatalog{store: store}
}

func (c *CapabilityCatalog) Name(ctx context.Context, capabilityID domain.CapabilityID) (string, error) {
	capability, err := c.store.Get(ctx, capabilityID)
	if err != nil {
		return "", err
	}
	return capability.Name, nil
}
