// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package google

import (
	"context"

	"github.com/juju/errors"
	"google.golang.org/api/compute/v1"
)

// Network returns the named network's configuration, including its
// declared subnetworks.
func (c *Connection) Network(ctx context.Context, name string) (*compute.Network, error) {
	network, err := c.service.Networks.Get(c.projectID, name).Context(ctx).Do()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return network, nil
}

// Subnetworks returns the subnetworks available in the region.
func (c *Connection) Subnetworks(ctx context.Context, region string) ([]*compute.Subnetwork, error) {
	call := c.service.Subnetworks.List(c.projectID, region).Context(ctx)
	var results []*compute.Subnetwork
	err := call.Pages(ctx, func(page *compute.SubnetworkList) error {
		results = append(results, page.Items...)
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return results, nil
}

// ReserveAddress promotes the described address to a static
// reservation in the region. Reserving an address that is already
// static fails with a reason the caller can treat as benign.
func (c *Connection) ReserveAddress(ctx context.Context, region string, address *compute.Address) error {
	logger.Debugf("address insert request: %q in %s", address.Name, region)
	op, err := c.service.Addresses.Insert(c.projectID, region, address).Context(ctx).Do()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.waitRegionOperation(ctx, region, op))
}
