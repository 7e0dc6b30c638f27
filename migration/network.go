// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package migration

import (
	"context"

	"github.com/juju/errors"
)

// NetworkTarget names the network a migration moves resources onto.
// The subnetwork may be left empty for an auto-mode network, in which
// case it defaults to the network name during resolution.
type NetworkTarget struct {
	Network            string
	Subnetwork         string
	PreserveExternalIP bool
	PreserveInternalIP bool
}

// resolvedTarget is a NetworkTarget resolved against a region:
// canonical links plus the preserve flags carried through.
type resolvedTarget struct {
	NetworkTarget
	networkLink    string
	subnetworkLink string
}

// resolve validates the target against the remote network definition
// and produces canonical links for the given region. A legacy network
// is rejected outright; a custom-mode network requires an explicit
// subnetwork; an auto-mode network defaults the subnetwork name to
// the network name. The named subnetwork must appear among the
// network's declared subnetworks for the region.
func (t NetworkTarget) resolve(ctx context.Context, conn Connection, region string) (*resolvedTarget, error) {
	network, err := conn.Network(ctx, t.Network)
	if err != nil {
		return nil, errors.Annotatef(err, "reading network %q", t.Network)
	}
	// Legacy networks carry an IPv4 range and no subnetwork mode at
	// all; they cannot be a migration target.
	if network.IPv4Range != "" {
		return nil, errors.Annotatef(ErrInvalidTargetNetwork, "network %q", t.Network)
	}
	subnetwork := t.Subnetwork
	if subnetwork == "" {
		if !network.AutoCreateSubnetworks {
			return nil, errors.Annotatef(ErrMissingSubnetwork, "network %q", t.Network)
		}
		subnetwork = t.Network
	}
	partial := "regions/" + region + "/subnetworks/" + subnetwork
	resolved := &resolvedTarget{NetworkTarget: t, networkLink: network.SelfLink}
	for _, link := range network.Subnetworks {
		if linksMatch(link, partial) {
			resolved.subnetworkLink = link
			return resolved, nil
		}
	}
	// The network's subnetwork list can lag behind a fresh subnetwork,
	// so confirm against the region's own listing before giving up.
	subnets, err := conn.Subnetworks(ctx, region)
	if err != nil {
		return nil, errors.Annotatef(err, "listing subnetworks in %q", region)
	}
	for _, subnet := range subnets {
		if subnet.Name == subnetwork && linksMatch(subnet.Network, network.SelfLink) {
			resolved.subnetworkLink = subnet.SelfLink
			return resolved, nil
		}
	}
	return nil, errors.Annotatef(ErrSubnetworkNotFound, "subnetwork %q in region %q", subnetwork, region)
}
