// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package migration

import (
	"context"
	"strings"

	"github.com/juju/errors"
	"google.golang.org/api/compute/v1"

	"github.com/gcetools/netmigrate/google"
)

// managedGroupMarker appears in the description GCE writes on the
// instance group that backs an instance group manager.
const managedGroupMarker = "Instance Group Manager"

func groupIsManaged(group *compute.InstanceGroup) bool {
	return strings.Contains(group.Description, managedGroupMarker)
}

// resolveHandle inspects the resource a locator points at and builds
// the handle for its kind. Kinds that cannot be migrated resolve to an
// ErrUnsupportedKind error; nothing is mutated here.
func resolveHandle(ctx context.Context, e *engine, loc Locator) (Handler, error) {
	switch loc.Collection {
	case "instances":
		return newInstanceHandle(ctx, e, loc)

	case "instanceGroups":
		return resolveInstanceGroup(ctx, e, loc)

	case "instanceGroupManagers":
		if loc.Region != "" {
			manager, err := e.conn.RegionInstanceGroupManager(ctx, loc.Region, loc.Name)
			if err != nil {
				return nil, errors.Annotatef(err, "fetching region instance group manager %q", loc.Name)
			}
			return newManagedGroupHandle(ctx, e, loc, true, manager)
		}
		manager, err := e.conn.InstanceGroupManager(ctx, loc.Zone, loc.Name)
		if err != nil {
			return nil, errors.Annotatef(err, "fetching instance group manager %q", loc.Name)
		}
		return newManagedGroupHandle(ctx, e, loc, false, manager)

	case "targetPools":
		pool, err := e.conn.TargetPool(ctx, loc.Region, loc.Name)
		if err != nil {
			return nil, errors.Annotatef(err, "fetching target pool %q", loc.Name)
		}
		return newTargetPoolHandle(ctx, e, loc, pool)

	case "backendServices":
		if loc.Region != "" {
			service, err := e.conn.RegionBackendService(ctx, loc.Region, loc.Name)
			if err != nil {
				return nil, errors.Annotatef(err, "fetching backend service %q", loc.Name)
			}
			return newBackendServiceHandle(ctx, e, loc, true, service)
		}
		service, err := e.conn.BackendService(ctx, loc.Name)
		if err != nil {
			return nil, errors.Annotatef(err, "fetching backend service %q", loc.Name)
		}
		return newBackendServiceHandle(ctx, e, loc, false, service)

	case "forwardingRules":
		return resolveForwardingRule(ctx, e, loc)

	case "globalForwardingRules":
		rule, err := e.conn.GlobalForwardingRule(ctx, loc.Name)
		if err != nil {
			return nil, errors.Annotatef(err, "fetching global forwarding rule %q", loc.Name)
		}
		return newGlobalRuleHandle(ctx, e, loc, rule)
	}
	return nil, errors.Annotatef(ErrUnsupportedKind, "resource collection %q", loc.Collection)
}

// resolveInstanceGroup distinguishes the three group kinds hiding
// behind one collection. A zonal lookup that misses is retried as a
// regional group in the zone's region, since regional managed groups
// are often referenced by zone-qualified names.
func resolveInstanceGroup(ctx context.Context, e *engine, loc Locator) (Handler, error) {
	if loc.Region != "" {
		manager, err := e.conn.RegionInstanceGroupManager(ctx, loc.Region, loc.Name)
		if err != nil {
			return nil, errors.Annotatef(err, "fetching region instance group manager %q", loc.Name)
		}
		return newManagedGroupHandle(ctx, e, loc, true, manager)
	}
	group, err := e.conn.InstanceGroup(ctx, loc.Zone, loc.Name)
	if err != nil {
		if !google.IsNotFound(err) {
			return nil, errors.Annotatef(err, "fetching instance group %q", loc.Name)
		}
		regional := loc
		regional.Region = regionFromZone(loc.Zone)
		regional.Zone = ""
		manager, err := e.conn.RegionInstanceGroupManager(ctx, regional.Region, regional.Name)
		if err != nil {
			return nil, errors.Annotatef(err, "fetching instance group %q", loc.Name)
		}
		return newManagedGroupHandle(ctx, e, regional, true, manager)
	}
	if groupIsManaged(group) {
		manager, err := e.conn.InstanceGroupManager(ctx, loc.Zone, loc.Name)
		if err != nil {
			return nil, errors.Annotatef(err, "fetching instance group manager %q", loc.Name)
		}
		return newManagedGroupHandle(ctx, e, loc, false, manager)
	}
	return newUnmanagedGroupHandle(ctx, e, loc, group)
}

func resolveForwardingRule(ctx context.Context, e *engine, loc Locator) (Handler, error) {
	if loc.Region == "" {
		rule, err := e.conn.GlobalForwardingRule(ctx, loc.Name)
		if err != nil {
			return nil, errors.Annotatef(err, "fetching global forwarding rule %q", loc.Name)
		}
		return newGlobalRuleHandle(ctx, e, loc, rule)
	}
	rule, err := e.conn.ForwardingRule(ctx, loc.Region, loc.Name)
	if err != nil {
		return nil, errors.Annotatef(err, "fetching forwarding rule %q", loc.Name)
	}
	if rule.LoadBalancingScheme == schemeInternal {
		return newInternalRuleHandle(ctx, e, loc, rule)
	}
	return newExternalRuleHandle(ctx, e, loc, rule)
}
