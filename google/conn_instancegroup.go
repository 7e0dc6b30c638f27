// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package google

import (
	"context"

	"github.com/juju/errors"
	"google.golang.org/api/compute/v1"
)

// InstanceGroup returns the named zonal instance group's
// configuration.
func (c *Connection) InstanceGroup(ctx context.Context, zone, name string) (*compute.InstanceGroup, error) {
	group, err := c.service.InstanceGroups.Get(c.projectID, zone, name).Context(ctx).Do()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return group, nil
}

// InstanceGroupMembers returns the self links of every instance in
// the named zonal instance group.
func (c *Connection) InstanceGroupMembers(ctx context.Context, zone, name string) ([]string, error) {
	req := &compute.InstanceGroupsListInstancesRequest{}
	call := c.service.InstanceGroups.ListInstances(c.projectID, zone, name, req).Context(ctx)
	var members []string
	err := call.Pages(ctx, func(page *compute.InstanceGroupsListInstances) error {
		for _, item := range page.Items {
			members = append(members, item.Instance)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return members, nil
}

// CreateInstanceGroup inserts a zonal instance group from the given
// configuration.
func (c *Connection) CreateInstanceGroup(ctx context.Context, zone string, group *compute.InstanceGroup) error {
	logger.Debugf("instance group insert request: %q in %s", group.Name, zone)
	op, err := c.service.InstanceGroups.Insert(c.projectID, zone, group).Context(ctx).Do()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.waitZoneOperation(ctx, zone, op))
}

// DeleteInstanceGroup removes the named zonal instance group.
func (c *Connection) DeleteInstanceGroup(ctx context.Context, zone, name string) error {
	op, err := c.service.InstanceGroups.Delete(c.projectID, zone, name).Context(ctx).Do()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.waitZoneOperation(ctx, zone, op))
}

// AddInstanceGroupMember adds the instance with the given self link
// to the named zonal instance group.
func (c *Connection) AddInstanceGroupMember(ctx context.Context, zone, name, instanceLink string) error {
	req := &compute.InstanceGroupsAddInstancesRequest{
		Instances: []*compute.InstanceReference{{Instance: instanceLink}},
	}
	op, err := c.service.InstanceGroups.AddInstances(c.projectID, zone, name, req).Context(ctx).Do()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.waitZoneOperation(ctx, zone, op))
}

// InstanceGroupManager returns the named zonal managed instance
// group's configuration.
func (c *Connection) InstanceGroupManager(ctx context.Context, zone, name string) (*compute.InstanceGroupManager, error) {
	mgr, err := c.service.InstanceGroupManagers.Get(c.projectID, zone, name).Context(ctx).Do()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return mgr, nil
}

// RegionInstanceGroupManager returns the named regional managed
// instance group's configuration.
func (c *Connection) RegionInstanceGroupManager(ctx context.Context, region, name string) (*compute.InstanceGroupManager, error) {
	mgr, err := c.service.RegionInstanceGroupManagers.Get(c.projectID, region, name).Context(ctx).Do()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return mgr, nil
}

// CreateInstanceGroupManager inserts a zonal managed instance group
// from the given configuration.
func (c *Connection) CreateInstanceGroupManager(ctx context.Context, zone string, mgr *compute.InstanceGroupManager) error {
	logger.Debugf("instance group manager insert request: %q in %s", mgr.Name, zone)
	op, err := c.service.InstanceGroupManagers.Insert(c.projectID, zone, mgr).Context(ctx).Do()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.waitZoneOperation(ctx, zone, op))
}

// DeleteInstanceGroupManager removes the named zonal managed
// instance group, destroying its instances.
func (c *Connection) DeleteInstanceGroupManager(ctx context.Context, zone, name string) error {
	op, err := c.service.InstanceGroupManagers.Delete(c.projectID, zone, name).Context(ctx).Do()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.waitZoneOperation(ctx, zone, op))
}

// SetInstanceGroupManagerTargetPools replaces the target pool list of
// the named zonal managed instance group.
func (c *Connection) SetInstanceGroupManagerTargetPools(ctx context.Context, zone, name string, targetPools []string) error {
	req := &compute.InstanceGroupManagersSetTargetPoolsRequest{
		TargetPools:     targetPools,
		ForceSendFields: []string{"TargetPools"},
	}
	op, err := c.service.InstanceGroupManagers.SetTargetPools(c.projectID, zone, name, req).Context(ctx).Do()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.waitZoneOperation(ctx, zone, op))
}

// CreateRegionInstanceGroupManager inserts a regional managed
// instance group from the given configuration.
func (c *Connection) CreateRegionInstanceGroupManager(ctx context.Context, region string, mgr *compute.InstanceGroupManager) error {
	logger.Debugf("region instance group manager insert request: %q in %s", mgr.Name, region)
	op, err := c.service.RegionInstanceGroupManagers.Insert(c.projectID, region, mgr).Context(ctx).Do()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.waitRegionOperation(ctx, region, op))
}

// DeleteRegionInstanceGroupManager removes the named regional managed
// instance group, destroying its instances.
func (c *Connection) DeleteRegionInstanceGroupManager(ctx context.Context, region, name string) error {
	op, err := c.service.RegionInstanceGroupManagers.Delete(c.projectID, region, name).Context(ctx).Do()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.waitRegionOperation(ctx, region, op))
}

// SetRegionInstanceGroupManagerTargetPools replaces the target pool
// list of the named regional managed instance group.
func (c *Connection) SetRegionInstanceGroupManagerTargetPools(ctx context.Context, region, name string, targetPools []string) error {
	req := &compute.RegionInstanceGroupManagersSetTargetPoolsRequest{
		TargetPools:     targetPools,
		ForceSendFields: []string{"TargetPools"},
	}
	op, err := c.service.RegionInstanceGroupManagers.SetTargetPools(c.projectID, region, name, req).Context(ctx).Do()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.waitRegionOperation(ctx, region, op))
}

// InstanceTemplate returns the named instance template.
func (c *Connection) InstanceTemplate(ctx context.Context, name string) (*compute.InstanceTemplate, error) {
	tmpl, err := c.service.InstanceTemplates.Get(c.projectID, name).Context(ctx).Do()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return tmpl, nil
}

// CreateInstanceTemplate inserts the given instance template.
func (c *Connection) CreateInstanceTemplate(ctx context.Context, tmpl *compute.InstanceTemplate) error {
	logger.Debugf("instance template insert request: %q", tmpl.Name)
	op, err := c.service.InstanceTemplates.Insert(c.projectID, tmpl).Context(ctx).Do()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.waitGlobalOperation(ctx, op))
}

// DeleteInstanceTemplate removes the named instance template.
func (c *Connection) DeleteInstanceTemplate(ctx context.Context, name string) error {
	op, err := c.service.InstanceTemplates.Delete(c.projectID, name).Context(ctx).Do()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.waitGlobalOperation(ctx, op))
}

// AutoscalerForTarget returns the zonal autoscaler targeting the
// given self link, or a NotFound error if none does.
func (c *Connection) AutoscalerForTarget(ctx context.Context, zone, targetLink string) (*compute.Autoscaler, error) {
	call := c.service.Autoscalers.List(c.projectID, zone).Context(ctx)
	var found *compute.Autoscaler
	err := call.Pages(ctx, func(page *compute.AutoscalerList) error {
		for _, scaler := range page.Items {
			if scaler.Target == targetLink {
				found = scaler
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if found == nil {
		return nil, errors.NotFoundf("autoscaler for %q", targetLink)
	}
	return found, nil
}

// RegionAutoscalerForTarget returns the regional autoscaler targeting
// the given self link, or a NotFound error if none does.
func (c *Connection) RegionAutoscalerForTarget(ctx context.Context, region, targetLink string) (*compute.Autoscaler, error) {
	call := c.service.RegionAutoscalers.List(c.projectID, region).Context(ctx)
	var found *compute.Autoscaler
	err := call.Pages(ctx, func(page *compute.RegionAutoscalerList) error {
		for _, scaler := range page.Items {
			if scaler.Target == targetLink {
				found = scaler
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if found == nil {
		return nil, errors.NotFoundf("autoscaler for %q", targetLink)
	}
	return found, nil
}
