// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package google

import (
	"context"

	"github.com/juju/errors"
	"google.golang.org/api/compute/v1"
)

// Instance returns the named instance's current configuration.
func (c *Connection) Instance(ctx context.Context, zone, name string) (*compute.Instance, error) {
	inst, err := c.service.Instances.Get(c.projectID, zone, name).Context(ctx).Do()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return inst, nil
}

// StopInstance stops the named instance and waits for it to reach
// TERMINATED.
func (c *Connection) StopInstance(ctx context.Context, zone, name string) error {
	op, err := c.service.Instances.Stop(c.projectID, zone, name).Context(ctx).Do()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.waitZoneOperation(ctx, zone, op))
}

// StartInstance starts the named instance.
func (c *Connection) StartInstance(ctx context.Context, zone, name string) error {
	op, err := c.service.Instances.Start(c.projectID, zone, name).Context(ctx).Do()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.waitZoneOperation(ctx, zone, op))
}

// CreateInstance inserts an instance built from the given
// configuration.
func (c *Connection) CreateInstance(ctx context.Context, zone string, inst *compute.Instance) error {
	logger.Debugf("instance insert request: %q in %s", inst.Name, zone)
	op, err := c.service.Instances.Insert(c.projectID, zone, inst).Context(ctx).Do()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.waitZoneOperation(ctx, zone, op))
}

// DeleteInstance removes the named instance.
func (c *Connection) DeleteInstance(ctx context.Context, zone, name string) error {
	op, err := c.service.Instances.Delete(c.projectID, zone, name).Context(ctx).Do()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.waitZoneOperation(ctx, zone, op))
}

// DetachDisk detaches the device from the named instance.
func (c *Connection) DetachDisk(ctx context.Context, zone, instance, deviceName string) error {
	op, err := c.service.Instances.DetachDisk(c.projectID, zone, instance, deviceName).Context(ctx).Do()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.waitZoneOperation(ctx, zone, op))
}

// AttachDisk attaches the described disk to the named instance,
// forcing attachment if the disk reports itself in use.
func (c *Connection) AttachDisk(ctx context.Context, zone, instance string, disk *compute.AttachedDisk) error {
	op, err := c.service.Instances.AttachDisk(c.projectID, zone, instance, disk).
		ForceAttach(true).Context(ctx).Do()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.waitZoneOperation(ctx, zone, op))
}

// InstanceReferrers returns the self links of the resources holding a
// MEMBER_OF reference to the named instance, i.e. the instance groups
// it belongs to.
func (c *Connection) InstanceReferrers(ctx context.Context, zone, name string) ([]string, error) {
	call := c.service.Instances.ListReferrers(c.projectID, zone, name).Context(ctx)
	var results []string
	err := call.Pages(ctx, func(page *compute.InstanceListReferrers) error {
		for _, ref := range page.Items {
			if ref.ReferenceType == "MEMBER_OF" {
				results = append(results, ref.Referrer)
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return results, nil
}
