// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package migration

import (
	"context"

	"github.com/juju/errors"
	"google.golang.org/api/compute/v1"

	"github.com/gcetools/netmigrate/google"
)

const instanceStatusRunning = "RUNNING"

// preserveOutcome reports what happened to an IP address the caller
// asked to keep across the migration.
type preserveOutcome int

const (
	preserveNotApplicable preserveOutcome = iota
	preserveDone
	preserveFellBack
)

type instanceHandle struct {
	*engine
	loc        Locator
	target     *resolvedTarget
	original   *compute.Instance
	updated    *compute.Instance
	wasRunning bool
	migrated   bool
}

func newInstanceHandle(ctx context.Context, e *engine, loc Locator) (*instanceHandle, error) {
	inst, err := e.conn.Instance(ctx, loc.Zone, loc.Name)
	if err != nil {
		return nil, errors.Annotatef(err, "reading instance %q", loc.Name)
	}
	if len(inst.NetworkInterfaces) == 0 {
		return nil, errors.NotValidf("instance %q without network interfaces", loc.Name)
	}
	target, err := e.target.resolve(ctx, e.conn, regionFromZone(loc.Zone))
	if err != nil {
		return nil, errors.Trace(err)
	}
	h := &instanceHandle{
		engine:     e,
		loc:        loc,
		target:     target,
		original:   inst,
		wasRunning: inst.Status == instanceStatusRunning,
	}
	h.updated = h.deriveConfig()
	return h, nil
}

// deriveConfig builds the new-network configuration from the original
// snapshot. The primary interface moves to the target network; the
// external IP is kept or released per the preserve flag; the internal
// IP is dropped unless preserved, since the old one is rarely valid
// in the new subnetwork's range.
func (h *instanceHandle) deriveConfig() *compute.Instance {
	updated := deepCopy(h.original)
	nic := updated.NetworkInterfaces[0]
	nic.Network = h.target.networkLink
	nic.Subnetwork = h.target.subnetworkLink
	nic.Fingerprint = ""
	if !h.target.PreserveExternalIP {
		for _, access := range nic.AccessConfigs {
			access.NatIP = ""
		}
	}
	if !h.target.PreserveInternalIP {
		nic.NetworkIP = ""
	}
	return updated
}

// Kind implements Handler.
func (h *instanceHandle) Kind() Kind { return KindInstance }

// Locator implements Handler.
func (h *instanceHandle) Locator() Locator { return h.loc }

func (h *instanceHandle) alreadyOnTarget() bool {
	return linksMatch(h.original.NetworkInterfaces[0].Subnetwork, h.target.subnetworkLink)
}

// Migrate implements Handler: stop, detach disks, delete, recreate
// under the target network with the same disks reattached.
func (h *instanceHandle) Migrate(ctx context.Context) (Checkpoint, error) {
	if h.migrated {
		return InstanceRecreated, nil
	}
	if h.alreadyOnTarget() {
		logger.Infof("instance %q is already using the target subnetwork", h.loc.Name)
		h.migrated = true
		return InstanceRecreated, nil
	}
	external, internal := h.preserveAddresses(ctx)
	if external == preserveFellBack || internal == preserveFellBack {
		logger.Warningf("instance %q will come back up with ephemeral addressing", h.loc.Name)
	}

	cp := CheckpointNone
	if h.wasRunning {
		logger.Infof("stopping instance %q", h.loc.Name)
		if err := h.conn.StopInstance(ctx, h.loc.Zone, h.loc.Name); err != nil {
			return cp, errors.Annotatef(err, "stopping instance %q", h.loc.Name)
		}
	}
	cp = InstanceStopped

	logger.Infof("detaching %d disk(s) from instance %q", len(h.original.Disks), h.loc.Name)
	for _, disk := range h.original.Disks {
		if err := h.conn.DetachDisk(ctx, h.loc.Zone, h.loc.Name, disk.DeviceName); err != nil {
			return cp, errors.Annotatef(err, "detaching disk %q", disk.DeviceName)
		}
	}
	cp = InstanceDisksDetached

	logger.Infof("deleting instance %q", h.loc.Name)
	if err := h.conn.DeleteInstance(ctx, h.loc.Zone, h.loc.Name); err != nil {
		if !google.IsNotFound(err) {
			return cp, errors.Annotatef(err, "deleting instance %q", h.loc.Name)
		}
	}
	cp = InstanceDeleted

	logger.Infof("creating instance %q in the target subnetwork", h.loc.Name)
	if err := h.conn.CreateInstance(ctx, h.loc.Zone, h.updated); err != nil {
		if !google.IsConflict(err) {
			return cp, errors.Annotatef(err, "creating instance %q", h.loc.Name)
		}
	}
	h.migrated = true
	return InstanceRecreated, nil
}

// preserveAddresses promotes the instance's current IPs to static
// reservations where requested. Failure is never fatal; the instance
// falls back to an ephemeral address with a logged warning.
func (h *instanceHandle) preserveAddresses(ctx context.Context) (external, internal preserveOutcome) {
	region := regionFromZone(h.loc.Zone)
	nic := h.original.NetworkInterfaces[0]
	external, internal = preserveNotApplicable, preserveNotApplicable

	if h.target.PreserveExternalIP && len(nic.AccessConfigs) > 0 && nic.AccessConfigs[0].NatIP != "" {
		address := &compute.Address{
			Name:    h.timestampName(h.loc.Name + "-ext"),
			Address: nic.AccessConfigs[0].NatIP,
		}
		switch err := h.conn.ReserveAddress(ctx, region, address); {
		case err == nil:
			logger.Infof("external IP %s reserved as a static address", address.Address)
			external = preserveDone
		case google.HasReason(err, "already"):
			// Already a static reservation; nothing to do.
			logger.Warningf("reserving external IP %s: %v", address.Address, err)
			external = preserveDone
		default:
			logger.Warningf("unable to reserve external IP %s, an ephemeral address will be assigned: %v", address.Address, err)
			h.updated.NetworkInterfaces[0].AccessConfigs[0].NatIP = ""
			external = preserveFellBack
		}
	}

	if h.target.PreserveInternalIP && nic.NetworkIP != "" {
		address := &compute.Address{
			Name:        h.timestampName(h.loc.Name + "-int"),
			AddressType: "INTERNAL",
			Subnetwork:  h.target.subnetworkLink,
			Address:     nic.NetworkIP,
		}
		switch err := h.conn.ReserveAddress(ctx, region, address); {
		case err == nil:
			internal = preserveDone
		case google.HasReason(err, "already"):
			logger.Warningf("reserving internal IP %s: %v", address.Address, err)
			internal = preserveDone
		default:
			logger.Warningf("unable to reserve internal IP %s, a new address will be assigned: %v", address.Address, err)
			h.updated.NetworkInterfaces[0].NetworkIP = ""
			internal = preserveFellBack
		}
	}
	return external, internal
}

// Rollback implements Handler.
func (h *instanceHandle) Rollback(ctx context.Context, cp Checkpoint) error {
	if cp >= InstanceDeleted {
		// The original is gone. Remove the half-created replacement,
		// if any, and recreate the original configuration.
		if cp >= InstanceRecreated {
			if err := h.conn.DeleteInstance(ctx, h.loc.Zone, h.loc.Name); err != nil && !google.IsNotFound(err) {
				return errors.Annotatef(err, "deleting replacement instance %q", h.loc.Name)
			}
		}
		logger.Infof("recreating original instance %q", h.loc.Name)
		if err := h.conn.CreateInstance(ctx, h.loc.Zone, h.original); err != nil && !google.IsConflict(err) {
			return errors.Annotatef(err, "recreating instance %q", h.loc.Name)
		}
		h.migrated = false
		return nil
	}
	if cp >= InstanceDisksDetached {
		for _, disk := range h.original.Disks {
			err := h.conn.AttachDisk(ctx, h.loc.Zone, h.loc.Name, disk)
			if err != nil && !google.HasReason(err, "already") {
				return errors.Annotatef(err, "reattaching disk %q", disk.DeviceName)
			}
		}
	}
	if cp >= InstanceStopped && h.wasRunning {
		logger.Infof("restarting original instance %q", h.loc.Name)
		if err := h.conn.StartInstance(ctx, h.loc.Zone, h.loc.Name); err != nil {
			return errors.Annotatef(err, "restarting instance %q", h.loc.Name)
		}
	}
	return nil
}
