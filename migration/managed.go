// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package migration

import (
	"context"

	"github.com/juju/errors"
	"google.golang.org/api/compute/v1"

	"github.com/gcetools/netmigrate/google"
)

// managedGroupHandle migrates a managed instance group by swapping its
// instance template for a copy bound to the target network and
// recreating the group manager. A single handle covers both the zonal
// and regional flavours; regional is true for the latter.
type managedGroupHandle struct {
	loc      Locator
	regional bool
	*engine
	target           *resolvedTarget
	manager          *compute.InstanceGroupManager
	originalTemplate *compute.InstanceTemplate
	newTemplate      *compute.InstanceTemplate
	newTemplateLink  string
	migrated         bool
}

func newManagedGroupHandle(ctx context.Context, e *engine, loc Locator, regional bool, manager *compute.InstanceGroupManager) (*managedGroupHandle, error) {
	region := loc.Region
	if !regional {
		region = regionFromZone(loc.Zone)
	}
	target, err := e.target.resolve(ctx, e.conn, region)
	if err != nil {
		return nil, errors.Trace(err)
	}
	templateName := nameFromLink(manager.InstanceTemplate)
	template, err := e.conn.InstanceTemplate(ctx, templateName)
	if err != nil {
		return nil, errors.Annotatef(err, "fetching instance template %q", templateName)
	}
	h := &managedGroupHandle{
		loc:              loc,
		regional:         regional,
		engine:           e,
		target:           target,
		manager:          manager,
		originalTemplate: template,
	}
	h.newTemplate = h.deriveTemplate()
	return h, nil
}

// Kind implements Handler.
func (h *managedGroupHandle) Kind() Kind {
	if h.regional {
		return KindRegionalManagedGroup
	}
	return KindZonalManagedGroup
}

// Locator implements Handler.
func (h *managedGroupHandle) Locator() Locator { return h.loc }

// deriveTemplate builds the replacement instance template. Templates
// are immutable, so the copy gets a fresh timestamped name.
func (h *managedGroupHandle) deriveTemplate() *compute.InstanceTemplate {
	template := deepCopy(h.originalTemplate)
	template.Name = h.timestampName(h.originalTemplate.Name)
	template.SelfLink = ""
	if template.Properties != nil {
		for _, nic := range template.Properties.NetworkInterfaces {
			nic.Network = h.target.networkLink
			nic.Subnetwork = h.target.subnetworkLink
			nic.Fingerprint = ""
			if !h.target.PreserveExternalIP {
				for _, ac := range nic.AccessConfigs {
					ac.NatIP = ""
				}
			}
		}
	}
	return template
}

func (h *managedGroupHandle) alreadyOnTarget() bool {
	if h.originalTemplate.Properties == nil {
		return false
	}
	for _, nic := range h.originalTemplate.Properties.NetworkInterfaces {
		if linksMatch(nic.Subnetwork, h.target.subnetworkLink) {
			return true
		}
	}
	return false
}

func (h *managedGroupHandle) warnAutoscaler(ctx context.Context) {
	var err error
	if h.regional {
		_, err = h.conn.RegionAutoscalerForTarget(ctx, h.loc.Region, h.manager.SelfLink)
	} else {
		_, err = h.conn.AutoscalerForTarget(ctx, h.loc.Zone, h.manager.SelfLink)
	}
	if err == nil {
		logger.Warningf("instance group manager %q has an autoscaler attached; it will be recreated with the group and may briefly resize it", h.loc.Name)
	}
}

func (h *managedGroupHandle) deleteManager(ctx context.Context) error {
	if h.regional {
		return h.conn.DeleteRegionInstanceGroupManager(ctx, h.loc.Region, h.loc.Name)
	}
	return h.conn.DeleteInstanceGroupManager(ctx, h.loc.Zone, h.loc.Name)
}

func (h *managedGroupHandle) createManager(ctx context.Context, manager *compute.InstanceGroupManager) error {
	if h.regional {
		return h.conn.CreateRegionInstanceGroupManager(ctx, h.loc.Region, manager)
	}
	return h.conn.CreateInstanceGroupManager(ctx, h.loc.Zone, manager)
}

// Migrate implements Handler.
func (h *managedGroupHandle) Migrate(ctx context.Context) (Checkpoint, error) {
	if h.migrated {
		return GroupRecreated, nil
	}
	// A manager serving target pools cannot be deleted and recreated
	// without silently dropping it from the pools, so refuse up front
	// before anything has been mutated.
	if len(h.manager.TargetPools) > 0 {
		return CheckpointNone, errors.Annotatef(ErrMigrationFailed,
			"instance group manager %q serves %d target pool(s); migrate the target pool instead",
			h.loc.Name, len(h.manager.TargetPools))
	}
	if h.alreadyOnTarget() {
		logger.Infof("instance group manager %q already uses the target subnetwork", h.loc.Name)
		h.migrated = true
		return GroupRecreated, nil
	}
	if h.target.PreserveExternalIP {
		logger.Warningf("external IPs of managed instances are ephemeral and cannot be preserved for %q", h.loc.Name)
	}
	h.warnAutoscaler(ctx)

	cp := GroupMigrating

	logger.Infof("creating instance template %q", h.newTemplate.Name)
	if err := h.conn.CreateInstanceTemplate(ctx, h.newTemplate); err != nil {
		if !google.IsConflict(err) {
			return cp, errors.Annotatef(err, "creating instance template %q", h.newTemplate.Name)
		}
	}
	created, err := h.conn.InstanceTemplate(ctx, h.newTemplate.Name)
	if err != nil {
		return cp, errors.Annotatef(err, "fetching instance template %q", h.newTemplate.Name)
	}
	h.newTemplateLink = created.SelfLink
	cp = GroupTemplateCreated

	logger.Infof("deleting instance group manager %q", h.loc.Name)
	if err := h.deleteManager(ctx); err != nil {
		if !google.IsNotFound(err) {
			return cp, errors.Annotatef(err, "deleting instance group manager %q", h.loc.Name)
		}
	}
	cp = GroupDeleted

	updated := deepCopy(h.manager)
	updated.InstanceTemplate = h.newTemplateLink
	updated.SelfLink = ""
	updated.InstanceGroup = ""
	updated.Fingerprint = ""
	updated.Status = nil
	logger.Infof("recreating instance group manager %q with template %q", h.loc.Name, h.newTemplate.Name)
	if err := h.createManager(ctx, updated); err != nil {
		if !google.IsConflict(err) {
			return cp, errors.Annotatef(err, "recreating instance group manager %q", h.loc.Name)
		}
	}
	h.migrated = true
	return GroupRecreated, nil
}

// Rollback implements Handler.
func (h *managedGroupHandle) Rollback(ctx context.Context, cp Checkpoint) error {
	if cp >= GroupDeleted {
		// The replacement manager may or may not exist depending on
		// how far the recreate got.
		if err := h.deleteManager(ctx); err != nil && !google.IsNotFound(err) {
			return errors.Annotatef(err, "deleting instance group manager %q", h.loc.Name)
		}
		logger.Infof("recreating original instance group manager %q", h.loc.Name)
		original := deepCopy(h.manager)
		original.SelfLink = ""
		original.InstanceGroup = ""
		original.Fingerprint = ""
		original.Status = nil
		if err := h.createManager(ctx, original); err != nil && !google.IsConflict(err) {
			return errors.Annotatef(err, "recreating instance group manager %q", h.loc.Name)
		}
	}
	if cp >= GroupTemplateCreated {
		if err := h.conn.DeleteInstanceTemplate(ctx, h.newTemplate.Name); err != nil && !google.IsNotFound(err) {
			return errors.Annotatef(err, "deleting instance template %q", h.newTemplate.Name)
		}
	}
	h.migrated = false
	return nil
}
