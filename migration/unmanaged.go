// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package migration

import (
	"context"

	"github.com/juju/errors"
	"google.golang.org/api/compute/v1"

	"github.com/gcetools/netmigrate/google"
)

type unmanagedGroupHandle struct {
	*engine
	loc          Locator
	target       *resolvedTarget
	original     *compute.InstanceGroup
	updated      *compute.InstanceGroup
	memberLinks  []string
	members      []*instanceHandle
	memberStates []Checkpoint
	migrated     bool
}

func newUnmanagedGroupHandle(ctx context.Context, e *engine, loc Locator, group *compute.InstanceGroup) (*unmanagedGroupHandle, error) {
	target, err := e.target.resolve(ctx, e.conn, regionFromZone(loc.Zone))
	if err != nil {
		return nil, errors.Trace(err)
	}
	memberLinks, err := e.conn.InstanceGroupMembers(ctx, loc.Zone, loc.Name)
	if err != nil {
		return nil, errors.Annotatef(err, "listing members of instance group %q", loc.Name)
	}
	h := &unmanagedGroupHandle{
		engine:      e,
		loc:         loc,
		target:      target,
		original:    group,
		memberLinks: memberLinks,
	}
	for _, link := range memberLinks {
		memberLoc, err := ParseLocator(link)
		if err != nil {
			return nil, errors.Trace(err)
		}
		member, err := newInstanceHandle(ctx, e, memberLoc)
		if err != nil {
			if google.IsNotFound(err) {
				continue
			}
			return nil, errors.Trace(err)
		}
		h.members = append(h.members, member)
		h.memberStates = append(h.memberStates, CheckpointNone)
	}
	updated := deepCopy(group)
	updated.Network = target.networkLink
	updated.Subnetwork = target.subnetworkLink
	updated.Fingerprint = ""
	h.updated = updated
	return h, nil
}

// Kind implements Handler.
func (h *unmanagedGroupHandle) Kind() Kind { return KindUnmanagedGroup }

// Locator implements Handler.
func (h *unmanagedGroupHandle) Locator() Locator { return h.loc }

func (h *unmanagedGroupHandle) alreadyOnTarget() bool {
	return linksMatch(h.original.Subnetwork, h.target.subnetworkLink)
}

// Migrate implements Handler: migrate every member instance, then
// delete the group, recreate it under the target network, and re-add
// the original members by self link.
func (h *unmanagedGroupHandle) Migrate(ctx context.Context) (Checkpoint, error) {
	if h.migrated {
		return MembersRestored, nil
	}
	if h.alreadyOnTarget() {
		logger.Infof("instance group %q is already using the target subnetwork", h.loc.Name)
		h.migrated = true
		return MembersRestored, nil
	}

	cp := CheckpointNone
	logger.Infof("migrating %d member instance(s) of group %q", len(h.members), h.loc.Name)
	for i, member := range h.members {
		memberCP, err := member.Migrate(ctx)
		h.memberStates[i] = memberCP
		if err != nil {
			return cp, errors.Annotatef(err, "migrating member %q", member.loc.Name)
		}
	}
	cp = MembersMigrated

	logger.Infof("deleting instance group %q", h.loc.Name)
	if err := h.conn.DeleteInstanceGroup(ctx, h.loc.Zone, h.loc.Name); err != nil {
		if !google.IsNotFound(err) {
			return cp, errors.Annotatef(err, "deleting instance group %q", h.loc.Name)
		}
	}
	cp = UnmanagedGroupDeleted

	logger.Infof("creating instance group %q in the target subnetwork", h.loc.Name)
	if err := h.conn.CreateInstanceGroup(ctx, h.loc.Zone, h.updated); err != nil {
		if !google.IsConflict(err) {
			return cp, errors.Annotatef(err, "creating instance group %q", h.loc.Name)
		}
	}
	cp = UnmanagedGroupRecreated

	if err := h.restoreMembers(ctx); err != nil {
		return cp, errors.Trace(err)
	}
	h.migrated = true
	return MembersRestored, nil
}

// restoreMembers re-adds the original membership. Members already in
// the group are a warning, not a failure.
func (h *unmanagedGroupHandle) restoreMembers(ctx context.Context) error {
	for _, link := range h.memberLinks {
		err := h.conn.AddInstanceGroupMember(ctx, h.loc.Zone, h.loc.Name, link)
		if err != nil {
			if google.HasReason(err, "already a member of") {
				logger.Warningf("adding %q to instance group %q: %v", link, h.loc.Name, err)
				continue
			}
			return errors.Annotatef(err, "adding %q to instance group %q", link, h.loc.Name)
		}
	}
	return nil
}

// Rollback implements Handler.
func (h *unmanagedGroupHandle) Rollback(ctx context.Context, cp Checkpoint) error {
	if cp >= UnmanagedGroupDeleted {
		// Drop whichever incarnation of the group exists before
		// recreating the original.
		if err := h.conn.DeleteInstanceGroup(ctx, h.loc.Zone, h.loc.Name); err != nil && !google.IsNotFound(err) {
			return errors.Annotatef(err, "deleting instance group %q", h.loc.Name)
		}
	}
	for i, member := range h.members {
		if err := member.Rollback(ctx, h.memberStates[i]); err != nil {
			return errors.Annotatef(err, "rolling back member %q", member.loc.Name)
		}
		h.memberStates[i] = CheckpointNone
	}
	if cp >= UnmanagedGroupDeleted {
		logger.Infof("recreating original instance group %q", h.loc.Name)
		if err := h.conn.CreateInstanceGroup(ctx, h.loc.Zone, h.original); err != nil && !google.IsConflict(err) {
			return errors.Annotatef(err, "recreating instance group %q", h.loc.Name)
		}
		if err := h.restoreMembers(ctx); err != nil {
			return errors.Trace(err)
		}
	}
	h.migrated = false
	return nil
}
