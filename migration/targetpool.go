// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package migration

import (
	"context"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"google.golang.org/api/compute/v1"

	"github.com/gcetools/netmigrate/google"
)

// poolInstanceBackend is a standalone instance serving a target pool
// directly through the pool's instance list.
type poolInstanceBackend struct {
	link     string
	handle   *instanceHandle
	detached bool
	state    Checkpoint
}

// poolGroupBackend is a managed instance group whose manager lists the
// pool in its target pools.
type poolGroupBackend struct {
	loc           Locator
	regional      bool
	originalPools []string
	handle        *managedGroupHandle
	detached      bool
	state         Checkpoint
}

type targetPoolHandle struct {
	*engine
	loc      Locator
	pool     *compute.TargetPool
	inst     []*poolInstanceBackend
	groups   []*poolGroupBackend
	migrated bool
}

func newTargetPoolHandle(ctx context.Context, e *engine, loc Locator, pool *compute.TargetPool) (*targetPoolHandle, error) {
	h := &targetPoolHandle{engine: e, loc: loc, pool: pool}
	seenGroups := set.NewStrings()
	for _, link := range pool.Instances {
		instLoc, err := ParseLocator(link)
		if err != nil {
			return nil, errors.Trace(err)
		}
		groupLoc, regional, err := h.servingGroup(ctx, instLoc)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if groupLoc == nil {
			handle, err := newInstanceHandle(ctx, e, instLoc)
			if err != nil {
				return nil, errors.Trace(err)
			}
			h.inst = append(h.inst, &poolInstanceBackend{link: link, handle: handle})
			continue
		}
		if seenGroups.Contains(groupLoc.String()) {
			continue
		}
		seenGroups.Add(groupLoc.String())
		backend := &poolGroupBackend{loc: *groupLoc, regional: regional}
		manager, err := h.fetchManager(ctx, backend)
		if err != nil {
			return nil, errors.Trace(err)
		}
		backend.originalPools = manager.TargetPools
		h.groups = append(h.groups, backend)
	}
	return h, nil
}

// servingGroup classifies a pool member. It returns the locator of the
// managed group the instance belongs to, or nil for a standalone
// instance. Membership in an unmanaged group is ambiguous: the pool
// and the group both claim the instance and there is no order of
// migration that keeps both consistent, so refuse before touching
// anything.
func (h *targetPoolHandle) servingGroup(ctx context.Context, instLoc Locator) (*Locator, bool, error) {
	referrers, err := h.conn.InstanceReferrers(ctx, instLoc.Zone, instLoc.Name)
	if err != nil {
		return nil, false, errors.Annotatef(err, "listing referrers of instance %q", instLoc.Name)
	}
	for _, ref := range referrers {
		groupLoc, err := ParseLocator(ref)
		if err != nil {
			return nil, false, errors.Trace(err)
		}
		if groupLoc.Region != "" {
			// Only a regional manager produces a regional group.
			return &groupLoc, true, nil
		}
		group, err := h.conn.InstanceGroup(ctx, groupLoc.Zone, groupLoc.Name)
		if err != nil {
			return nil, false, errors.Annotatef(err, "fetching instance group %q", groupLoc.Name)
		}
		if !groupIsManaged(group) {
			return nil, false, errors.Annotatef(ErrAmbiguousResource,
				"instance %q serves target pool %q but is a member of unmanaged group %q",
				instLoc.Name, h.loc.Name, groupLoc.Name)
		}
		return &groupLoc, false, nil
	}
	return nil, false, nil
}

func (h *targetPoolHandle) fetchManager(ctx context.Context, b *poolGroupBackend) (*compute.InstanceGroupManager, error) {
	if b.regional {
		return h.conn.RegionInstanceGroupManager(ctx, b.loc.Region, b.loc.Name)
	}
	return h.conn.InstanceGroupManager(ctx, b.loc.Zone, b.loc.Name)
}

func (h *targetPoolHandle) setManagerPools(ctx context.Context, b *poolGroupBackend, pools []string) error {
	if b.regional {
		return h.conn.SetRegionInstanceGroupManagerTargetPools(ctx, b.loc.Region, b.loc.Name, pools)
	}
	return h.conn.SetInstanceGroupManagerTargetPools(ctx, b.loc.Zone, b.loc.Name, pools)
}

// Kind implements Handler.
func (h *targetPoolHandle) Kind() Kind { return KindTargetPool }

// Locator implements Handler.
func (h *targetPoolHandle) Locator() Locator { return h.loc }

// Migrate implements Handler. The pool itself is never recreated; each
// backend is detached, migrated, and reattached in turn, so the pool
// keeps serving from its remaining backends throughout.
func (h *targetPoolHandle) Migrate(ctx context.Context) (Checkpoint, error) {
	if h.migrated {
		return BackendsMigrated, nil
	}
	for _, b := range h.inst {
		if err := h.migrateInstanceBackend(ctx, b); err != nil {
			return CheckpointNone, errors.Trace(err)
		}
	}
	for _, b := range h.groups {
		if err := h.migrateGroupBackend(ctx, b); err != nil {
			return CheckpointNone, errors.Trace(err)
		}
	}
	h.migrated = true
	return BackendsMigrated, nil
}

func (h *targetPoolHandle) migrateInstanceBackend(ctx context.Context, b *poolInstanceBackend) error {
	logger.Infof("detaching instance %q from target pool %q", b.handle.loc.Name, h.loc.Name)
	if err := h.conn.RemoveTargetPoolInstance(ctx, h.loc.Region, h.loc.Name, b.link); err != nil {
		if !google.HasReason(err, "is not a member of") {
			return errors.Annotatef(err, "detaching instance %q from target pool %q", b.handle.loc.Name, h.loc.Name)
		}
		logger.Warningf("detaching instance %q from target pool %q: %v", b.handle.loc.Name, h.loc.Name, err)
	}
	b.detached = true

	cp, err := b.handle.Migrate(ctx)
	b.state = cp
	if err != nil {
		return errors.Annotatef(err, "migrating pool instance %q", b.handle.loc.Name)
	}

	if err := h.attachInstance(ctx, b); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func (h *targetPoolHandle) attachInstance(ctx context.Context, b *poolInstanceBackend) error {
	if err := h.conn.AddTargetPoolInstance(ctx, h.loc.Region, h.loc.Name, b.link); err != nil {
		if !google.HasReason(err, "already a member of") {
			return errors.Annotatef(err, "reattaching instance %q to target pool %q", b.handle.loc.Name, h.loc.Name)
		}
		logger.Warningf("reattaching instance %q to target pool %q: %v", b.handle.loc.Name, h.loc.Name, err)
	}
	b.detached = false
	return nil
}

func (h *targetPoolHandle) migrateGroupBackend(ctx context.Context, b *poolGroupBackend) error {
	logger.Infof("detaching instance group manager %q from target pool %q", b.loc.Name, h.loc.Name)
	remaining := make([]string, 0, len(b.originalPools))
	for _, pool := range b.originalPools {
		if linksMatch(pool, h.pool.SelfLink) {
			continue
		}
		remaining = append(remaining, pool)
	}
	if err := h.setManagerPools(ctx, b, remaining); err != nil {
		return errors.Annotatef(err, "detaching manager %q from target pool %q", b.loc.Name, h.loc.Name)
	}
	b.detached = true

	// Re-read the manager so the handle sees it without the pool
	// attachment just removed.
	manager, err := h.fetchManager(ctx, b)
	if err != nil {
		return errors.Annotatef(err, "fetching instance group manager %q", b.loc.Name)
	}
	b.handle, err = newManagedGroupHandle(ctx, h.engine, b.loc, b.regional, manager)
	if err != nil {
		return errors.Trace(err)
	}
	cp, err := b.handle.Migrate(ctx)
	b.state = cp
	if err != nil {
		return errors.Annotatef(err, "migrating pool group %q", b.loc.Name)
	}

	if err := h.setManagerPools(ctx, b, b.originalPools); err != nil {
		return errors.Annotatef(err, "reattaching manager %q to target pool %q", b.loc.Name, h.loc.Name)
	}
	b.detached = false
	return nil
}

// Rollback implements Handler. Every backend that was touched is
// unwound and reattached regardless of how far the migration got.
func (h *targetPoolHandle) Rollback(ctx context.Context, cp Checkpoint) error {
	for _, b := range h.inst {
		if err := b.handle.Rollback(ctx, b.state); err != nil {
			return errors.Annotatef(err, "rolling back pool instance %q", b.handle.loc.Name)
		}
		b.state = CheckpointNone
		if b.detached {
			if err := h.attachInstance(ctx, b); err != nil {
				return errors.Trace(err)
			}
		}
	}
	for _, b := range h.groups {
		if b.handle != nil {
			if err := b.handle.Rollback(ctx, b.state); err != nil {
				return errors.Annotatef(err, "rolling back pool group %q", b.loc.Name)
			}
			b.state = CheckpointNone
		}
		if b.detached {
			if err := h.setManagerPools(ctx, b, b.originalPools); err != nil {
				return errors.Annotatef(err, "reattaching manager %q to target pool %q", b.loc.Name, h.loc.Name)
			}
			b.detached = false
		}
	}
	h.migrated = false
	return nil
}
