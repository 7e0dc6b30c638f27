// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package migration

import (
	"context"

	"github.com/juju/errors"
	"google.golang.org/api/compute/v1"
)

// serviceBackend is one instance group attached to a backend service.
type serviceBackend struct {
	group         Locator
	regionalGroup bool
	handle        Handler
	detached      bool
	state         Checkpoint
}

type backendServiceHandle struct {
	*engine
	loc      Locator
	regional bool
	service  *compute.BackendService
	backends []*serviceBackend
	migrated bool
}

func newBackendServiceHandle(ctx context.Context, e *engine, loc Locator, regional bool, service *compute.BackendService) (*backendServiceHandle, error) {
	// The snapshot is what reattachment restores; keep it isolated
	// from whatever the caller does with its copy.
	h := &backendServiceHandle{engine: e, loc: loc, regional: regional, service: deepCopy(service)}
	for _, backend := range service.Backends {
		groupLoc, err := ParseLocator(backend.Group)
		if err != nil {
			return nil, errors.Trace(err)
		}
		h.backends = append(h.backends, &serviceBackend{
			group:         groupLoc,
			regionalGroup: groupLoc.Region != "",
		})
	}
	return h, nil
}

// Kind implements Handler.
func (h *backendServiceHandle) Kind() Kind { return KindBackendService }

// Locator implements Handler.
func (h *backendServiceHandle) Locator() Locator { return h.loc }

func (h *backendServiceHandle) patchBackends(ctx context.Context, backends []*compute.Backend) error {
	patch := &compute.BackendService{
		Backends:        backends,
		Fingerprint:     "",
		ForceSendFields: []string{"Backends"},
	}
	if h.regional {
		return h.conn.PatchRegionBackendService(ctx, h.loc.Region, h.loc.Name, patch)
	}
	return h.conn.PatchBackendService(ctx, h.loc.Name, patch)
}

// newGroupHandle resolves what kind of group a backend points at and
// builds the matching handle. Regional instance groups are always
// owned by a regional manager.
func (h *backendServiceHandle) newGroupHandle(ctx context.Context, b *serviceBackend) (Handler, error) {
	if b.regionalGroup {
		manager, err := h.conn.RegionInstanceGroupManager(ctx, b.group.Region, b.group.Name)
		if err != nil {
			return nil, errors.Annotatef(err, "fetching region instance group manager %q", b.group.Name)
		}
		return newManagedGroupHandle(ctx, h.engine, b.group, true, manager)
	}
	group, err := h.conn.InstanceGroup(ctx, b.group.Zone, b.group.Name)
	if err != nil {
		return nil, errors.Annotatef(err, "fetching instance group %q", b.group.Name)
	}
	if groupIsManaged(group) {
		manager, err := h.conn.InstanceGroupManager(ctx, b.group.Zone, b.group.Name)
		if err != nil {
			return nil, errors.Annotatef(err, "fetching instance group manager %q", b.group.Name)
		}
		return newManagedGroupHandle(ctx, h.engine, b.group, false, manager)
	}
	return newUnmanagedGroupHandle(ctx, h.engine, b.group, group)
}

// Migrate implements Handler. The service itself is never recreated.
// Each backend group is detached, migrated and reattached in turn, and
// the final reattachment restores the original backend list verbatim.
func (h *backendServiceHandle) Migrate(ctx context.Context) (Checkpoint, error) {
	if h.migrated {
		return BackendsMigrated, nil
	}
	for i, b := range h.backends {
		if err := h.migrateBackend(ctx, i, b); err != nil {
			return CheckpointNone, errors.Trace(err)
		}
	}
	h.migrated = true
	return BackendsMigrated, nil
}

func (h *backendServiceHandle) migrateBackend(ctx context.Context, index int, b *serviceBackend) error {
	logger.Infof("detaching group %q from backend service %q", b.group.Name, h.loc.Name)
	remaining := make([]*compute.Backend, 0, len(h.service.Backends))
	for j, backend := range h.service.Backends {
		if j == index {
			continue
		}
		remaining = append(remaining, backend)
	}
	if err := h.patchBackends(ctx, remaining); err != nil {
		return errors.Annotatef(err, "detaching group %q from backend service %q", b.group.Name, h.loc.Name)
	}
	b.detached = true

	handle, err := h.newGroupHandle(ctx, b)
	if err != nil {
		return errors.Trace(err)
	}
	b.handle = handle
	cp, err := handle.Migrate(ctx)
	b.state = cp
	if err != nil {
		return errors.Annotatef(err, "migrating backend group %q", b.group.Name)
	}

	if err := h.patchBackends(ctx, h.service.Backends); err != nil {
		return errors.Annotatef(err, "reattaching group %q to backend service %q", b.group.Name, h.loc.Name)
	}
	b.detached = false
	return nil
}

// Rollback implements Handler.
func (h *backendServiceHandle) Rollback(ctx context.Context, cp Checkpoint) error {
	for _, b := range h.backends {
		// Composite groups track member state internally, so roll back
		// any constructed handle even at the starting checkpoint.
		if b.handle != nil {
			if err := b.handle.Rollback(ctx, b.state); err != nil {
				return errors.Annotatef(err, "rolling back backend group %q", b.group.Name)
			}
			b.state = CheckpointNone
		}
	}
	// A single patch restores the original backend list whether one or
	// several groups were left detached.
	detached := false
	for _, b := range h.backends {
		detached = detached || b.detached
	}
	if detached {
		if err := h.patchBackends(ctx, h.service.Backends); err != nil {
			return errors.Annotatef(err, "restoring backends of service %q", h.loc.Name)
		}
		for _, b := range h.backends {
			b.detached = false
		}
	}
	h.migrated = false
	return nil
}
