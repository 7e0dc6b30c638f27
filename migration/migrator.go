// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package migration

import (
	"context"

	"github.com/juju/clock"
	"github.com/juju/errors"
)

// Migrator drives a whole migration: resolve the locator to a handle,
// migrate, and unwind from the reached checkpoint if that fails.
type Migrator struct {
	conn   Connection
	clock  clock.Clock
	target NetworkTarget
}

// NewMigrator returns a Migrator moving resources onto target over
// conn.
func NewMigrator(conn Connection, target NetworkTarget) *Migrator {
	return &Migrator{
		conn:   conn,
		clock:  clock.WallClock,
		target: target,
	}
}

// Run migrates the resource behind link, a full or relative self link.
// Failures raised while resolving the link are returned as-is; any
// failure out of Migrate is rolled back from the last confirmed
// checkpoint and reported as a *MigrationError. Rollback of a handle
// that never mutated anything is a no-op, so refusals raised by a
// precondition check still unwind whatever an enclosing resource had
// already done by the time the check fired.
func (m *Migrator) Run(ctx context.Context, link string) error {
	loc, err := ParseLocator(link)
	if err != nil {
		return errors.Trace(err)
	}
	e := &engine{conn: m.conn, clock: m.clock, target: m.target}
	handle, err := resolveHandle(ctx, e, loc)
	if err != nil {
		return errors.Annotatef(err, "resolving %s", loc)
	}

	logger.Infof("migrating %s %s to network %q", handle.Kind(), loc, m.target.Network)
	cp, err := handle.Migrate(ctx)
	if err == nil {
		logger.Infof("migration of %s complete", loc)
		return nil
	}
	logger.Errorf("migration of %s failed at %q, rolling back: %v", loc, cp.Name(handle.Kind()), err)
	migErr := &MigrationError{
		Locator: loc,
		Kind:    handle.Kind(),
		Reached: cp,
		Cause:   err,
	}
	if rbErr := handle.Rollback(ctx, cp); rbErr != nil {
		migErr.Unwound = cp
		migErr.Rollback = rbErr
		logger.Errorf("rollback of %s failed, manual cleanup may be required: %v", loc, rbErr)
	} else {
		migErr.Unwound = CheckpointNone
		logger.Infof("rollback of %s complete", loc)
	}
	return migErr
}
