// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package migration

import (
	"fmt"

	"github.com/juju/errors"
)

const (
	// ErrInvalidTargetNetwork is returned when the requested target
	// network is a legacy network rather than a subnetwork-mode one.
	ErrInvalidTargetNetwork = errors.ConstError("target network is not a subnetwork mode network")

	// ErrMissingSubnetwork is returned when the target network is in
	// custom mode and no subnetwork name was supplied.
	ErrMissingSubnetwork = errors.ConstError("no subnetwork specified for custom mode network")

	// ErrSubnetworkNotFound is returned when the named subnetwork is
	// not declared by the target network for the required region.
	ErrSubnetworkNotFound = errors.ConstError("subnetwork not found in target network")

	// ErrAmbiguousResource is returned when a backend instance cannot
	// be attributed to a single migration owner, e.g. a target pool
	// backend that is also a member of an unmanaged instance group.
	ErrAmbiguousResource = errors.ConstError("resource has more than one possible migration owner")

	// ErrMigrationFailed is returned when a precondition forbids the
	// migration from starting, e.g. a managed instance group still
	// serving a target pool.
	ErrMigrationFailed = errors.ConstError("migration cannot proceed")

	// ErrUnsupportedKind is returned when a locator does not resolve
	// to any resource kind the engine knows how to migrate.
	ErrUnsupportedKind = errors.ConstError("unsupported resource kind")
)

// MigrationError reports a failed migration together with how far the
// resource got and how far rollback managed to unwind it, so an
// operator knows what manual cleanup, if any, remains.
type MigrationError struct {
	Locator  Locator
	Kind     Kind
	Reached  Checkpoint
	Unwound  Checkpoint
	Cause    error
	Rollback error
}

// Error implements error.
func (e *MigrationError) Error() string {
	msg := fmt.Sprintf("migrating %s %s: %v (reached %q", e.Kind, e.Locator, e.Cause, e.Reached.Name(e.Kind))
	if e.Rollback != nil {
		return msg + fmt.Sprintf(", rollback stopped at %q: %v)", e.Unwound.Name(e.Kind), e.Rollback)
	}
	return msg + fmt.Sprintf(", rolled back to %q)", e.Unwound.Name(e.Kind))
}

// Unwrap exposes the underlying cause for errors.Is checks.
func (e *MigrationError) Unwrap() error {
	return e.Cause
}
