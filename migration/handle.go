// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package migration implements the orchestration engine that moves
// load-balancing resources from a legacy network onto a
// subnetwork-mode network: it resolves an opaque resource locator to
// a concrete kind, recursively migrates the resources backing it, and
// unwinds a partially completed migration from its last confirmed
// checkpoint on failure.
package migration

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/juju/clock"
	"github.com/juju/loggo/v2"
)

var logger = loggo.GetLogger("netmigrate.migration")

// Handler is a migratable resource: a handle over one remote resource
// holding its original configuration snapshot and the derived
// new-network configuration.
//
// Migrate drives the resource's kind-specific sequence of remote
// mutations and returns the last confirmed checkpoint, which is the
// terminal one on success. Migrating a resource already on the target
// subnetwork, or already at its terminal checkpoint, performs no
// mutation.
//
// Rollback undoes the side effects of every step at or below the
// given checkpoint, most recent first. It is only meaningful with a
// checkpoint previously returned by Migrate on the same handle.
type Handler interface {
	Kind() Kind
	Locator() Locator
	Migrate(ctx context.Context) (Checkpoint, error)
	Rollback(ctx context.Context, cp Checkpoint) error
}

// engine bundles what every handle needs: the API connection, the
// requested network target and a clock for generated resource names.
type engine struct {
	conn   Connection
	clock  clock.Clock
	target NetworkTarget
}

// timestampName derives a fresh resource name from base, suffixed
// with the current unix time, for resources that must be recreated
// under a new name.
func (e *engine) timestampName(base string) string {
	return fmt.Sprintf("%s-%d", base, e.clock.Now().Unix())
}

// deepCopy clones a compute API struct through its JSON form. The
// original snapshots held by handles are never mutated; derived
// configurations start from a copy.
func deepCopy[T any](v *T) *T {
	data, err := json.Marshal(v)
	if err != nil {
		// compute API structs always marshal.
		panic(err)
	}
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		panic(err)
	}
	return out
}
