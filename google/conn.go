// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package google provides a low-level client for the GCE compute API,
// covering the collections the migration engine touches: instances,
// instance groups and their managers, instance templates, target pools,
// backend services, forwarding rules, networks, subnetworks and
// addresses. Every mutating call blocks until the asynchronous
// operation it spawns has completed.
package google

import (
	"time"

	"github.com/juju/clock"
	"github.com/juju/loggo/v2"
	"google.golang.org/api/compute/v1"
)

var logger = loggo.GetLogger("netmigrate.google")

const (
	// operationPollInterval is how often an in-flight operation is
	// polled for completion.
	operationPollInterval = 1 * time.Second

	// operationTimeout bounds how long we will wait for any single
	// operation before giving up and reporting failure.
	operationTimeout = 5 * time.Minute
)

// Connection provides access to the GCE compute API for a single
// project. It is safe for use from a single goroutine only, which is
// all the migration engine requires.
type Connection struct {
	service   *compute.Service
	projectID string
	clock     clock.Clock
}

// NewConnection returns a Connection for the given project backed by
// the given compute service.
func NewConnection(service *compute.Service, projectID string) *Connection {
	return &Connection{
		service:   service,
		projectID: projectID,
		clock:     clock.WallClock,
	}
}

// ProjectID returns the project this connection operates on.
func (c *Connection) ProjectID() string {
	return c.projectID
}
