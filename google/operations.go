// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package google

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/retry"
	"google.golang.org/api/compute/v1"
)

const statusDone = "DONE"

const errOperationPending = errors.ConstError("operation pending")

// waitOperation polls the given operation at its scope until the API
// reports it DONE, then surfaces any error payload it carries. The
// wait is bounded; exceeding it is reported as a failure of the
// surrounding activity rather than blocking forever.
func (c *Connection) waitOperation(ctx context.Context, scope string, op *compute.Operation, get func() (*compute.Operation, error)) error {
	last := op
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			if last != nil && last.Status == statusDone {
				return nil
			}
			current, err := get()
			if err != nil {
				return errors.Trace(err)
			}
			last = current
			logger.Tracef("operation %q is %s", current.Name, current.Status)
			if current.Status != statusDone {
				return errOperationPending
			}
			return nil
		},
		IsFatalError: func(err error) bool {
			return !errors.Is(err, errOperationPending)
		},
		Attempts:    -1,
		Delay:       operationPollInterval,
		MaxDuration: operationTimeout,
		Clock:       c.clock,
		Stop:        ctx.Done(),
	})
	if err != nil {
		if retry.IsDurationExceeded(err) || errors.Is(err, errOperationPending) {
			return errors.Errorf("timed out waiting for %s operation %q", scope, op.Name)
		}
		return errors.Annotatef(err, "waiting for %s operation %q", scope, op.Name)
	}
	if last.Error != nil {
		return &OperationError{
			Scope:         scope,
			OperationName: last.Name,
			Errors:        last.Error.Errors,
		}
	}
	return nil
}

func (c *Connection) waitZoneOperation(ctx context.Context, zone string, op *compute.Operation) error {
	return c.waitOperation(ctx, "zone", op, func() (*compute.Operation, error) {
		return c.service.ZoneOperations.Get(c.projectID, zone, op.Name).Context(ctx).Do()
	})
}

func (c *Connection) waitRegionOperation(ctx context.Context, region string, op *compute.Operation) error {
	return c.waitOperation(ctx, "region", op, func() (*compute.Operation, error) {
		return c.service.RegionOperations.Get(c.projectID, region, op.Name).Context(ctx).Do()
	})
}

func (c *Connection) waitGlobalOperation(ctx context.Context, op *compute.Operation) error {
	return c.waitOperation(ctx, "global", op, func() (*compute.Operation, error) {
		return c.service.GlobalOperations.Get(c.projectID, op.Name).Context(ctx).Do()
	})
}
