// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package google

import (
	"strings"

	"github.com/juju/errors"
	"google.golang.org/api/compute/v1"
	"google.golang.org/api/googleapi"
)

// IsNotFound reports whether err is the compute API telling us the
// requested resource does not exist.
func IsNotFound(err error) bool {
	if gerr, ok := errors.AsType[*googleapi.Error](errors.Cause(err)); ok {
		return gerr.Code == 404
	}
	return errors.Is(err, errors.NotFound)
}

// IsConflict reports whether err is the compute API refusing a
// mutation because an equivalent resource already exists or the
// resource is mid-change.
func IsConflict(err error) bool {
	if gerr, ok := errors.AsType[*googleapi.Error](errors.Cause(err)); ok {
		return gerr.Code == 409
	}
	return false
}

// HasReason reports whether the human-readable message of err
// contains the given fragment. The compute API signals a handful of
// benign conditions ("already a member of", "is not a member of",
// "already reserved") only through the message text.
func HasReason(err error, fragment string) bool {
	if err == nil {
		return false
	}
	if gerr, ok := errors.AsType[*googleapi.Error](errors.Cause(err)); ok {
		if strings.Contains(gerr.Message, fragment) {
			return true
		}
		for _, item := range gerr.Errors {
			if strings.Contains(item.Message, fragment) {
				return true
			}
		}
	}
	return strings.Contains(err.Error(), fragment)
}

// OperationError is returned when a completed operation carries an
// error payload. The scope is "zone", "region" or "global".
type OperationError struct {
	Scope         string
	OperationName string
	Errors        []*compute.OperationErrorErrors
}

// Error implements error.
func (e *OperationError) Error() string {
	var msgs []string
	for _, item := range e.Errors {
		msgs = append(msgs, item.Message)
	}
	return e.Scope + " operation " + e.OperationName + " failed: " + strings.Join(msgs, "; ")
}
