// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package google

import (
	"context"

	"github.com/juju/errors"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/compute/v1"
	"google.golang.org/api/option"
)

// Connect authenticates against the compute API and returns a ready
// Connection. If credentialsFile is empty, application default
// credentials are used (the same discovery order as the gcloud CLI).
func Connect(ctx context.Context, projectID, credentialsFile string) (*Connection, error) {
	if projectID == "" {
		return nil, errors.NotValidf("empty project ID")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	} else {
		client, err := google.DefaultClient(ctx, compute.ComputeScope)
		if err != nil {
			return nil, errors.Annotate(err, "finding default credentials")
		}
		opts = append(opts, option.WithHTTPClient(client))
	}
	service, err := compute.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Annotate(err, "creating compute service")
	}
	return NewConnection(service, projectID), nil
}
