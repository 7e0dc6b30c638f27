// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// netmigrate moves a GCE load-balancing resource and everything
// backing it from a legacy network onto a subnetwork-mode network.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/juju/gnuflag"
	"github.com/juju/loggo/v2"

	"github.com/gcetools/netmigrate/google"
	"github.com/gcetools/netmigrate/migration"
)

var logger = loggo.GetLogger("netmigrate")

type args struct {
	project         string
	credentialsFile string
	network         string
	subnetwork      string
	preserveExtIP   bool
	preserveIntIP   bool
	logConfig       string
	selfLink        string
}

func parseArgs() (*args, error) {
	var a args
	flags := gnuflag.NewFlagSet("netmigrate", gnuflag.ContinueOnError)
	flags.SetOutput(os.Stderr)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: netmigrate [options] <resource self link>\n\n")
		flags.PrintDefaults()
	}
	flags.StringVar(&a.project, "project", "", "GCE project ID")
	flags.StringVar(&a.credentialsFile, "credentials-file", "", "path to a service account key file (defaults to application default credentials)")
	flags.StringVar(&a.network, "network", "", "name of the target subnetwork-mode network")
	flags.StringVar(&a.subnetwork, "subnetwork", "", "name of the target subnetwork (defaults to the network name for auto-mode networks)")
	flags.BoolVar(&a.preserveExtIP, "preserve-external-ip", false, "promote and keep external IPs of migrated instances")
	flags.BoolVar(&a.preserveIntIP, "preserve-internal-ip", false, "reserve and keep internal IPs of migrated instances")
	flags.StringVar(&a.logConfig, "log-config", "<root>=INFO", "loggo configuration string")
	if err := flags.Parse(true, os.Args[1:]); err != nil {
		return nil, err
	}
	if a.project == "" {
		return nil, fmt.Errorf("--project is required")
	}
	if a.network == "" {
		return nil, fmt.Errorf("--network is required")
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return nil, fmt.Errorf("exactly one resource self link is required")
	}
	a.selfLink = flags.Arg(0)
	return &a, nil
}

func run() error {
	a, err := parseArgs()
	if err != nil {
		return err
	}
	if err := loggo.ConfigureLoggers(a.logConfig); err != nil {
		return err
	}

	ctx := context.Background()
	conn, err := google.Connect(ctx, a.project, a.credentialsFile)
	if err != nil {
		return err
	}
	logger.Infof("connected to project %q", conn.ProjectID())

	migrator := migration.NewMigrator(conn, migration.NetworkTarget{
		Network:            a.network,
		Subnetwork:         a.subnetwork,
		PreserveExternalIP: a.preserveExtIP,
		PreserveInternalIP: a.preserveIntIP,
	})
	return migrator.Run(ctx, a.selfLink)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "netmigrate: %v\n", err)
		os.Exit(1)
	}
}
