// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package migration

import (
	"context"

	"google.golang.org/api/compute/v1"

	"github.com/gcetools/netmigrate/google"
)

// Connection is the slice of the GCE compute API the migration engine
// consumes. google.Connection implements it; tests substitute a fake.
type Connection interface {
	// Instances.
	Instance(ctx context.Context, zone, name string) (*compute.Instance, error)
	StopInstance(ctx context.Context, zone, name string) error
	StartInstance(ctx context.Context, zone, name string) error
	CreateInstance(ctx context.Context, zone string, inst *compute.Instance) error
	DeleteInstance(ctx context.Context, zone, name string) error
	DetachDisk(ctx context.Context, zone, instance, deviceName string) error
	AttachDisk(ctx context.Context, zone, instance string, disk *compute.AttachedDisk) error
	InstanceReferrers(ctx context.Context, zone, name string) ([]string, error)

	// Instance groups.
	InstanceGroup(ctx context.Context, zone, name string) (*compute.InstanceGroup, error)
	InstanceGroupMembers(ctx context.Context, zone, name string) ([]string, error)
	CreateInstanceGroup(ctx context.Context, zone string, group *compute.InstanceGroup) error
	DeleteInstanceGroup(ctx context.Context, zone, name string) error
	AddInstanceGroupMember(ctx context.Context, zone, name, instanceLink string) error

	// Managed instance groups and templates.
	InstanceGroupManager(ctx context.Context, zone, name string) (*compute.InstanceGroupManager, error)
	RegionInstanceGroupManager(ctx context.Context, region, name string) (*compute.InstanceGroupManager, error)
	CreateInstanceGroupManager(ctx context.Context, zone string, mgr *compute.InstanceGroupManager) error
	DeleteInstanceGroupManager(ctx context.Context, zone, name string) error
	SetInstanceGroupManagerTargetPools(ctx context.Context, zone, name string, targetPools []string) error
	CreateRegionInstanceGroupManager(ctx context.Context, region string, mgr *compute.InstanceGroupManager) error
	DeleteRegionInstanceGroupManager(ctx context.Context, region, name string) error
	SetRegionInstanceGroupManagerTargetPools(ctx context.Context, region, name string, targetPools []string) error
	InstanceTemplate(ctx context.Context, name string) (*compute.InstanceTemplate, error)
	CreateInstanceTemplate(ctx context.Context, tmpl *compute.InstanceTemplate) error
	DeleteInstanceTemplate(ctx context.Context, name string) error
	AutoscalerForTarget(ctx context.Context, zone, targetLink string) (*compute.Autoscaler, error)
	RegionAutoscalerForTarget(ctx context.Context, region, targetLink string) (*compute.Autoscaler, error)

	// Load balancing.
	TargetPool(ctx context.Context, region, name string) (*compute.TargetPool, error)
	AddTargetPoolInstance(ctx context.Context, region, name, instanceLink string) error
	RemoveTargetPoolInstance(ctx context.Context, region, name, instanceLink string) error
	BackendService(ctx context.Context, name string) (*compute.BackendService, error)
	RegionBackendService(ctx context.Context, region, name string) (*compute.BackendService, error)
	PatchBackendService(ctx context.Context, name string, svc *compute.BackendService) error
	PatchRegionBackendService(ctx context.Context, region, name string, svc *compute.BackendService) error
	ForwardingRule(ctx context.Context, region, name string) (*compute.ForwardingRule, error)
	ForwardingRules(ctx context.Context, region string) ([]*compute.ForwardingRule, error)
	CreateForwardingRule(ctx context.Context, region string, rule *compute.ForwardingRule) error
	DeleteForwardingRule(ctx context.Context, region, name string) error
	GlobalForwardingRule(ctx context.Context, name string) (*compute.ForwardingRule, error)
	TargetHTTPProxy(ctx context.Context, name string) (*compute.TargetHttpProxy, error)
	TargetHTTPSProxy(ctx context.Context, name string) (*compute.TargetHttpsProxy, error)
	TargetTCPProxy(ctx context.Context, name string) (*compute.TargetTcpProxy, error)
	TargetSSLProxy(ctx context.Context, name string) (*compute.TargetSslProxy, error)
	URLMap(ctx context.Context, name string) (*compute.UrlMap, error)

	// Networks and addresses.
	Network(ctx context.Context, name string) (*compute.Network, error)
	Subnetworks(ctx context.Context, region string) ([]*compute.Subnetwork, error)
	ReserveAddress(ctx context.Context, region string, address *compute.Address) error
}

var _ Connection = (*google.Connection)(nil)
