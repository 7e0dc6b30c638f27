// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package google

import (
	"context"

	"github.com/juju/errors"
	"google.golang.org/api/compute/v1"
)

// TargetPool returns the named target pool's configuration.
func (c *Connection) TargetPool(ctx context.Context, region, name string) (*compute.TargetPool, error) {
	pool, err := c.service.TargetPools.Get(c.projectID, region, name).Context(ctx).Do()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return pool, nil
}

// AddTargetPoolInstance adds the instance with the given self link to
// the named target pool.
func (c *Connection) AddTargetPoolInstance(ctx context.Context, region, name, instanceLink string) error {
	req := &compute.TargetPoolsAddInstanceRequest{
		Instances: []*compute.InstanceReference{{Instance: instanceLink}},
	}
	op, err := c.service.TargetPools.AddInstance(c.projectID, region, name, req).Context(ctx).Do()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.waitRegionOperation(ctx, region, op))
}

// RemoveTargetPoolInstance removes the instance with the given self
// link from the named target pool.
func (c *Connection) RemoveTargetPoolInstance(ctx context.Context, region, name, instanceLink string) error {
	req := &compute.TargetPoolsRemoveInstanceRequest{
		Instances: []*compute.InstanceReference{{Instance: instanceLink}},
	}
	op, err := c.service.TargetPools.RemoveInstance(c.projectID, region, name, req).Context(ctx).Do()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.waitRegionOperation(ctx, region, op))
}

// BackendService returns the named global backend service's
// configuration.
func (c *Connection) BackendService(ctx context.Context, name string) (*compute.BackendService, error) {
	svc, err := c.service.BackendServices.Get(c.projectID, name).Context(ctx).Do()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return svc, nil
}

// RegionBackendService returns the named regional backend service's
// configuration.
func (c *Connection) RegionBackendService(ctx context.Context, region, name string) (*compute.BackendService, error) {
	svc, err := c.service.RegionBackendServices.Get(c.projectID, region, name).Context(ctx).Do()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return svc, nil
}

// PatchBackendService applies the given partial configuration to the
// named global backend service.
func (c *Connection) PatchBackendService(ctx context.Context, name string, svc *compute.BackendService) error {
	op, err := c.service.BackendServices.Patch(c.projectID, name, svc).Context(ctx).Do()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.waitGlobalOperation(ctx, op))
}

// PatchRegionBackendService applies the given partial configuration
// to the named regional backend service.
func (c *Connection) PatchRegionBackendService(ctx context.Context, region, name string, svc *compute.BackendService) error {
	op, err := c.service.RegionBackendServices.Patch(c.projectID, region, name, svc).Context(ctx).Do()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.waitRegionOperation(ctx, region, op))
}

// ForwardingRule returns the named regional forwarding rule's
// configuration.
func (c *Connection) ForwardingRule(ctx context.Context, region, name string) (*compute.ForwardingRule, error) {
	rule, err := c.service.ForwardingRules.Get(c.projectID, region, name).Context(ctx).Do()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return rule, nil
}

// ForwardingRules returns every forwarding rule in the region.
func (c *Connection) ForwardingRules(ctx context.Context, region string) ([]*compute.ForwardingRule, error) {
	call := c.service.ForwardingRules.List(c.projectID, region).Context(ctx)
	var results []*compute.ForwardingRule
	err := call.Pages(ctx, func(page *compute.ForwardingRuleList) error {
		results = append(results, page.Items...)
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return results, nil
}

// CreateForwardingRule inserts a regional forwarding rule from the
// given configuration.
func (c *Connection) CreateForwardingRule(ctx context.Context, region string, rule *compute.ForwardingRule) error {
	logger.Debugf("forwarding rule insert request: %q in %s", rule.Name, region)
	op, err := c.service.ForwardingRules.Insert(c.projectID, region, rule).Context(ctx).Do()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.waitRegionOperation(ctx, region, op))
}

// DeleteForwardingRule removes the named regional forwarding rule.
func (c *Connection) DeleteForwardingRule(ctx context.Context, region, name string) error {
	op, err := c.service.ForwardingRules.Delete(c.projectID, region, name).Context(ctx).Do()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.waitRegionOperation(ctx, region, op))
}

// GlobalForwardingRule returns the named global forwarding rule's
// configuration.
func (c *Connection) GlobalForwardingRule(ctx context.Context, name string) (*compute.ForwardingRule, error) {
	rule, err := c.service.GlobalForwardingRules.Get(c.projectID, name).Context(ctx).Do()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return rule, nil
}

// TargetHTTPProxy returns the named target HTTP proxy.
func (c *Connection) TargetHTTPProxy(ctx context.Context, name string) (*compute.TargetHttpProxy, error) {
	proxy, err := c.service.TargetHttpProxies.Get(c.projectID, name).Context(ctx).Do()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return proxy, nil
}

// TargetHTTPSProxy returns the named target HTTPS proxy.
func (c *Connection) TargetHTTPSProxy(ctx context.Context, name string) (*compute.TargetHttpsProxy, error) {
	proxy, err := c.service.TargetHttpsProxies.Get(c.projectID, name).Context(ctx).Do()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return proxy, nil
}

// TargetTCPProxy returns the named target TCP proxy.
func (c *Connection) TargetTCPProxy(ctx context.Context, name string) (*compute.TargetTcpProxy, error) {
	proxy, err := c.service.TargetTcpProxies.Get(c.projectID, name).Context(ctx).Do()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return proxy, nil
}

// TargetSSLProxy returns the named target SSL proxy.
func (c *Connection) TargetSSLProxy(ctx context.Context, name string) (*compute.TargetSslProxy, error) {
	proxy, err := c.service.TargetSslProxies.Get(c.projectID, name).Context(ctx).Do()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return proxy, nil
}

// URLMap returns the named URL map.
func (c *Connection) URLMap(ctx context.Context, name string) (*compute.UrlMap, error) {
	urlMap, err := c.service.UrlMaps.Get(c.projectID, name).Context(ctx).Do()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return urlMap, nil
}
