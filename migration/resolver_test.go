// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package migration

import (
	"context"

	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"
	"google.golang.org/api/compute/v1"
)

type resolverSuite struct {
	baseSuite
}

var _ = gc.Suite(&resolverSuite{})

func (s *resolverSuite) resolve(c *gc.C, link string) Handler {
	loc, err := ParseLocator(link)
	c.Assert(err, jc.ErrorIsNil)
	handle, err := resolveHandle(context.Background(), s.engine, loc)
	c.Assert(err, jc.ErrorIsNil)
	return handle
}

func (s *resolverSuite) TestResolveInstance(c *gc.C) {
	s.addInstance("eggs")
	handle := s.resolve(c, instanceLink("eggs"))
	c.Check(handle.Kind(), gc.Equals, KindInstance)
}

func (s *resolverSuite) TestResolveUnmanagedGroup(c *gc.C) {
	s.conn.groups["veggies"] = &compute.InstanceGroup{
		Name:     "veggies",
		SelfLink: "projects/spam/zones/" + testZone + "/instanceGroups/veggies",
		Network:  legacyNetworkLink,
	}
	handle := s.resolve(c, s.conn.groups["veggies"].SelfLink)
	c.Check(handle.Kind(), gc.Equals, KindUnmanagedGroup)
}

func (s *resolverSuite) TestResolveManagedGroup(c *gc.C) {
	mgr := s.addManager("brokers")
	handle := s.resolve(c, mgr.InstanceGroup)
	c.Check(handle.Kind(), gc.Equals, KindZonalManagedGroup)
}

func (s *resolverSuite) TestResolveRegionalGroupByZonalMiss(c *gc.C) {
	tmpl := &compute.InstanceTemplate{
		Name:     "web-tmpl",
		SelfLink: "projects/spam/global/instanceTemplates/web-tmpl",
		Properties: &compute.InstanceProperties{
			NetworkInterfaces: []*compute.NetworkInterface{{Network: legacyNetworkLink}},
		},
	}
	s.conn.templates["web-tmpl"] = tmpl
	s.conn.regionManagers["web"] = &compute.InstanceGroupManager{
		Name:             "web",
		InstanceTemplate: tmpl.SelfLink,
	}
	handle := s.resolve(c, "projects/spam/zones/"+testZone+"/instanceGroups/web")
	c.Check(handle.Kind(), gc.Equals, KindRegionalManagedGroup)
	c.Check(handle.Locator().Region, gc.Equals, testRegion)
}

func (s *resolverSuite) TestResolveTargetPool(c *gc.C) {
	s.conn.pools["lb"] = &compute.TargetPool{
		Name:     "lb",
		SelfLink: "projects/spam/regions/" + testRegion + "/targetPools/lb",
	}
	handle := s.resolve(c, s.conn.pools["lb"].SelfLink)
	c.Check(handle.Kind(), gc.Equals, KindTargetPool)
}

func (s *resolverSuite) TestResolveForwardingRules(c *gc.C) {
	s.conn.regionServices["int-be"] = &compute.BackendService{
		Name:     "int-be",
		SelfLink: "projects/spam/regions/" + testRegion + "/backendServices/int-be",
	}
	s.conn.rules["int-lb"] = &compute.ForwardingRule{
		Name:                "int-lb",
		SelfLink:            "projects/spam/regions/" + testRegion + "/forwardingRules/int-lb",
		LoadBalancingScheme: schemeInternal,
		BackendService:      s.conn.regionServices["int-be"].SelfLink,
	}
	handle := s.resolve(c, s.conn.rules["int-lb"].SelfLink)
	c.Check(handle.Kind(), gc.Equals, KindInternalRule)

	s.conn.pools["lb"] = &compute.TargetPool{
		Name:     "lb",
		SelfLink: "projects/spam/regions/" + testRegion + "/targetPools/lb",
	}
	s.conn.rules["ext-lb"] = &compute.ForwardingRule{
		Name:     "ext-lb",
		SelfLink: "projects/spam/regions/" + testRegion + "/forwardingRules/ext-lb",
		Target:   s.conn.pools["lb"].SelfLink,
	}
	handle = s.resolve(c, s.conn.rules["ext-lb"].SelfLink)
	c.Check(handle.Kind(), gc.Equals, KindExternalRule)
}

func (s *resolverSuite) TestResolveGlobalForwardingRule(c *gc.C) {
	s.conn.services["web-be"] = &compute.BackendService{
		Name:     "web-be",
		SelfLink: "projects/spam/global/backendServices/web-be",
	}
	s.conn.tcpProxies["web-proxy"] = &compute.TargetTcpProxy{
		Name:    "web-proxy",
		Service: s.conn.services["web-be"].SelfLink,
	}
	s.conn.globalRules["web"] = &compute.ForwardingRule{
		Name:     "web",
		SelfLink: "projects/spam/global/forwardingRules/web",
		Target:   "projects/spam/global/targetTcpProxies/web-proxy",
	}
	handle := s.resolve(c, s.conn.globalRules["web"].SelfLink)
	c.Check(handle.Kind(), gc.Equals, KindGlobalRule)
}

func (s *resolverSuite) TestResolveBackendService(c *gc.C) {
	s.conn.services["web-be"] = &compute.BackendService{
		Name:     "web-be",
		SelfLink: "projects/spam/global/backendServices/web-be",
	}
	handle := s.resolve(c, s.conn.services["web-be"].SelfLink)
	c.Check(handle.Kind(), gc.Equals, KindBackendService)
}

func (s *resolverSuite) TestResolveUnsupportedCollection(c *gc.C) {
	loc, err := ParseLocator("projects/spam/global/snapshots/snappy")
	c.Assert(err, jc.ErrorIsNil)
	_, err = resolveHandle(context.Background(), s.engine, loc)
	c.Assert(err, jc.ErrorIs, ErrUnsupportedKind)
}
