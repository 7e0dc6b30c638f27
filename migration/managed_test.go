// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package migration

import (
	"context"

	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"
	"google.golang.org/api/compute/v1"
)

type managedSuite struct {
	baseSuite
}

var _ = gc.Suite(&managedSuite{})

func (s *managedSuite) newHandle(c *gc.C, mgr *compute.InstanceGroupManager) *managedGroupHandle {
	loc := Locator{
		Project:    testProject,
		Zone:       testZone,
		Collection: "instanceGroupManagers",
		Name:       mgr.Name,
	}
	handle, err := newManagedGroupHandle(context.Background(), s.engine, loc, false, mgr)
	c.Assert(err, jc.ErrorIsNil)
	return handle
}

func (s *managedSuite) TestMigrate(c *gc.C) {
	mgr := s.addManager("brokers")
	handle := s.newHandle(c, mgr)

	cp, err := handle.Migrate(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cp, gc.Equals, GroupRecreated)
	c.Check(s.conn.mutationNames(), jc.DeepEquals, []string{
		"CreateInstanceTemplate",
		"DeleteInstanceGroupManager",
		"CreateInstanceGroupManager",
	})

	newName := "brokers-tmpl-1700000000"
	tmpl := s.conn.templates[newName]
	c.Assert(tmpl, gc.NotNil)
	c.Check(tmpl.Properties.NetworkInterfaces[0].Network, gc.Equals, targetNetworkLink)
	c.Check(tmpl.Properties.NetworkInterfaces[0].Subnetwork, gc.Equals, targetSubnetLink)

	recreated := s.conn.managers["brokers"]
	c.Assert(recreated, gc.NotNil)
	c.Check(recreated.InstanceTemplate, gc.Equals, tmpl.SelfLink)
	c.Check(recreated.TargetSize, gc.Equals, int64(2))
}

func (s *managedSuite) TestMigrateRefusesTargetPoolMember(c *gc.C) {
	mgr := s.addManager("brokers")
	mgr.TargetPools = []string{"projects/spam/regions/us-central1/targetPools/lb"}
	handle := s.newHandle(c, mgr)

	cp, err := handle.Migrate(context.Background())
	c.Assert(err, jc.ErrorIs, ErrMigrationFailed)
	c.Check(cp, gc.Equals, CheckpointNone)
	c.Check(s.conn.mutationNames(), gc.HasLen, 0)
}

func (s *managedSuite) TestMigrateAlreadyOnTargetIsNoop(c *gc.C) {
	mgr := s.addManager("brokers")
	s.conn.templates["brokers-tmpl"].Properties.NetworkInterfaces[0].Subnetwork = targetSubnetLink
	handle := s.newHandle(c, mgr)

	cp, err := handle.Migrate(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cp, gc.Equals, GroupRecreated)
	c.Check(s.conn.mutationNames(), gc.HasLen, 0)
}

func (s *managedSuite) TestMigrateWithAutoscaler(c *gc.C) {
	mgr := s.addManager("brokers")
	s.conn.autoscalers[mgr.SelfLink] = &compute.Autoscaler{Name: "brokers-as", Target: mgr.SelfLink}
	handle := s.newHandle(c, mgr)

	cp, err := handle.Migrate(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cp, gc.Equals, GroupRecreated)
}

func (s *managedSuite) TestRollback(c *gc.C) {
	mgr := s.addManager("brokers")
	handle := s.newHandle(c, mgr)

	cp, err := handle.Migrate(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	s.conn.calls = nil

	err = handle.Rollback(context.Background(), cp)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.conn.mutationNames(), jc.DeepEquals, []string{
		"DeleteInstanceGroupManager",
		"CreateInstanceGroupManager",
		"DeleteInstanceTemplate",
	})
	restored := s.conn.managers["brokers"]
	c.Assert(restored, gc.NotNil)
	c.Check(restored.InstanceTemplate, gc.Equals, "projects/spam/global/instanceTemplates/brokers-tmpl")
	c.Check(s.conn.templates["brokers-tmpl-1700000000"], gc.IsNil)
}

func (s *managedSuite) TestRegionalMigrate(c *gc.C) {
	tmpl := &compute.InstanceTemplate{
		Name:     "web-tmpl",
		SelfLink: "projects/spam/global/instanceTemplates/web-tmpl",
		Properties: &compute.InstanceProperties{
			NetworkInterfaces: []*compute.NetworkInterface{{Network: legacyNetworkLink}},
		},
	}
	s.conn.templates["web-tmpl"] = tmpl
	mgr := &compute.InstanceGroupManager{
		Name:             "web",
		SelfLink:         "projects/spam/regions/" + testRegion + "/instanceGroupManagers/web",
		InstanceTemplate: tmpl.SelfLink,
	}
	s.conn.regionManagers["web"] = mgr

	loc := Locator{
		Project:    testProject,
		Region:     testRegion,
		Collection: "instanceGroupManagers",
		Name:       "web",
	}
	handle, err := newManagedGroupHandle(context.Background(), s.engine, loc, true, mgr)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(handle.Kind(), gc.Equals, KindRegionalManagedGroup)

	cp, err := handle.Migrate(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cp, gc.Equals, GroupRecreated)
	c.Check(s.conn.mutationNames(), jc.DeepEquals, []string{
		"CreateInstanceTemplate",
		"DeleteRegionInstanceGroupManager",
		"CreateRegionInstanceGroupManager",
	})
}
