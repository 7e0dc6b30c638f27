// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package migration

import (
	"context"

	"github.com/juju/errors"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"
	"google.golang.org/api/compute/v1"
)

type targetPoolSuite struct {
	baseSuite
}

var _ = gc.Suite(&targetPoolSuite{})

func poolLink(name string) string {
	return "projects/spam/regions/" + testRegion + "/targetPools/" + name
}

func (s *targetPoolSuite) addPool(name string, instances ...string) *compute.TargetPool {
	var links []string
	for _, inst := range instances {
		s.addInstance(inst)
		links = append(links, instanceLink(inst))
	}
	pool := &compute.TargetPool{
		Name:      name,
		SelfLink:  poolLink(name),
		Region:    testRegion,
		Instances: links,
	}
	s.conn.pools[name] = pool
	return pool
}

func (s *targetPoolSuite) newHandle(c *gc.C, pool *compute.TargetPool) *targetPoolHandle {
	loc, err := ParseLocator(pool.SelfLink)
	c.Assert(err, jc.ErrorIsNil)
	handle, err := newTargetPoolHandle(context.Background(), s.engine, loc, pool)
	c.Assert(err, jc.ErrorIsNil)
	return handle
}

func (s *targetPoolSuite) TestMigrateStandaloneBackend(c *gc.C) {
	pool := s.addPool("lb", "potato")
	handle := s.newHandle(c, pool)

	cp, err := handle.Migrate(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cp, gc.Equals, BackendsMigrated)
	c.Check(s.conn.mutationNames(), jc.DeepEquals, []string{
		"RemoveTargetPoolInstance",
		"StopInstance", "DetachDisk", "DeleteInstance", "CreateInstance",
		"AddTargetPoolInstance",
	})
	// The pool serves exactly the backends it served before.
	c.Check(s.conn.pools["lb"].Instances, jc.DeepEquals, []string{instanceLink("potato")})
}

func (s *targetPoolSuite) TestUnmanagedGroupMemberIsAmbiguous(c *gc.C) {
	pool := s.addPool("lb", "potato")
	s.conn.groups["anarchists"] = &compute.InstanceGroup{
		Name:     "anarchists",
		SelfLink: "projects/spam/zones/" + testZone + "/instanceGroups/anarchists",
	}
	s.conn.referrers["potato"] = []string{s.conn.groups["anarchists"].SelfLink}

	loc, err := ParseLocator(pool.SelfLink)
	c.Assert(err, jc.ErrorIsNil)
	_, err = newTargetPoolHandle(context.Background(), s.engine, loc, pool)
	c.Assert(err, jc.ErrorIs, ErrAmbiguousResource)
	c.Check(s.conn.mutationNames(), gc.HasLen, 0)
}

func (s *targetPoolSuite) TestMigrateManagedGroupBackend(c *gc.C) {
	pool := s.addPool("lb", "potato")
	mgr := s.addManager("brokers")
	mgr.TargetPools = []string{pool.SelfLink}
	s.conn.referrers["potato"] = []string{mgr.InstanceGroup}
	handle := s.newHandle(c, pool)

	cp, err := handle.Migrate(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cp, gc.Equals, BackendsMigrated)
	c.Check(s.conn.mutationNames(), jc.DeepEquals, []string{
		"SetInstanceGroupManagerTargetPools",
		"CreateInstanceTemplate",
		"DeleteInstanceGroupManager",
		"CreateInstanceGroupManager",
		"SetInstanceGroupManagerTargetPools",
	})
	c.Check(s.conn.managers["brokers"].TargetPools, jc.DeepEquals, []string{pool.SelfLink})
}

func (s *targetPoolSuite) TestRollbackReattachesBackend(c *gc.C) {
	pool := s.addPool("lb", "potato")
	s.conn.failOn = "CreateInstance"
	s.conn.failWith = errors.New("quota exceeded")
	handle := s.newHandle(c, pool)

	cp, err := handle.Migrate(context.Background())
	c.Assert(err, gc.ErrorMatches, `migrating pool instance "potato": creating instance "potato": quota exceeded`)
	c.Check(cp, gc.Equals, CheckpointNone)

	s.conn.failOn = ""
	s.conn.calls = nil
	err = handle.Rollback(context.Background(), cp)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.conn.mutationNames(), jc.DeepEquals, []string{
		"CreateInstance",
		"AddTargetPoolInstance",
	})
	c.Check(s.conn.pools["lb"].Instances, jc.DeepEquals, []string{instanceLink("potato")})
	c.Check(s.conn.instances["potato"].NetworkInterfaces[0].Network, gc.Equals, legacyNetworkLink)
}
