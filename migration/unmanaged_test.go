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

type unmanagedSuite struct {
	baseSuite
}

var _ = gc.Suite(&unmanagedSuite{})

func (s *unmanagedSuite) addGroup(name string, members ...string) *compute.InstanceGroup {
	var links []string
	for _, member := range members {
		s.addInstance(member)
		links = append(links, instanceLink(member))
	}
	group := &compute.InstanceGroup{
		Name:     name,
		SelfLink: "projects/spam/zones/" + testZone + "/instanceGroups/" + name,
		Network:  legacyNetworkLink,
	}
	s.conn.groups[name] = group
	s.conn.members[name] = links
	return group
}

func (s *unmanagedSuite) newHandle(c *gc.C, name string) *unmanagedGroupHandle {
	loc, err := ParseLocator(s.conn.groups[name].SelfLink)
	c.Assert(err, jc.ErrorIsNil)
	handle, err := newUnmanagedGroupHandle(context.Background(), s.engine, loc, s.conn.groups[name])
	c.Assert(err, jc.ErrorIsNil)
	return handle
}

func (s *unmanagedSuite) TestMigrate(c *gc.C) {
	s.addGroup("veggies", "potato", "tomato")
	handle := s.newHandle(c, "veggies")

	cp, err := handle.Migrate(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cp, gc.Equals, MembersRestored)
	c.Check(s.conn.mutationNames(), jc.DeepEquals, []string{
		"StopInstance", "DetachDisk", "DeleteInstance", "CreateInstance",
		"StopInstance", "DetachDisk", "DeleteInstance", "CreateInstance",
		"DeleteInstanceGroup",
		"CreateInstanceGroup",
		"AddInstanceGroupMember",
		"AddInstanceGroupMember",
	})
	created := s.conn.groups["veggies"]
	c.Assert(created, gc.NotNil)
	c.Check(created.Network, gc.Equals, targetNetworkLink)
	c.Check(created.Subnetwork, gc.Equals, targetSubnetLink)
	c.Check(s.conn.members["veggies"], jc.DeepEquals, []string{
		instanceLink("potato"), instanceLink("tomato"),
	})
}

func (s *unmanagedSuite) TestMigrateAlreadyOnTargetIsNoop(c *gc.C) {
	group := s.addGroup("veggies", "potato")
	group.Network = targetNetworkLink
	group.Subnetwork = targetSubnetLink
	handle := s.newHandle(c, "veggies")

	cp, err := handle.Migrate(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cp, gc.Equals, MembersRestored)
	c.Check(s.conn.mutationNames(), gc.HasLen, 0)
}

func (s *unmanagedSuite) TestMigrateExistingMemberIsWarning(c *gc.C) {
	s.addGroup("veggies", "potato")
	s.conn.failOn = "AddInstanceGroupMember"
	s.conn.failWith = errors.New(`instance "potato" is already a member of "veggies"`)
	handle := s.newHandle(c, "veggies")

	cp, err := handle.Migrate(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cp, gc.Equals, MembersRestored)
}

func (s *unmanagedSuite) TestRollbackRestoresGroupAndMembers(c *gc.C) {
	s.addGroup("veggies", "potato")
	s.conn.failOn = "CreateInstanceGroup"
	s.conn.failWith = errors.New("quota exceeded")
	handle := s.newHandle(c, "veggies")

	cp, err := handle.Migrate(context.Background())
	c.Assert(err, gc.ErrorMatches, `creating instance group "veggies": quota exceeded`)
	c.Check(cp, gc.Equals, UnmanagedGroupDeleted)

	s.conn.failOn = ""
	s.conn.calls = nil
	err = handle.Rollback(context.Background(), cp)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.conn.mutationNames(), jc.DeepEquals, []string{
		"DeleteInstanceGroup",
		"DeleteInstance",
		"CreateInstance",
		"CreateInstanceGroup",
		"AddInstanceGroupMember",
	})
	restored := s.conn.groups["veggies"]
	c.Check(restored.Network, gc.Equals, legacyNetworkLink)
	c.Check(s.conn.instances["potato"].NetworkInterfaces[0].Network, gc.Equals, legacyNetworkLink)
}
