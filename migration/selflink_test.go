// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package migration

import (
	"github.com/juju/errors"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"
)

type selfLinkSuite struct{}

var _ = gc.Suite(&selfLinkSuite{})

func (selfLinkSuite) TestParseAbsoluteZonal(c *gc.C) {
	loc, err := ParseLocator("https://www.googleapis.com/compute/v1/projects/spam/zones/us-central1-a/instances/eggs")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(loc, gc.Equals, Locator{
		Project:    "spam",
		Zone:       "us-central1-a",
		Collection: "instances",
		Name:       "eggs",
	})
}

func (selfLinkSuite) TestParseRelativeRegional(c *gc.C) {
	loc, err := ParseLocator("projects/spam/regions/us-central1/targetPools/lb")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(loc, gc.Equals, Locator{
		Project:    "spam",
		Region:     "us-central1",
		Collection: "targetPools",
		Name:       "lb",
	})
}

func (selfLinkSuite) TestParseGlobal(c *gc.C) {
	loc, err := ParseLocator("projects/spam/global/backendServices/web-be")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(loc, gc.Equals, Locator{
		Project:    "spam",
		Collection: "backendServices",
		Name:       "web-be",
	})
}

func (selfLinkSuite) TestParseInvalid(c *gc.C) {
	for _, link := range []string{
		"",
		"eggs",
		"projects/spam",
		"projects/spam/zones/us-central1-a",
		"projects/spam/somewhere/us-central1-a/instances/eggs",
		"zones/us-central1-a/instances/eggs",
	} {
		_, err := ParseLocator(link)
		c.Check(err, jc.ErrorIs, errors.NotValid, gc.Commentf("link %q", link))
	}
}

func (selfLinkSuite) TestStringRoundTrip(c *gc.C) {
	for _, link := range []string{
		"projects/spam/zones/us-central1-a/instances/eggs",
		"projects/spam/regions/us-central1/forwardingRules/lb",
		"projects/spam/global/forwardingRules/web",
	} {
		loc, err := ParseLocator(link)
		c.Assert(err, jc.ErrorIsNil)
		c.Check(loc.String(), gc.Equals, link)
	}
}

func (selfLinkSuite) TestRegionFromZone(c *gc.C) {
	c.Check(regionFromZone("us-central1-a"), gc.Equals, "us-central1")
	c.Check(regionFromZone("europe-west2-b"), gc.Equals, "europe-west2")
}

func (selfLinkSuite) TestNameFromLink(c *gc.C) {
	c.Check(nameFromLink("projects/spam/global/instanceTemplates/tmpl-1"), gc.Equals, "tmpl-1")
	c.Check(nameFromLink("tmpl-1"), gc.Equals, "tmpl-1")
}

func (selfLinkSuite) TestLinksMatch(c *gc.C) {
	full := "https://www.googleapis.com/compute/v1/projects/spam/global/networks/target-net"
	relative := "projects/spam/global/networks/target-net"
	c.Check(linksMatch(full, relative), jc.IsTrue)
	c.Check(linksMatch(relative, full), jc.IsTrue)
	c.Check(linksMatch(full, full), jc.IsTrue)
	c.Check(linksMatch(full, "projects/spam/global/networks/other"), jc.IsFalse)
	c.Check(linksMatch("", relative), jc.IsFalse)
}
