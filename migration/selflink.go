// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package migration

import (
	"strings"

	"github.com/juju/errors"
)

// Locator identifies a single compute resource: project, scope
// (global, a region or a zone), collection and name. It is the parsed
// form of a self link and is comparable; two locators are equal iff
// their normalized forms match.
type Locator struct {
	Project    string
	Region     string
	Zone       string
	Collection string
	Name       string
}

// ParseLocator parses a self link, in either its absolute
// (https://www.googleapis.com/compute/v1/projects/...) or relative
// (projects/...) form, into a Locator.
func ParseLocator(link string) (Locator, error) {
	trimmed := link
	if i := strings.Index(trimmed, "/projects/"); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	if len(parts) < 4 || parts[0] != "projects" {
		return Locator{}, errors.NotValidf("resource link %q", link)
	}
	loc := Locator{Project: parts[1]}
	rest := parts[2:]
	switch rest[0] {
	case "global":
		rest = rest[1:]
	case "regions":
		if len(rest) < 4 {
			return Locator{}, errors.NotValidf("resource link %q", link)
		}
		loc.Region = rest[1]
		rest = rest[2:]
	case "zones":
		if len(rest) < 4 {
			return Locator{}, errors.NotValidf("resource link %q", link)
		}
		loc.Zone = rest[1]
		rest = rest[2:]
	default:
		return Locator{}, errors.NotValidf("resource link %q", link)
	}
	if len(rest) != 2 {
		return Locator{}, errors.NotValidf("resource link %q", link)
	}
	loc.Collection = rest[0]
	loc.Name = rest[1]
	return loc, nil
}

// String returns the normalized relative link for the locator.
func (l Locator) String() string {
	var scope string
	switch {
	case l.Zone != "":
		scope = "zones/" + l.Zone
	case l.Region != "":
		scope = "regions/" + l.Region
	default:
		scope = "global"
	}
	return strings.Join([]string{"projects", l.Project, scope, l.Collection, l.Name}, "/")
}

// regionFromZone maps a zone name to its region name, e.g.
// us-central1-a to us-central1.
func regionFromZone(zone string) string {
	if i := strings.LastIndex(zone, "-"); i > 0 {
		return zone[:i]
	}
	return zone
}

// nameFromLink returns the final path component of a self link.
func nameFromLink(link string) string {
	parts := strings.Split(strings.TrimRight(link, "/"), "/")
	return parts[len(parts)-1]
}

// linksMatch reports whether two resource links refer to the same
// resource, tolerating one being relative and the other absolute.
func linksMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.HasSuffix(a, b) || strings.HasSuffix(b, a)
}
