// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package migration

import (
	"context"
	"strings"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"google.golang.org/api/compute/v1"

	"github.com/gcetools/netmigrate/google"
)

const schemeInternal = "INTERNAL"

// externalRuleHandle migrates an external regional forwarding rule.
// The rule itself carries no network binding, so migration is entirely
// a matter of migrating whatever it targets.
type externalRuleHandle struct {
	*engine
	loc   Locator
	rule  *compute.ForwardingRule
	child Handler
	state Checkpoint
}

func newExternalRuleHandle(ctx context.Context, e *engine, loc Locator, rule *compute.ForwardingRule) (*externalRuleHandle, error) {
	h := &externalRuleHandle{engine: e, loc: loc, rule: rule}
	switch {
	case rule.BackendService != "":
		svcLoc, err := ParseLocator(rule.BackendService)
		if err != nil {
			return nil, errors.Trace(err)
		}
		service, err := e.conn.RegionBackendService(ctx, svcLoc.Region, svcLoc.Name)
		if err != nil {
			return nil, errors.Annotatef(err, "fetching backend service %q", svcLoc.Name)
		}
		h.child, err = newBackendServiceHandle(ctx, e, svcLoc, true, service)
		if err != nil {
			return nil, errors.Trace(err)
		}
	case strings.Contains(rule.Target, "/targetPools/"):
		poolLoc, err := ParseLocator(rule.Target)
		if err != nil {
			return nil, errors.Trace(err)
		}
		pool, err := e.conn.TargetPool(ctx, poolLoc.Region, poolLoc.Name)
		if err != nil {
			return nil, errors.Annotatef(err, "fetching target pool %q", poolLoc.Name)
		}
		h.child, err = newTargetPoolHandle(ctx, e, poolLoc, pool)
		if err != nil {
			return nil, errors.Trace(err)
		}
	case rule.Target == "":
		// Nothing behind the rule; migration is a no-op.
	default:
		return nil, errors.Annotatef(ErrUnsupportedKind,
			"forwarding rule %q targets %q", loc.Name, rule.Target)
	}
	return h, nil
}

// Kind implements Handler.
func (h *externalRuleHandle) Kind() Kind { return KindExternalRule }

// Locator implements Handler.
func (h *externalRuleHandle) Locator() Locator { return h.loc }

// Migrate implements Handler.
func (h *externalRuleHandle) Migrate(ctx context.Context) (Checkpoint, error) {
	if h.child == nil {
		logger.Infof("forwarding rule %q has no backends to migrate", h.loc.Name)
		return BackendsMigrated, nil
	}
	logger.Infof("migrating backends of forwarding rule %q", h.loc.Name)
	cp, err := h.child.Migrate(ctx)
	h.state = cp
	if err != nil {
		return CheckpointNone, errors.Trace(err)
	}
	return BackendsMigrated, nil
}

// Rollback implements Handler.
func (h *externalRuleHandle) Rollback(ctx context.Context, cp Checkpoint) error {
	if h.child == nil {
		return nil
	}
	if err := h.child.Rollback(ctx, h.state); err != nil {
		return errors.Trace(err)
	}
	h.state = CheckpointNone
	return nil
}

// internalRuleHandle migrates an internal regional forwarding rule.
// The rule is bound to the legacy network, so it has to be deleted,
// its backend service migrated, and the rule recreated against the
// target subnetwork. The frontend is down for the duration.
type internalRuleHandle struct {
	*engine
	loc        Locator
	target     *resolvedTarget
	rule       *compute.ForwardingRule
	updated    *compute.ForwardingRule
	service    *backendServiceHandle
	childState Checkpoint
	migrated   bool
}

func newInternalRuleHandle(ctx context.Context, e *engine, loc Locator, rule *compute.ForwardingRule) (*internalRuleHandle, error) {
	target, err := e.target.resolve(ctx, e.conn, loc.Region)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if rule.BackendService == "" {
		return nil, errors.Annotatef(ErrUnsupportedKind,
			"internal forwarding rule %q has no backend service", loc.Name)
	}
	svcLoc, err := ParseLocator(rule.BackendService)
	if err != nil {
		return nil, errors.Trace(err)
	}
	service, err := e.conn.RegionBackendService(ctx, svcLoc.Region, svcLoc.Name)
	if err != nil {
		return nil, errors.Annotatef(err, "fetching backend service %q", svcLoc.Name)
	}
	h := &internalRuleHandle{engine: e, loc: loc, target: target, rule: rule}
	h.service, err = newBackendServiceHandle(ctx, e, svcLoc, true, service)
	if err != nil {
		return nil, errors.Trace(err)
	}
	updated := deepCopy(rule)
	updated.Network = target.networkLink
	updated.Subnetwork = target.subnetworkLink
	updated.SelfLink = ""
	updated.Fingerprint = ""
	// The old frontend address belongs to the legacy subnet and cannot
	// follow the rule into the target subnetwork.
	updated.IPAddress = ""
	h.updated = updated
	return h, nil
}

// Kind implements Handler.
func (h *internalRuleHandle) Kind() Kind { return KindInternalRule }

// Locator implements Handler.
func (h *internalRuleHandle) Locator() Locator { return h.loc }

// sharedService reports whether another forwarding rule in the region
// uses the same backend service.
func (h *internalRuleHandle) sharedService(ctx context.Context) (bool, error) {
	rules, err := h.conn.ForwardingRules(ctx, h.loc.Region)
	if err != nil {
		return false, errors.Annotatef(err, "listing forwarding rules in %q", h.loc.Region)
	}
	for _, rule := range rules {
		if rule.Name == h.loc.Name {
			continue
		}
		if linksMatch(rule.BackendService, h.rule.BackendService) {
			return true, nil
		}
	}
	return false, nil
}

// Migrate implements Handler.
func (h *internalRuleHandle) Migrate(ctx context.Context) (Checkpoint, error) {
	if h.migrated {
		return RuleRecreated, nil
	}
	if linksMatch(h.rule.Subnetwork, h.target.subnetworkLink) {
		logger.Infof("forwarding rule %q is already using the target subnetwork", h.loc.Name)
		h.migrated = true
		return RuleRecreated, nil
	}
	shared, err := h.sharedService(ctx)
	if err != nil {
		return CheckpointNone, errors.Trace(err)
	}
	if shared {
		logger.Warningf("backend service of forwarding rule %q is shared with other forwarding rules; skipping", h.loc.Name)
		return CheckpointNone, nil
	}

	logger.Infof("deleting forwarding rule %q", h.loc.Name)
	if err := h.conn.DeleteForwardingRule(ctx, h.loc.Region, h.loc.Name); err != nil {
		if !google.IsNotFound(err) {
			return CheckpointNone, errors.Annotatef(err, "deleting forwarding rule %q", h.loc.Name)
		}
	}
	cp := RuleDeleted

	childCP, err := h.service.Migrate(ctx)
	h.childState = childCP
	if err != nil {
		return cp, errors.Annotatef(err, "migrating backend service of rule %q", h.loc.Name)
	}
	cp = RuleBackendMigrated

	logger.Infof("recreating forwarding rule %q in the target subnetwork", h.loc.Name)
	if err := h.conn.CreateForwardingRule(ctx, h.loc.Region, h.updated); err != nil {
		if !google.IsConflict(err) {
			return cp, errors.Annotatef(err, "recreating forwarding rule %q", h.loc.Name)
		}
	}
	h.migrated = true
	return RuleRecreated, nil
}

// Rollback implements Handler.
func (h *internalRuleHandle) Rollback(ctx context.Context, cp Checkpoint) error {
	if cp >= RuleDeleted {
		// Drop whichever incarnation exists before recreating the
		// original rule against its old network.
		if err := h.conn.DeleteForwardingRule(ctx, h.loc.Region, h.loc.Name); err != nil && !google.IsNotFound(err) {
			return errors.Annotatef(err, "deleting forwarding rule %q", h.loc.Name)
		}
	}
	// The service tracks its own detachments, so its rollback runs
	// even when its migration never confirmed a checkpoint.
	if err := h.service.Rollback(ctx, h.childState); err != nil {
		return errors.Annotatef(err, "rolling back backend service of rule %q", h.loc.Name)
	}
	h.childState = CheckpointNone
	if cp >= RuleDeleted {
		logger.Infof("recreating original forwarding rule %q", h.loc.Name)
		original := deepCopy(h.rule)
		original.SelfLink = ""
		original.Fingerprint = ""
		if err := h.conn.CreateForwardingRule(ctx, h.loc.Region, original); err != nil && !google.IsConflict(err) {
			return errors.Annotatef(err, "recreating forwarding rule %q", h.loc.Name)
		}
	}
	h.migrated = false
	return nil
}

// globalRuleHandle migrates a global forwarding rule by walking its
// target proxy to the backend services behind it and migrating each.
// Neither rule nor proxy is touched.
type globalRuleHandle struct {
	*engine
	loc      Locator
	rule     *compute.ForwardingRule
	services []*backendServiceHandle
	states   []Checkpoint
	migrated bool
}

func newGlobalRuleHandle(ctx context.Context, e *engine, loc Locator, rule *compute.ForwardingRule) (*globalRuleHandle, error) {
	h := &globalRuleHandle{engine: e, loc: loc, rule: rule}
	links, err := h.serviceLinks(ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	seen := set.NewStrings()
	for _, link := range links {
		svcLoc, err := ParseLocator(link)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if seen.Contains(svcLoc.String()) {
			continue
		}
		seen.Add(svcLoc.String())
		service, err := e.conn.BackendService(ctx, svcLoc.Name)
		if err != nil {
			return nil, errors.Annotatef(err, "fetching backend service %q", svcLoc.Name)
		}
		handle, err := newBackendServiceHandle(ctx, e, svcLoc, false, service)
		if err != nil {
			return nil, errors.Trace(err)
		}
		h.services = append(h.services, handle)
		h.states = append(h.states, CheckpointNone)
	}
	return h, nil
}

// serviceLinks resolves the rule's target proxy to the self links of
// the backend services behind it.
func (h *globalRuleHandle) serviceLinks(ctx context.Context) ([]string, error) {
	target := h.rule.Target
	name := nameFromLink(target)
	switch {
	case strings.Contains(target, "/targetHttpProxies/"):
		proxy, err := h.conn.TargetHTTPProxy(ctx, name)
		if err != nil {
			return nil, errors.Annotatef(err, "fetching target HTTP proxy %q", name)
		}
		return h.urlMapServices(ctx, proxy.UrlMap)
	case strings.Contains(target, "/targetHttpsProxies/"):
		proxy, err := h.conn.TargetHTTPSProxy(ctx, name)
		if err != nil {
			return nil, errors.Annotatef(err, "fetching target HTTPS proxy %q", name)
		}
		return h.urlMapServices(ctx, proxy.UrlMap)
	case strings.Contains(target, "/targetTcpProxies/"):
		proxy, err := h.conn.TargetTCPProxy(ctx, name)
		if err != nil {
			return nil, errors.Annotatef(err, "fetching target TCP proxy %q", name)
		}
		return []string{proxy.Service}, nil
	case strings.Contains(target, "/targetSslProxies/"):
		proxy, err := h.conn.TargetSSLProxy(ctx, name)
		if err != nil {
			return nil, errors.Annotatef(err, "fetching target SSL proxy %q", name)
		}
		return []string{proxy.Service}, nil
	}
	return nil, errors.Annotatef(ErrUnsupportedKind,
		"global forwarding rule %q targets %q", h.loc.Name, target)
}

func (h *globalRuleHandle) urlMapServices(ctx context.Context, urlMapLink string) ([]string, error) {
	urlMap, err := h.conn.URLMap(ctx, nameFromLink(urlMapLink))
	if err != nil {
		return nil, errors.Annotatef(err, "fetching URL map %q", nameFromLink(urlMapLink))
	}
	var links []string
	if urlMap.DefaultService != "" {
		links = append(links, urlMap.DefaultService)
	}
	for _, matcher := range urlMap.PathMatchers {
		if matcher.DefaultService != "" {
			links = append(links, matcher.DefaultService)
		}
		for _, rule := range matcher.PathRules {
			if rule.Service != "" {
				links = append(links, rule.Service)
			}
		}
	}
	return links, nil
}

// Kind implements Handler.
func (h *globalRuleHandle) Kind() Kind { return KindGlobalRule }

// Locator implements Handler.
func (h *globalRuleHandle) Locator() Locator { return h.loc }

// Migrate implements Handler.
func (h *globalRuleHandle) Migrate(ctx context.Context) (Checkpoint, error) {
	if h.migrated {
		return BackendsMigrated, nil
	}
	for i, service := range h.services {
		logger.Infof("migrating backend service %q behind forwarding rule %q", service.loc.Name, h.loc.Name)
		cp, err := service.Migrate(ctx)
		h.states[i] = cp
		if err != nil {
			return CheckpointNone, errors.Annotatef(err, "migrating backend service %q", service.loc.Name)
		}
	}
	h.migrated = true
	return BackendsMigrated, nil
}

// Rollback implements Handler.
func (h *globalRuleHandle) Rollback(ctx context.Context, cp Checkpoint) error {
	for i, service := range h.services {
		if err := service.Rollback(ctx, h.states[i]); err != nil {
			return errors.Annotatef(err, "rolling back backend service %q", service.loc.Name)
		}
		h.states[i] = CheckpointNone
	}
	h.migrated = false
	return nil
}
