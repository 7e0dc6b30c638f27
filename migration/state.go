// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package migration

// Checkpoint is the ordinal of the last confirmed-complete step in a
// resource's migration. Each resource kind advances through its own
// sequence, strictly forward, and rollback walks it backward undoing
// only steps whose forward counterpart completed. The zero value
// always means no mutation has been made.
type Checkpoint int

// CheckpointNone is the shared starting checkpoint for every kind.
const CheckpointNone Checkpoint = 0

// Instance checkpoints.
const (
	InstanceStopped Checkpoint = iota + 1
	InstanceDisksDetached
	InstanceDeleted
	InstanceRecreated
)

// Managed instance group checkpoints.
const (
	GroupMigrating Checkpoint = iota + 1
	GroupTemplateCreated
	GroupDeleted
	GroupRecreated
)

// Unmanaged instance group checkpoints.
const (
	MembersMigrated Checkpoint = iota + 1
	UnmanagedGroupDeleted
	UnmanagedGroupRecreated
	MembersRestored
)

// Regional internal forwarding rule checkpoints.
const (
	RuleDeleted Checkpoint = iota + 1
	RuleBackendMigrated
	RuleRecreated
)

// BackendsMigrated is the terminal checkpoint for the kinds whose own
// resource is never deleted or recreated: target pools, backend
// services, and external-regional and global forwarding rules. Their
// only side effects live in their backing resources.
const BackendsMigrated Checkpoint = 1

// kindCheckpointNames maps each kind's checkpoint sequence to
// operator-readable names, reported when a migration fails.
var kindCheckpointNames = map[Kind][]string{
	KindInstance:             {"not started", "instance stopped", "disks detached", "original instance deleted", "instance recreated"},
	KindUnmanagedGroup:       {"not started", "member instances migrated", "original group deleted", "group recreated", "members restored"},
	KindZonalManagedGroup:    {"not started", "migrating", "new template created", "original group deleted", "new group created"},
	KindRegionalManagedGroup: {"not started", "migrating", "new template created", "original group deleted", "new group created"},
	KindTargetPool:           {"not started", "backends migrated"},
	KindBackendService:       {"not started", "backends migrated"},
	KindExternalRule:         {"not started", "backends migrated"},
	KindInternalRule:         {"not started", "rule deleted", "backend service migrated", "rule recreated"},
	KindGlobalRule:           {"not started", "backends migrated"},
}

// Name returns the operator-readable name of the checkpoint within
// the given kind's sequence.
func (cp Checkpoint) Name(kind Kind) string {
	names := kindCheckpointNames[kind]
	if int(cp) < 0 || int(cp) >= len(names) {
		return "unknown"
	}
	return names[cp]
}

// Kind enumerates the migratable resource kinds.
type Kind string

const (
	KindInstance             Kind = "instance"
	KindUnmanagedGroup       Kind = "unmanaged instance group"
	KindZonalManagedGroup    Kind = "zonal managed instance group"
	KindRegionalManagedGroup Kind = "regional managed instance group"
	KindTargetPool           Kind = "target pool"
	KindBackendService       Kind = "backend service"
	KindExternalRule         Kind = "external regional forwarding rule"
	KindInternalRule         Kind = "internal regional forwarding rule"
	KindGlobalRule           Kind = "global forwarding rule"
)
