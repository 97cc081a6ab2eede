// Package collective derives the process-addressing scheme of collective
// data-movement instructions from their channel metadata.
package collective

import (
	"errors"
	"fmt"
)

// GroupMode identifies the numbering space a collective's routing table is
// expressed in. Replica and partition ids are distinct spaces and are never
// interchangeable.
type GroupMode int

const (
	// CrossReplica routing addresses replica ids.
	CrossReplica GroupMode = iota

	// CrossPartition routing addresses partition ids.
	CrossPartition

	// CrossReplicaAndPartition routing addresses replica ids, applied in
	// every partition.
	CrossReplicaAndPartition

	// FlattenedID routing addresses the flattened cross-product of replica
	// and partition ids.
	FlattenedID
)

// String returns the mode's mnemonic.
func (m GroupMode) String() string {
	switch m {
	case CrossReplica:
		return "cross_replica"
	case CrossPartition:
		return "cross_partition"
	case CrossReplicaAndPartition:
		return "cross_replica_and_partition"
	case FlattenedID:
		return "flattened_id"
	}
	return fmt.Sprintf("group_mode(%d)", int(m))
}

// ModeError reports a contradictory channel configuration from which no
// group mode can be derived.
type ModeError struct {
	Message string
}

func (e *ModeError) Error() string {
	return "collective group mode: " + e.Message
}

// IsModeError returns true if err is a group-mode derivation failure.
// Uses errors.As to handle wrapped errors.
func IsModeError(err error) bool {
	var me *ModeError
	return errors.As(err, &me)
}

// GroupModeFor derives a collective's group mode from the presence of a
// channel id and the optional use-global-ids override flag (nil = unset):
//
//	channel  override   mode
//	no       unset      CrossReplica
//	yes      unset      CrossPartition
//	no       false      CrossReplica
//	yes      false      CrossReplicaAndPartition
//	no       true       error (flag is meaningless without a channel)
//	yes      true       FlattenedID
//
// The error case means the instruction's own metadata is self-contradictory;
// callers must treat it as malformed IR, not as a no-match.
func GroupModeFor(hasChannelID bool, useGlobalIDs *bool) (GroupMode, error) {
	if useGlobalIDs == nil {
		if hasChannelID {
			return CrossPartition, nil
		}
		return CrossReplica, nil
	}
	if !*useGlobalIDs {
		if hasChannelID {
			return CrossReplicaAndPartition, nil
		}
		return CrossReplica, nil
	}
	if !hasChannelID {
		return 0, &ModeError{Message: "use_global_ids=true requires a channel id"}
	}
	return FlattenedID, nil
}
