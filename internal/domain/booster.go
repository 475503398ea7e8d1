package domain

// BoostState is a member's position in the booster role state machine.
type BoostState int

const (
	NotBoosting BoostState = iota
	Boosting
	BoostingMuted
)

func (s BoostState) String() string {
	switch s {
	case NotBoosting:
		return "not_boosting"
	case Boosting:
		return "boosting"
	case BoostingMuted:
		return "boosting_muted"
	default:
		return "unknown"
	}
}

// MemberStatus is the part of a member that drives the booster role.
type MemberStatus struct {
	Boosting bool
	Muted    bool
}

func (m MemberStatus) State() BoostState {
	switch {
	case !m.Boosting:
		return NotBoosting
	case m.Muted:
		return BoostingMuted
	default:
		return Boosting
	}
}

// RoleAction is what the synchronizer must do with the booster role.
type RoleAction int

const (
	RoleKeep RoleAction = iota
	RoleAdd
	RoleRemove
)

func (a RoleAction) String() string {
	switch a {
	case RoleAdd:
		return "add"
	case RoleRemove:
		return "remove"
	default:
		return "keep"
	}
}

// BoosterTransition decides the role change for a member moving from before to
// after. The role follows "boosting and not muted"; a role granted by hand to a
// member who never boosted is left alone unless that member is muted.
func BoosterTransition(before, after MemberStatus, hasRole bool) RoleAction {
	if hasRole {
		if after.Muted {
			return RoleRemove
		}
		if before.Boosting && !after.Boosting {
			return RoleRemove
		}
		return RoleKeep
	}
	if after.State() == Boosting {
		return RoleAdd
	}
	return RoleKeep
}
