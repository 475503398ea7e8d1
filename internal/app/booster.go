package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pscheid92/countbot/internal/domain"
	"golang.org/x/sync/singleflight"
)

const boosterListPreview = 20

// BoosterSync keeps the extra booster role equal to "boosting and not muted".
type BoosterSync struct {
	roles       domain.RoleManager
	members     domain.MemberDirectory
	roleID      string
	mutedRoleID string // empty: nobody counts as muted
	listGroup   singleflight.Group
}

func NewBoosterSync(roles domain.RoleManager, members domain.MemberDirectory, roleID, mutedRoleID string) *BoosterSync {
	return &BoosterSync{
		roles:       roles,
		members:     members,
		roleID:      roleID,
		mutedRoleID: mutedRoleID,
	}
}

func (b *BoosterSync) status(m domain.Member) domain.MemberStatus {
	return domain.MemberStatus{
		Boosting: m.Boosting,
		Muted:    b.mutedRoleID != "" && m.HasRole(b.mutedRoleID),
	}
}

// OnMemberUpdate applies the role change implied by a member update. before is
// nil when the previous member state is unknown.
func (b *BoosterSync) OnMemberUpdate(ctx context.Context, guildID string, before *domain.Member, after domain.Member) (domain.RoleAction, error) {
	if b.roleID == "" {
		return domain.RoleKeep, nil
	}

	afterStatus := b.status(after)
	beforeStatus := afterStatus
	if before != nil {
		beforeStatus = b.status(*before)
	}

	action := domain.BoosterTransition(beforeStatus, afterStatus, after.HasRole(b.roleID))
	switch action {
	case domain.RoleAdd:
		if err := b.roles.AddRole(ctx, guildID, after.UserID, b.roleID); err != nil {
			return action, fmt.Errorf("failed to add booster role: %w", err)
		}
		slog.InfoContext(ctx, "Added booster role", "member", after.DisplayName, "state", afterStatus.State().String())
	case domain.RoleRemove:
		if err := b.roles.RemoveRole(ctx, guildID, after.UserID, b.roleID); err != nil {
			return action, fmt.Errorf("failed to remove booster role: %w", err)
		}
		slog.InfoContext(ctx, "Removed booster role", "member", after.DisplayName, "state", afterStatus.State().String())
	}
	return action, nil
}

// BoosterList summarises the guild's current boosters.
type BoosterList struct {
	Total   int
	Preview []string // display names of the first boosters
}

func (b *BoosterSync) ListBoosters(ctx context.Context, guildID string) (BoosterList, error) {
	boosters, err := b.boosters(ctx, guildID)
	if err != nil {
		return BoosterList{}, err
	}

	list := BoosterList{Total: len(boosters)}
	for _, m := range boosters[:min(len(boosters), boosterListPreview)] {
		list.Preview = append(list.Preview, m.DisplayName)
	}
	return list, nil
}

// AssignMissing gives the booster role to every unmuted booster lacking it and
// returns how many members were updated. Individual failures are logged and skipped.
func (b *BoosterSync) AssignMissing(ctx context.Context, guildID string) (int, error) {
	boosters, err := b.boosters(ctx, guildID)
	if err != nil {
		return 0, err
	}

	assigned := 0
	for _, m := range boosters {
		if m.HasRole(b.roleID) || b.status(m).Muted {
			continue
		}
		if err := b.roles.AddRole(ctx, guildID, m.UserID, b.roleID); err != nil {
			slog.WarnContext(ctx, "Failed to assign booster role", "member", m.DisplayName, "error", err)
			continue
		}
		assigned++
	}

	slog.InfoContext(ctx, "Booster roles assigned", "assigned", assigned, "boosters", len(boosters))
	return assigned, nil
}

// boosters lists the guild's boosting members. Concurrent calls for the same
// guild share one member listing.
func (b *BoosterSync) boosters(ctx context.Context, guildID string) ([]domain.Member, error) {
	v, err, _ := b.listGroup.Do(guildID, func() (any, error) {
		members, err := b.members.ListMembers(ctx, guildID)
		if err != nil {
			return nil, fmt.Errorf("failed to list members: %w", err)
		}
		var boosters []domain.Member
		for _, m := range members {
			if m.Boosting {
				boosters = append(boosters, m)
			}
		}
		return boosters, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Member), nil
}
