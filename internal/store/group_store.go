package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/notistore/internal/model"
)

const groupColumns = `id, name, description, icon_name, color, group_type, app_count, created_at`

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateGroupParams reports the first failing field as ErrInvalidGroup.
func validateGroupParams(p CreateGroupParams) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidGroup)
	}
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("%w: %s failed %q", ErrInvalidGroup, e.Namespace(), e.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidGroup, err)
	}
	return nil
}

// seedBuiltinGroups inserts the built-in groups if they are missing.
func (s *SQLiteStore) seedBuiltinGroups(ctx context.Context) error {
	for _, g := range model.BuiltinGroups {
		_, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO notification_groups (
				id, name, description, icon_name, color, group_type, app_count, created_at
			) VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
			g.ID, g.Name, g.Description, g.IconName, g.Color, string(g.GroupType),
			time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("seeding group %s: %w", g.ID, err)
		}
	}
	return nil
}

// CreateGroup inserts a group and its initial members in one transaction.
func (s *SQLiteStore) CreateGroup(ctx context.Context, p CreateGroupParams) (*model.Group, error) {
	if err := validateGroupParams(p); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating group id: %w", err)
	}

	g := model.Group{
		ID:          id.String(),
		Name:        p.Name,
		Description: p.Description,
		IconName:    p.IconName,
		Color:       p.ColorHex,
		GroupType:   p.GroupType,
		CreatedAt:   time.Now().UTC(),
	}
	if g.IconName == "" {
		g.IconName = model.GenerateInitials(p.Name)
	}
	if g.Color == "" {
		g.Color = model.GenerateColorFromName(p.Name)
	}
	if g.GroupType == "" {
		g.GroupType = model.GroupTypeCustom
	}
	if model.IsBuiltinGroupID(g.ID) {
		return nil, fmt.Errorf("creating group %s: %w", g.ID, ErrReservedGroupID)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO notification_groups (
			id, name, description, icon_name, color, group_type, app_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		g.ID, g.Name, g.Description, g.IconName, g.Color, string(g.GroupType), g.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating group: %w", err)
	}

	if err := insertMembers(ctx, tx, g.ID, p.InitialMembers); err != nil {
		return nil, err
	}
	if g.AppCount, err = refreshAppCount(ctx, tx, g.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing group %s: %w", g.ID, err)
	}
	return &g, nil
}

// UpdateGroup updates a group's display fields.
func (s *SQLiteStore) UpdateGroup(ctx context.Context, g model.Group) error {
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("group name must not be empty")
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE notification_groups
		SET name = ?, description = ?, icon_name = ?, color = ?
		WHERE id = ?`,
		g.Name, g.Description, g.IconName, g.Color, g.ID,
	)
	if err != nil {
		return fmt.Errorf("updating group %s: %w", g.ID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("group %s: %w", g.ID, ErrNotFound)
	}
	return nil
}

// DeleteGroup removes a user-created group's memberships and then the
// group. Only the seeded built-in ids are protected; the group type does
// not matter.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	g, err := getGroup(ctx, tx, id)
	if err != nil {
		return err
	}
	if model.IsBuiltinGroupID(g.ID) {
		return fmt.Errorf("deleting group %s: %w", id, ErrBuiltinGroup)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM app_group_memberships WHERE group_id = ?", id); err != nil {
		return fmt.Errorf("deleting memberships of group %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM notification_groups WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting group %s: %w", id, err)
	}

	return tx.Commit()
}

// GetGroup retrieves a group by id.
func (s *SQLiteStore) GetGroup(ctx context.Context, id string) (*model.Group, error) {
	return getGroup(ctx, s.db, id)
}

// GetGroups returns built-in groups first, then custom groups by name.
func (s *SQLiteStore) GetGroups(ctx context.Context) ([]model.Group, error) {
	var groups []model.Group
	err := s.db.SelectContext(ctx, &groups, `
		SELECT `+groupColumns+` FROM notification_groups
		ORDER BY CASE group_type WHEN 'custom' THEN 1 ELSE 0 END, name`)
	if err != nil {
		return nil, fmt.Errorf("querying groups: %w", err)
	}
	return groups, nil
}

// AddAppToGroup adds one application to a group. Adding an existing
// member is a no-op.
func (s *SQLiteStore) AddAppToGroup(ctx context.Context, groupID string, app model.AppRef) error {
	return s.AddAppsToGroup(ctx, groupID, []model.AppRef{app})
}

// AddAppsToGroup adds several applications to a group.
func (s *SQLiteStore) AddAppsToGroup(ctx context.Context, groupID string, apps []model.AppRef) error {
	return s.mutateMembers(ctx, groupID, func(tx *sqlx.Tx) error {
		return insertMembers(ctx, tx, groupID, apps)
	})
}

// RemoveAppFromGroup removes one application from a group.
func (s *SQLiteStore) RemoveAppFromGroup(ctx context.Context, groupID, packageName string) error {
	return s.RemoveAppsFromGroup(ctx, groupID, []string{packageName})
}

// RemoveAppsFromGroup removes several applications from a group.
func (s *SQLiteStore) RemoveAppsFromGroup(ctx context.Context, groupID string, packageNames []string) error {
	return s.mutateMembers(ctx, groupID, func(tx *sqlx.Tx) error {
		for _, pkg := range packageNames {
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM app_group_memberships WHERE group_id = ? AND package_name = ?",
				groupID, pkg); err != nil {
				return fmt.Errorf("removing %s from group %s: %w", pkg, groupID, err)
			}
		}
		return nil
	})
}

// GetAppsInGroup lists a group's members ordered by app name. An unknown
// group has no members.
func (s *SQLiteStore) GetAppsInGroup(ctx context.Context, groupID string) ([]model.Membership, error) {
	var members []model.Membership
	err := s.db.SelectContext(ctx, &members, `
		SELECT package_name, group_id, app_name, added_at
		FROM app_group_memberships
		WHERE group_id = ?
		ORDER BY app_name, package_name`, groupID)
	if err != nil {
		return nil, fmt.Errorf("querying apps in group %s: %w", groupID, err)
	}
	return members, nil
}

// GetGroupsForApp lists the groups an application belongs to.
func (s *SQLiteStore) GetGroupsForApp(ctx context.Context, packageName string) ([]model.Group, error) {
	var groups []model.Group
	err := s.db.SelectContext(ctx, &groups, `
		SELECT g.id, g.name, g.description, g.icon_name, g.color,
			g.group_type, g.app_count, g.created_at
		FROM notification_groups g
		INNER JOIN app_group_memberships m ON g.id = m.group_id
		WHERE m.package_name = ?
		ORDER BY g.name`, packageName)
	if err != nil {
		return nil, fmt.Errorf("querying groups for %s: %w", packageName, err)
	}
	return groups, nil
}

// IsAppInGroup reports whether packageName is a member of groupID.
func (s *SQLiteStore) IsAppInGroup(ctx context.Context, groupID, packageName string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM app_group_memberships
		WHERE group_id = ? AND package_name = ?`, groupID, packageName)
	if err != nil {
		return false, fmt.Errorf("checking membership of %s in %s: %w", packageName, groupID, err)
	}
	return n > 0, nil
}

// mutateMembers runs fn inside a transaction after verifying the group
// exists, then recomputes the group's member count.
func (s *SQLiteStore) mutateMembers(ctx context.Context, groupID string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := getGroup(ctx, tx, groupID); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	if _, err := refreshAppCount(ctx, tx, groupID); err != nil {
		return err
	}
	return tx.Commit()
}

func insertMembers(ctx context.Context, tx *sqlx.Tx, groupID string, apps []model.AppRef) error {
	now := time.Now().UTC()
	for _, app := range apps {
		if err := validate.Struct(app); err != nil {
			return fmt.Errorf("%w: adding app to group %s: package name must not be empty", ErrInvalidGroup, groupID)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO app_group_memberships (package_name, group_id, app_name, added_at)
			VALUES (?, ?, ?, ?)`,
			app.PackageName, groupID, app.AppName, now); err != nil {
			return fmt.Errorf("adding %s to group %s: %w", app.PackageName, groupID, err)
		}
	}
	return nil
}

// refreshAppCount re-queries the member count and stores it on the group.
func refreshAppCount(ctx context.Context, tx *sqlx.Tx, groupID string) (int, error) {
	var n int
	if err := tx.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM app_group_memberships WHERE group_id = ?", groupID); err != nil {
		return 0, fmt.Errorf("counting members of group %s: %w", groupID, err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE notification_groups SET app_count = ? WHERE id = ?", n, groupID); err != nil {
		return 0, fmt.Errorf("updating member count of group %s: %w", groupID, err)
	}
	return n, nil
}

func getGroup(ctx context.Context, q sqlx.QueryerContext, id string) (*model.Group, error) {
	var g model.Group
	err := sqlx.GetContext(ctx, q, &g,
		"SELECT "+groupColumns+" FROM notification_groups WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting group %s: %w", id, err)
	}
	return &g, nil
}
