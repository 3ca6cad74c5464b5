package store

import (
	"context"
	"errors"

	"github.com/nhle/notistore/internal/model"
)

var (
	// ErrNotFound is returned by writes that target a missing record or group.
	ErrNotFound = errors.New("not found")

	// ErrBuiltinGroup is returned when deleting a built-in group.
	ErrBuiltinGroup = errors.New("built-in groups cannot be deleted")

	// ErrReservedGroupID is returned when a custom group would take a
	// built-in group's id.
	ErrReservedGroupID = errors.New("group id is reserved")

	// ErrInvalidGroup wraps field validation failures on group input.
	ErrInvalidGroup = errors.New("invalid group")
)

// RecordQuerier is the read side of the record store.
type RecordQuerier interface {
	// QueryByRecency returns records newest first. limit <= 0 means no limit.
	QueryByRecency(ctx context.Context, limit int) ([]model.Record, error)
	QueryByReadState(ctx context.Context, isRead bool) ([]model.Record, error)
	QueryByPackage(ctx context.Context, packageName string) ([]model.Record, error)
	Get(ctx context.Context, id int64) (*model.Record, error)
	Count(ctx context.Context) (int64, error)
}

// RecordStore persists captured notifications.
type RecordStore interface {
	RecordQuerier

	Insert(ctx context.Context, rec model.Record) (int64, error)
	InsertBatch(ctx context.Context, recs []model.Record) ([]int64, error)
	DeleteOlderThan(ctx context.Context, cutoffMs int64) (int64, error)
	ClearAll(ctx context.Context) (int64, error)

	MarkRead(ctx context.Context, id int64, read bool) error
	SetNotes(ctx context.Context, id int64, tag, notes string) error
	Delete(ctx context.Context, id int64) error
}

// CreateGroupParams describes a new custom group. Empty IconName and
// ColorHex are derived from Name.
type CreateGroupParams struct {
	Name           string          `validate:"required,max=64"`
	Description    string          `validate:"max=256"`
	IconName       string          `validate:"max=64"`
	ColorHex       string          `validate:"omitempty,hexcolor"`
	GroupType      model.GroupType `validate:"omitempty,oneof=custom unread read muted important work social"`
	InitialMembers []model.AppRef  `validate:"dive"`
}

// GroupStore manages groups and their application memberships.
type GroupStore interface {
	CreateGroup(ctx context.Context, p CreateGroupParams) (*model.Group, error)
	UpdateGroup(ctx context.Context, g model.Group) error
	DeleteGroup(ctx context.Context, id string) error
	GetGroup(ctx context.Context, id string) (*model.Group, error)
	GetGroups(ctx context.Context) ([]model.Group, error)

	AddAppToGroup(ctx context.Context, groupID string, app model.AppRef) error
	AddAppsToGroup(ctx context.Context, groupID string, apps []model.AppRef) error
	RemoveAppFromGroup(ctx context.Context, groupID, packageName string) error
	RemoveAppsFromGroup(ctx context.Context, groupID string, packageNames []string) error

	GetAppsInGroup(ctx context.Context, groupID string) ([]model.Membership, error)
	GetGroupsForApp(ctx context.Context, packageName string) ([]model.Group, error)
	IsAppInGroup(ctx context.Context, groupID, packageName string) (bool, error)
}

// SettingsStore is the durable key-value settings table.
type SettingsStore interface {
	RetentionPolicy(ctx context.Context) (model.RetentionPolicy, error)
	SetRetentionPolicy(ctx context.Context, p model.RetentionPolicy) error
	LastCleanup(ctx context.Context) (int64, error)
	SetLastCleanup(ctx context.Context, ms int64) error
}

// Store is everything the SQLite implementation provides.
type Store interface {
	RecordStore
	GroupStore
	SettingsStore
}
