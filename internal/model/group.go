package model

import (
	"hash/fnv"
	"strings"
	"time"
	"unicode"
)

// GroupType classifies a group as user-defined or one of the built-ins.
type GroupType string

const (
	GroupTypeCustom    GroupType = "custom"
	GroupTypeUnread    GroupType = "unread"
	GroupTypeRead      GroupType = "read"
	GroupTypeMuted     GroupType = "muted"
	GroupTypeImportant GroupType = "important"
	GroupTypeWork      GroupType = "work"
	GroupTypeSocial    GroupType = "social"
)

// Group is a named collection of applications used for filtering.
type Group struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	IconName    string    `json:"icon_name" db:"icon_name"`
	Color       string    `json:"color" db:"color"`
	GroupType   GroupType `json:"group_type" db:"group_type"`

	// AppCount is the number of member applications. It is recomputed
	// by the store whenever membership changes.
	AppCount  int       `json:"app_count" db:"app_count"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IsCustom reports whether the group has the custom type.
func (g Group) IsCustom() bool {
	return g.GroupType == GroupTypeCustom
}

// Membership associates an application with a group.
type Membership struct {
	PackageName string    `json:"package_name" db:"package_name"`
	GroupID     string    `json:"group_id" db:"group_id"`
	AppName     string    `json:"app_name" db:"app_name"`
	AddedAt     time.Time `json:"added_at" db:"added_at"`
}

// AppRef names an application when adding it to a group.
type AppRef struct {
	PackageName string `validate:"required"`
	AppName     string
}

// BuiltinGroups are seeded on first run. Their ids are reserved.
var BuiltinGroups = []Group{
	{ID: "unread", Name: "Unread", Description: "Notifications you have not opened", IconName: "mark_email_unread", Color: "#2196F3", GroupType: GroupTypeUnread},
	{ID: "read", Name: "Read", Description: "Notifications you have opened", IconName: "mark_email_read", Color: "#4CAF50", GroupType: GroupTypeRead},
	{ID: "muted", Name: "Muted", Description: "Apps whose notifications are hidden", IconName: "notifications_off", Color: "#9E9E9E", GroupType: GroupTypeMuted},
	{ID: "important", Name: "Important", Description: "Apps you never want to miss", IconName: "priority_high", Color: "#F44336", GroupType: GroupTypeImportant},
	{ID: "work", Name: "Work", Description: "Work related apps", IconName: "work", Color: "#FF9800", GroupType: GroupTypeWork},
	{ID: "social", Name: "Social", Description: "Messaging and social apps", IconName: "people", Color: "#9C27B0", GroupType: GroupTypeSocial},
}

// IsBuiltinGroupID reports whether id belongs to a built-in group.
func IsBuiltinGroupID(id string) bool {
	for _, g := range BuiltinGroups {
		if g.ID == id {
			return true
		}
	}
	return false
}

// GroupPalette is the fixed set of colors derived group colors come from.
var GroupPalette = []string{
	"#F44336", "#E91E63", "#9C27B0", "#673AB7", "#3F51B5",
	"#2196F3", "#009688", "#4CAF50", "#FF9800", "#795548",
}

// GenerateInitials derives a short glyph from a group name. Two or more
// words yield the uppercased first letters of the first two words; a
// single word yields its first two characters; a blank name yields "?".
func GenerateInitials(name string) string {
	words := strings.FieldsFunc(name, unicode.IsSpace)
	switch len(words) {
	case 0:
		return "?"
	case 1:
		r := []rune(words[0])
		if len(r) > 2 {
			r = r[:2]
		}
		return string(r)
	default:
		first := []rune(words[0])[0]
		second := []rune(words[1])[0]
		return strings.ToUpper(string([]rune{first, second}))
	}
}

// GenerateColorFromName maps name onto GroupPalette. The same name always
// yields the same color.
func GenerateColorFromName(name string) string {
	h := fnv.New32a()
	h.Write([]byte(name))
	return GroupPalette[h.Sum32()%uint32(len(GroupPalette))]
}
