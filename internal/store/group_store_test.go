package store_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/notistore/internal/model"
	"github.com/nhle/notistore/internal/store"
	"github.com/nhle/notistore/tests/testutil"
)

func TestBuiltinGroupsAreSeeded(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	for _, id := range []string{"unread", "read", "muted"} {
		g, err := s.GetGroup(ctx, id)
		require.NoError(t, err)
		assert.False(t, g.IsCustom())
	}
}

func TestCreateGroupDerivesIconAndColor(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	g, err := s.CreateGroup(ctx, store.CreateGroupParams{Name: "Work Apps"})
	require.NoError(t, err)

	assert.NotEmpty(t, g.ID)
	assert.False(t, model.IsBuiltinGroupID(g.ID))
	assert.Equal(t, "WA", g.IconName)
	assert.Equal(t, model.GenerateColorFromName("Work Apps"), g.Color)
	assert.Equal(t, model.GroupTypeCustom, g.GroupType)
	assert.Zero(t, g.AppCount)

	stored, err := s.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.Name, stored.Name)
	assert.Equal(t, g.IconName, stored.IconName)
}

func TestCreateGroupKeepsExplicitIconAndColor(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	g, err := s.CreateGroup(ctx, store.CreateGroupParams{
		Name:     "Games",
		IconName: "sports_esports",
		ColorHex: "#000000",
	})
	require.NoError(t, err)
	assert.Equal(t, "sports_esports", g.IconName)
	assert.Equal(t, "#000000", g.Color)
}

func TestCreateGroupRejectsBlankName(t *testing.T) {
	s := testutil.NewTestStore(t)
	_, err := s.CreateGroup(context.Background(), store.CreateGroupParams{Name: "  "})
	assert.ErrorIs(t, err, store.ErrInvalidGroup)
}

func TestCreateGroupValidatesFields(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	for name, p := range map[string]store.CreateGroupParams{
		"bad color":     {Name: "A", ColorHex: "red"},
		"bad type":      {Name: "A", GroupType: "favourites"},
		"blank member":  {Name: "A", InitialMembers: []model.AppRef{{AppName: "nameless"}}},
		"name too long": {Name: strings.Repeat("x", 65)},
	} {
		_, err := s.CreateGroup(ctx, p)
		assert.ErrorIs(t, err, store.ErrInvalidGroup, name)
	}

	groups, err := s.GetGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, len(model.BuiltinGroups))
}

func TestCreateGroupWithInitialMembers(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	g, err := s.CreateGroup(ctx, store.CreateGroupParams{
		Name: "Chat",
		InitialMembers: []model.AppRef{
			{PackageName: "com.whatsapp", AppName: "WhatsApp"},
			{PackageName: "org.telegram", AppName: "Telegram"},
			{PackageName: "com.whatsapp", AppName: "WhatsApp"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, g.AppCount)

	apps, err := s.GetAppsInGroup(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, "Telegram", apps[0].AppName)
	assert.Equal(t, "WhatsApp", apps[1].AppName)
}

func TestMembershipMutationsRecomputeCount(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	g, err := s.CreateGroup(ctx, store.CreateGroupParams{Name: "Social"})
	require.NoError(t, err)

	require.NoError(t, s.AddAppToGroup(ctx, g.ID, model.AppRef{PackageName: "com.a", AppName: "A"}))
	require.NoError(t, s.AddAppsToGroup(ctx, g.ID, []model.AppRef{
		{PackageName: "com.b", AppName: "B"},
		{PackageName: "com.c", AppName: "C"},
		{PackageName: "com.a", AppName: "A"},
	}))

	stored, err := s.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.AppCount)

	require.NoError(t, s.RemoveAppFromGroup(ctx, g.ID, "com.a"))
	require.NoError(t, s.RemoveAppsFromGroup(ctx, g.ID, []string{"com.b", "com.missing"}))

	stored, err = s.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.AppCount)

	in, err := s.IsAppInGroup(ctx, g.ID, "com.c")
	require.NoError(t, err)
	assert.True(t, in)

	in, err = s.IsAppInGroup(ctx, g.ID, "com.a")
	require.NoError(t, err)
	assert.False(t, in)
}

func TestGetGroupsForApp(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	a, err := s.CreateGroup(ctx, store.CreateGroupParams{Name: "Alpha"})
	require.NoError(t, err)
	b, err := s.CreateGroup(ctx, store.CreateGroupParams{Name: "Beta"})
	require.NoError(t, err)

	app := model.AppRef{PackageName: "com.x", AppName: "X"}
	require.NoError(t, s.AddAppToGroup(ctx, a.ID, app))
	require.NoError(t, s.AddAppToGroup(ctx, b.ID, app))
	require.NoError(t, s.AddAppToGroup(ctx, "muted", app))

	groups, err := s.GetGroupsForApp(ctx, "com.x")
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, "Alpha", groups[0].Name)

	none, err := s.GetGroupsForApp(ctx, "com.unknown")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteGroupCascadesMemberships(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	g, err := s.CreateGroup(ctx, store.CreateGroupParams{
		Name:           "Temp",
		InitialMembers: []model.AppRef{{PackageName: "com.a"}, {PackageName: "com.b"}},
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteGroup(ctx, g.ID))

	apps, err := s.GetAppsInGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Empty(t, apps)

	_, err = s.GetGroup(ctx, g.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	groups, err := s.GetGroupsForApp(ctx, "com.a")
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestGroupWritesOnUnknownIDReturnNotFound(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	assert.ErrorIs(t, s.DeleteGroup(ctx, "nope"), store.ErrNotFound)
	assert.ErrorIs(t, s.AddAppToGroup(ctx, "nope", model.AppRef{PackageName: "com.a"}), store.ErrNotFound)
	assert.ErrorIs(t, s.RemoveAppFromGroup(ctx, "nope", "com.a"), store.ErrNotFound)
	assert.ErrorIs(t, s.UpdateGroup(ctx, model.Group{ID: "nope", Name: "x"}), store.ErrNotFound)

	apps, err := s.GetAppsInGroup(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, apps)

	in, err := s.IsAppInGroup(ctx, "nope", "com.a")
	require.NoError(t, err)
	assert.False(t, in)
}

func TestBuiltinGroupsCannotBeDeleted(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	assert.ErrorIs(t, s.DeleteGroup(ctx, "unread"), store.ErrBuiltinGroup)

	_, err := s.GetGroup(ctx, "unread")
	assert.NoError(t, err)
}

func TestUpdateGroup(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	g, err := s.CreateGroup(ctx, store.CreateGroupParams{Name: "Old"})
	require.NoError(t, err)

	g.Name = "New"
	g.Color = "#123456"
	require.NoError(t, s.UpdateGroup(ctx, *g))

	stored, err := s.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", stored.Name)
	assert.Equal(t, "#123456", stored.Color)
}

func TestGetGroupsListsBuiltinsFirst(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	_, err := s.CreateGroup(ctx, store.CreateGroupParams{Name: "Aaa"})
	require.NoError(t, err)

	groups, err := s.GetGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, len(model.BuiltinGroups)+1)
	assert.Equal(t, "Aaa", groups[len(groups)-1].Name)
}

func TestUserGroupWithBuiltinTypeCanBeDeleted(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	g, err := s.CreateGroup(ctx, store.CreateGroupParams{Name: "My Work", GroupType: model.GroupTypeWork})
	require.NoError(t, err)
	assert.Equal(t, model.GroupTypeWork, g.GroupType)

	require.NoError(t, s.DeleteGroup(ctx, g.ID))
	_, err = s.GetGroup(ctx, g.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, s.DeleteGroup(ctx, "work"), store.ErrBuiltinGroup)
}

func TestAddAppsRejectsBlankPackage(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	g, err := s.CreateGroup(ctx, store.CreateGroupParams{Name: "Chat"})
	require.NoError(t, err)

	err = s.AddAppsToGroup(ctx, g.ID, []model.AppRef{{PackageName: "com.a"}, {AppName: "nameless"}})
	assert.ErrorIs(t, err, store.ErrInvalidGroup)

	apps, err := s.GetAppsInGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Empty(t, apps, "a rejected batch writes nothing")
}

func TestIsAppInGroup(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	g, err := s.CreateGroup(ctx, store.CreateGroupParams{
		Name:           "Chat",
		InitialMembers: []model.AppRef{{PackageName: "com.whatsapp"}},
	})
	require.NoError(t, err)

	in, err := s.IsAppInGroup(ctx, g.ID, "com.whatsapp")
	require.NoError(t, err)
	assert.True(t, in)

	in, err = s.IsAppInGroup(ctx, g.ID, "org.telegram")
	require.NoError(t, err)
	assert.False(t, in)

	require.NoError(t, s.RemoveAppFromGroup(ctx, g.ID, "com.whatsapp"))
	in, err = s.IsAppInGroup(ctx, g.ID, "com.whatsapp")
	require.NoError(t, err)
	assert.False(t, in)

	in, err = s.IsAppInGroup(ctx, "nope", "com.whatsapp")
	require.NoError(t, err)
	assert.False(t, in)
}
