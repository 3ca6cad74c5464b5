package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/notistore/internal/model"
	"github.com/nhle/notistore/internal/store"
	"github.com/nhle/notistore/internal/theme"
)

var (
	groupDescription string
	groupIcon        string
	groupColor       string
	groupMembers     []string
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Manage app groups",
}

var groupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		groups, err := s.GetGroups(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, g := range groups {
			fmt.Fprintf(out, "%s %-36s %-20s %3d apps  %s\n",
				theme.GroupSwatch(g.Color).Render(g.IconName),
				g.ID, g.Name, g.AppCount,
				theme.MutedStyle.Render(string(g.GroupType)),
			)
		}
		return nil
	},
}

var groupsCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a custom group",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		members := make([]model.AppRef, 0, len(groupMembers))
		for _, pkg := range groupMembers {
			members = append(members, parseAppRef(pkg))
		}

		g, err := s.CreateGroup(cmd.Context(), store.CreateGroupParams{
			Name:           strings.Join(args, " "),
			Description:    groupDescription,
			IconName:       groupIcon,
			ColorHex:       groupColor,
			GroupType:      model.GroupTypeCustom,
			InitialMembers: members,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created group %s (%s) with %d apps.\n", g.Name, g.ID, g.AppCount)
		return nil
	},
}

var groupsDeleteCmd = &cobra.Command{
	Use:   "delete [group-id]",
	Short: "Delete a custom group and its memberships",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		err = s.DeleteGroup(cmd.Context(), args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no group with id %s", args[0])
		}
		return err
	},
}

var groupsAddCmd = &cobra.Command{
	Use:   "add [group-id] [package[=name]]...",
	Short: "Add apps to a group",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		apps := make([]model.AppRef, 0, len(args)-1)
		for _, arg := range args[1:] {
			apps = append(apps, parseAppRef(arg))
		}
		return s.AddAppsToGroup(cmd.Context(), args[0], apps)
	},
}

var groupsRemoveCmd = &cobra.Command{
	Use:   "remove [group-id] [package]...",
	Short: "Remove apps from a group",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		return s.RemoveAppsFromGroup(cmd.Context(), args[0], args[1:])
	},
}

var groupsAppsCmd = &cobra.Command{
	Use:   "apps [group-id]",
	Short: "List the apps in a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		apps, err := s.GetAppsInGroup(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, m := range apps {
			fmt.Fprintf(out, "%-40s %s\n", m.PackageName, theme.MutedStyle.Render(m.AppName))
		}
		return nil
	},
}

var groupsHasCmd = &cobra.Command{
	Use:   "has [group-id] [package]",
	Short: "Report whether an app belongs to a group",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		ok, err := s.IsAppInGroup(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is in %s\n", args[1], args[0])
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is not in %s\n", args[1], args[0])
		}
		return nil
	},
}

// parseAppRef accepts "com.example" or "com.example=Example".
func parseAppRef(arg string) model.AppRef {
	pkg, name, _ := strings.Cut(arg, "=")
	return model.AppRef{PackageName: pkg, AppName: name}
}

func init() {
	rootCmd.AddCommand(groupsCmd)
	groupsCmd.AddCommand(groupsListCmd, groupsCreateCmd, groupsDeleteCmd,
		groupsAddCmd, groupsRemoveCmd, groupsAppsCmd, groupsHasCmd)

	groupsCreateCmd.Flags().StringVarP(&groupDescription, "description", "d", "", "group description")
	groupsCreateCmd.Flags().StringVar(&groupIcon, "icon", "", "icon name (defaults to initials)")
	groupsCreateCmd.Flags().StringVar(&groupColor, "color", "", "hex color (derived from the name if unset)")
	groupsCreateCmd.Flags().StringSliceVarP(&groupMembers, "app", "a", nil, "initial member, package[=name]")
}
