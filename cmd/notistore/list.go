package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/notistore/internal/model"
	"github.com/nhle/notistore/internal/theme"
)

var (
	listLimit   int
	listUnread  bool
	listRead    bool
	listPackage string
	listJSON    bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored notifications, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listUnread && listRead {
			return fmt.Errorf("--unread and --read are mutually exclusive")
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		var recs []model.Record
		switch {
		case listPackage != "":
			recs, err = s.QueryByPackage(ctx, listPackage)
		case listUnread:
			recs, err = s.QueryByReadState(ctx, false)
		case listRead:
			recs, err = s.QueryByReadState(ctx, true)
		default:
			recs, err = s.QueryByRecency(ctx, listLimit)
		}
		if err != nil {
			return err
		}
		if listLimit > 0 && len(recs) > listLimit {
			recs = recs[:listLimit]
		}

		out := cmd.OutOrStdout()
		if listJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(recs)
		}

		if len(recs) == 0 {
			fmt.Fprintln(out, "No notifications.")
			return nil
		}
		for _, r := range recs {
			state := theme.UnreadStyle.Render("●")
			if r.IsRead {
				state = theme.ReadStyle.Render("○")
			}
			fmt.Fprintf(out, "%s %5d %s %s  %s: %s\n",
				state, r.ID,
				theme.MutedStyle.Render(r.Time().Format(time.DateTime)),
				theme.MutedStyle.Render(r.AppName),
				r.Title, r.Message,
			)
		}
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every stored notification",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		n, err := s.ClearAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d notifications.\n", n)
		return nil
	},
}

var markReadCmd = &cobra.Command{
	Use:   "read [id]",
	Short: "Mark a notification as read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id int64
		if _, err := fmt.Sscan(args[0], &id); err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		return s.MarkRead(cmd.Context(), id, true)
	},
}

func init() {
	rootCmd.AddCommand(listCmd, clearCmd, markReadCmd)
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 50, "maximum rows (0 for all)")
	listCmd.Flags().BoolVar(&listUnread, "unread", false, "only unread notifications")
	listCmd.Flags().BoolVar(&listRead, "read", false, "only read notifications")
	listCmd.Flags().StringVarP(&listPackage, "package", "p", "", "only notifications from this package")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print JSON")
}
