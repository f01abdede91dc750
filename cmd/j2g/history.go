package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/loykin/j2g/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List conversions recorded in the history store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := doc.StoreConfig()
		if cfg == nil {
			return errors.New("history store is disabled in config")
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		st, err := store.Open(ctx, *cfg)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		limit, _ := cmd.Flags().GetInt("limit")
		list, err := st.List(ctx, limit)
		if err != nil {
			return err
		}
		rows := make([]historyRow, 0, len(list))
		for _, c := range list {
			rows = append(rows, historyRow{ID: c.ID, Source: c.SourceName, Profile: c.Profile, Warnings: len(c.Warnings), CreatedAt: c.CreatedAt})
		}
		return printHistory(cmd.OutOrStdout(), rows)
	},
}

type historyRow struct {
	ID        string
	Source    string
	Profile   string
	Warnings  int
	CreatedAt time.Time
}

func printHistory(w io.Writer, rows []historyRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "no conversions recorded")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSOURCE\tPROFILE\tWARNINGS\tCREATED")
	for _, r := range rows {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", r.ID, r.Source, r.Profile, r.Warnings, r.CreatedAt.Local().Format(time.RFC3339))
	}
	return tw.Flush()
}
