package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/loykin/j2g/cmd/j2g/config"
	"github.com/loykin/j2g/internal/client"
	"github.com/loykin/j2g/internal/common"
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Use a running j2g server",
}

var remoteConvertCmd = &cobra.Command{
	Use:   "convert <jenkinsfile> <output>",
	Short: "Convert a Jenkinsfile on the server and write the workflow to output",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		toStdout, _ := cmd.Flags().GetBool("stdout")
		if !toStdout && len(args) != 2 {
			return errors.New("expected <jenkinsfile> <output> (or --stdout)")
		}
		doc, err := loadConfig()
		if err != nil {
			return err
		}
		c, err := newRemoteClient(cmd, doc)
		if err != nil {
			return err
		}
		src, err := readSource(args[0], doc.MaxInputBytes())
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		res, err := c.Convert(ctx, filepath.Base(args[0]), src, remoteOptions(cmd))
		if err != nil {
			return err
		}
		if res.Warnings > 0 {
			common.GetLogger().WithFile(args[0]).Warn("server reported conversion warnings", "count", res.Warnings)
		}
		if toStdout {
			_, err := cmd.OutOrStdout().Write(res.YAML)
			return err
		}
		if err := writeAtomic(args[1], res.YAML); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "GitHub Actions workflow has been saved to %s\n", args[1])
		return nil
	},
}

var remoteHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List conversions recorded by the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadConfig()
		if err != nil {
			return err
		}
		c, err := newRemoteClient(cmd, doc)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		limit, _ := cmd.Flags().GetInt("limit")
		list, err := c.History(ctx, limit)
		if err != nil {
			return err
		}
		rows := make([]historyRow, 0, len(list))
		for _, e := range list {
			rows = append(rows, historyRow{ID: e.ID, Source: e.SourceName, Profile: e.Profile, Warnings: e.Warnings, CreatedAt: e.CreatedAt})
		}
		return printHistory(cmd.OutOrStdout(), rows)
	},
}

func newRemoteClient(cmd *cobra.Command, doc *config.ConfigDoc) (*client.Client, error) {
	cfg, err := doc.ClientConfig()
	if err != nil {
		return nil, err
	}
	if s, _ := cmd.Flags().GetString("server"); s != "" {
		cfg.Server = s
	}
	if t, _ := cmd.Flags().GetString("token"); t != "" {
		cfg.Token = t
	}
	return client.New(cfg)
}

// remoteOptions forwards only the flags the user set; the server applies
// its own defaults for the rest.
func remoteOptions(cmd *cobra.Command) map[string]string {
	opts := map[string]string{}
	f := cmd.Flags()
	if p, _ := f.GetString("profile"); p != "" {
		opts["profile"] = p
	}
	set := func(flag, key string, invert bool) {
		if !f.Changed(flag) {
			return
		}
		v, _ := f.GetBool(flag)
		opts[key] = strconv.FormatBool(v != invert)
	}
	set("docker-broadcast", "docker_broadcast", false)
	set("strict", "strict", false)
	set("no-inject-tools", "inject_tools", true)
	set("no-inject-secrets", "inject_secrets", true)
	set("no-parallel", "expand_parallel", true)
	return opts
}
