package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/loykin/j2g/internal/common"
	"github.com/loykin/j2g/internal/server"
	"github.com/loykin/j2g/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the conversion HTTP service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadConfig()
		if err != nil {
			return err
		}
		cfg, err := doc.ServerConfig()
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var history server.History
		if sc := doc.StoreConfig(); sc != nil {
			st, err := store.Open(ctx, *sc)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()
			history = st
		}

		gin.SetMode(gin.ReleaseMode)
		common.GetLogger().WithComponent("serve").Info("starting server",
			"auth", cfg.Auth.Enabled(), "history", history != nil, "profile", cfg.Options.Profile)
		return server.New(cfg, history).Run(ctx)
	},
}
