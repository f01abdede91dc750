package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "j2g <jenkinsfile> <output>",
	Short: "Convert a declarative Jenkinsfile into a GitHub Actions workflow",
	Long: `j2g reads a declarative Jenkinsfile and writes an equivalent GitHub Actions
workflow. Run without a subcommand it behaves like "j2g convert".`,
	Args:          cobra.RangeArgs(1, 2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runConvert,
}

func init() {
	v := viper.GetViper()
	v.SetDefault("config", "")
	v.SetDefault("profile", "")
	v.SetDefault("limit", 0)

	// Environment variables support: J2G_CONFIG, J2G_PROFILE, ...
	v.SetEnvPrefix("J2G")
	v.AutomaticEnv()

	rootCmd.PersistentFlags().String("config", v.GetString("config"), "path to a config yaml")
	_ = v.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	addConvertFlags(rootCmd)
	addConvertFlags(convertCmd)
	addConvertFlags(checkCmd)
	addConvertFlags(remoteConvertCmd)

	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	historyCmd.Flags().Int("limit", v.GetInt("limit"), "number of conversions to list (0 = default)")
	remoteHistoryCmd.Flags().Int("limit", v.GetInt("limit"), "number of conversions to list (0 = default)")
	remoteCmd.PersistentFlags().String("server", "", "j2g server URL (overrides remote.server)")
	remoteCmd.PersistentFlags().String("token", "", "bearer token (overrides remote.token)")
	tokenCmd.Flags().String("subject", "j2g-cli", "token subject")
	tokenCmd.Flags().Duration("ttl", 0, "token lifetime (0 = server.auth.ttl_seconds)")

	remoteCmd.AddCommand(remoteConvertCmd, remoteHistoryCmd)
	rootCmd.AddCommand(convertCmd, checkCmd, serveCmd, remoteCmd, historyCmd, tokenCmd)
}

// addConvertFlags registers the conversion flags on cmd. Flags are read from
// the command itself so the same names can live on several commands.
func addConvertFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("profile", "", "conversion profile: unified, basic or enhanced")
	f.Bool("docker-broadcast", false, "add detected docker commands to every job")
	f.Bool("strict", false, "fail when two stages map to the same job id")
	f.Bool("no-inject-tools", false, "do not add setup actions for tools")
	f.Bool("no-inject-secrets", false, "do not add secret echo steps")
	f.Bool("no-parallel", false, "do not expand parallel stages into jobs")
	f.Bool("stdout", false, "write the workflow to stdout instead of a file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		exitHandler.LogFatalError(err, "command execution failed")
	}
}
