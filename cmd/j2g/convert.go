package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/loykin/j2g/cmd/j2g/config"
	"github.com/loykin/j2g/internal/common"
	"github.com/loykin/j2g/internal/convert"
	"github.com/loykin/j2g/internal/store"
)

var convertCmd = &cobra.Command{
	Use:   "convert <jenkinsfile> <output>",
	Short: "Convert a Jenkinsfile and write the workflow to output",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	toStdout, _ := cmd.Flags().GetBool("stdout")
	if !toStdout && len(args) != 2 {
		return errors.New("expected <jenkinsfile> <output> (or --stdout)")
	}
	doc, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := resolveOptions(cmd, doc)
	if err != nil {
		return err
	}

	in := args[0]
	src, err := readSource(in, doc.MaxInputBytes())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := convert.Convert(ctx, src, opts)
	if err != nil {
		return err
	}
	logWarnings(in, res.Warnings)
	recordHistory(ctx, doc, in, src, opts, res)

	if toStdout {
		_, err := cmd.OutOrStdout().Write(res.YAML)
		return err
	}
	out := args[1]
	if err := writeAtomic(out, res.YAML); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "GitHub Actions workflow has been saved to %s\n", out)
	return nil
}

func loadConfig() (*config.ConfigDoc, error) {
	doc := &config.ConfigDoc{}
	if path := viper.GetString("config"); path != "" {
		if err := doc.Load(path); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	if err := doc.SetupLogging(); err != nil {
		return nil, err
	}
	return doc, nil
}

// resolveOptions layers the conversion settings: config file, then
// J2G_PROFILE, then command-line flags.
func resolveOptions(cmd *cobra.Command, doc *config.ConfigDoc) (convert.Options, error) {
	if p, _ := cmd.Flags().GetString("profile"); p != "" {
		doc.Convert.Profile = p
	} else if p := viper.GetString("profile"); p != "" {
		doc.Convert.Profile = p
	}
	opts, err := doc.ConvertOptions()
	if err != nil {
		return convert.Options{}, err
	}
	flag := func(name string) bool {
		v, _ := cmd.Flags().GetBool(name)
		return v
	}
	if flag("docker-broadcast") {
		opts.DockerBroadcast = true
	}
	if flag("strict") {
		opts.Strict = true
	}
	if flag("no-inject-tools") {
		opts.InjectTools = false
	}
	if flag("no-inject-secrets") {
		opts.InjectSecrets = false
	}
	if flag("no-parallel") {
		opts.ExpandParallel = false
	}
	return opts, nil
}

func readSource(path string, limit int64) (string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	b, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(b)) > limit {
		return "", fmt.Errorf("%s exceeds the %d byte input limit", path, limit)
	}
	return string(b), nil
}

// writeAtomic writes data next to path and renames it into place, so a
// failed write never leaves a partial workflow behind.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".j2g-*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	cleanup := func() { _ = os.Remove(name) }
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(name, path); err != nil {
		cleanup()
		return err
	}
	return nil
}

func logWarnings(file string, warnings []convert.Warning) {
	logger := common.GetLogger().WithFile(file)
	for _, w := range warnings {
		logger.Warn(w.Message, "code", w.Code, "stage", w.Stage)
	}
}

// recordHistory stores the conversion when a history store is configured
// explicitly. Failures only produce a warning.
func recordHistory(ctx context.Context, doc *config.ConfigDoc, name, src string, opts convert.Options, res *convert.Result) {
	if doc.Store.Type == "" {
		return
	}
	cfg := doc.StoreConfig()
	if cfg == nil {
		return
	}
	logger := common.GetLogger().WithComponent("history")
	st, err := store.Open(ctx, *cfg)
	if err != nil {
		logger.Warn("history store unavailable", "error", err)
		return
	}
	defer func() { _ = st.Close() }()
	if _, err := st.Record(ctx, store.Entry{
		SourceName: filepath.Base(name),
		Source:     src,
		Profile:    opts.Profile,
		YAML:       res.YAML,
		Warnings:   res.Warnings,
	}); err != nil {
		logger.Warn("failed to record conversion", "error", err)
	}
}
