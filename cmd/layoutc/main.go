// layoutc compiles component layouts into rendering VM programs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/chazu/layoutc/compiler"
	"github.com/chazu/layoutc/manifest"

	_ "github.com/tliron/commonlog/simple"
)

var (
	configDir string
	verbosity int
)

var log = commonlog.GetLogger("layoutc")

var rootCmd = &cobra.Command{
	Use:   "layoutc",
	Short: "Compile component layouts into rendering VM programs",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		commonlog.Configure(verbosity, nil)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "C", ".", "Directory to search upwards for layoutc.toml")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (repeatable)")
}

// project is the configuration a command compiles with. Without a manifest
// every static component lookup fails and default options apply.
type project struct {
	manifest *manifest.Manifest
	env      compiler.Environment
	opts     compiler.Options
}

func loadProject() (*project, error) {
	m, err := manifest.FindAndLoad(configDir)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	if m == nil {
		log.Infof("no %s found from %s, using defaults", manifest.FileName, configDir)
		return &project{env: compiler.NewMapEnvironment()}, nil
	}
	env, err := m.Environment()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", manifest.FileName, err)
	}
	log.Infof("using %s in %s (%d components)", manifest.FileName, m.Dir, len(m.Components))
	return &project{manifest: m, env: env, opts: m.Options()}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
