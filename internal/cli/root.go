package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/typescout/pkg/buildinfo"
)

// checkFlags holds the root command's flags. Only flags the user set
// explicitly override the loaded configuration.
type checkFlags struct {
	path        string
	install     bool
	errorMode   bool
	interactive bool
	useYarn     bool
	manager     string
	devDeps     bool
	noCache     bool
	noColor     bool
	concurrency int
	timeout     time.Duration
	registry    string
}

// RootCommand creates the root cobra command with all subcommands registered.
// Running it without a subcommand checks the project for missing type
// declarations.
func (c *CLI) RootCommand() *cobra.Command {
	var flags checkFlags

	root := &cobra.Command{
		Use:   appName + " [flags]",
		Short: "Find and install missing TypeScript type declarations",
		Long: `typescout reads package.json, works out which dependencies lack an
@types declaration package, confirms those packages exist on the npm
registry, and optionally installs them as development dependencies.`,
		Example: `  typescout                 # report missing declarations
  typescout --install       # install all of them with npm
  typescout -i -Y           # choose interactively, install with yarn
  typescout -e              # exit with the number of missing declarations`,
		Version:       buildinfo.Resolved(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(cmd, &flags)
		},
	}
	root.SetVersionTemplate(buildinfo.Template())

	f := root.Flags()
	f.StringVarP(&flags.path, "path", "p", "", "project directory containing package.json (default: current directory)")
	f.BoolVarP(&flags.install, "install", "a", false, "install every missing declaration without asking")
	f.BoolVarP(&flags.errorMode, "error", "e", false, "exit with the number of missing declarations")
	f.BoolVarP(&flags.interactive, "interactive", "i", false, "choose what to install interactively")
	f.BoolVarP(&flags.useYarn, "use-yarn", "Y", false, "install with yarn (same as --manager yarn)")
	f.StringVarP(&flags.manager, "manager", "m", "npm", "package manager: npm or yarn")
	f.BoolVarP(&flags.devDeps, "dev-dependencies", "D", false, "also check devDependencies")
	f.BoolVar(&flags.noCache, "no-cache", false, "disable the registry response cache")
	f.IntVar(&flags.concurrency, "concurrency", 8, "maximum parallel registry lookups")
	f.DurationVar(&flags.timeout, "timeout", time.Minute, "time limit for registry verification")
	f.StringVar(&flags.registry, "registry", "", "npm registry URL (default: https://registry.npmjs.org)")
	root.PersistentFlags().BoolVar(&flags.noColor, "no-color", os.Getenv("NO_COLOR") != "", "disable colored output")
	root.MarkFlagsMutuallyExclusive("use-yarn", "manager")

	_ = root.MarkFlagDirname("path")
	_ = root.RegisterFlagCompletionFunc("manager", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"npm", "yarn"}, cobra.ShellCompDirectiveNoFileComp
	})

	originalPreRun := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if flags.noColor {
			c.DisableColor()
		}
		if originalPreRun != nil {
			return originalPreRun(cmd, args)
		}
		return nil
	}

	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
