package cli

import (
	"context"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/nova/cli/cmd"
	"github.com/ardnew/nova/pkg"
)

// CLI is the top-level command-line interface for nova.
type CLI struct {
	Log    logConfig   `embed:"" group:"log"    prefix:"log-"`
	Pprof  pprofConfig `embed:"" group:"pprof"  prefix:"pprof-"`
	Limits cmd.Limits  `embed:"" group:"limits"`

	Source []string `help:"Nova source file(s) or '-' for stdin, evaluated before the program" name:"source" short:"s" type:"existingfile"`

	Version kong.VersionFlag `help:"Print version and exit" short:"V"`

	Run  cmd.Run  `cmd:"" default:"withargs" help:"Run a Nova program"`
	Eval cmd.Eval `cmd:"" help:"Run Nova source given as an argument"`
	Repl cmd.Repl `cmd:"" help:"Start an interactive session"`
	Fmt  cmd.Fmt  `cmd:"" help:"Format or convert a Nova program"`
	Init cmd.Init `cmd:"" help:"Initialize configuration file"`
}

// Run executes the nova CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	configFilePath := configPath(baseConfig)

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  cacheDir(),
		"version":            strings.TrimSpace(pkg.Version),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars()).
		CloneWith(cli.Limits.Vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags so that logging is configured before kong
	// reports anything, whatever the flag position.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group(), cli.Limits.Group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.Bind(&cli.Limits),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				FlagsLast:           false,
				NoAppSummary:        false,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configFilePath+".json"),
		kong.Configuration(resolveTOML, configFilePath+".toml"),
		kong.Configuration(resolve(ctx), configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Stuff additional context values for use by commands
	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithSourceFiles(ctx, cli.Source)

	// Finalize logger configuration with all parsed values including
	// TimeLayout and Caller which don't use TextUnmarshaler.
	defer cli.Log.start(ctx)()

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}
