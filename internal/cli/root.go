// Package cli builds weave's command-line interface: a Cobra root command
// that owns process-level concerns (flag parsing, signal handling, exit
// codes) while delegating the route phrase itself to the hand-written
// recursive-descent parser in route. Cobra is a fit for the surrounding
// flag surface, not for the clause grammar.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arkd0ng/weave/httpproxy"
	"github.com/arkd0ng/weave/internal/version"
	"github.com/arkd0ng/weave/listenmgr"
	"github.com/arkd0ng/weave/route"
	"github.com/arkd0ng/weave/routedump"
	"github.com/arkd0ng/weave/routetable"
	"github.com/arkd0ng/weave/tcpproxy"
	"github.com/arkd0ng/weave/weaveerr"
	"github.com/arkd0ng/weave/weavelog"
)

// NewRootCommand builds weave's root command: `weave SRC to DST [and SRC to
// DST]*`. There are no subcommands — the whole argument list after any
// flags is the route phrase.
func NewRootCommand() *cobra.Command {
	var dumpRoutes bool
	var showVersion bool

	cmd := &cobra.Command{
		Use:   "weave SRC to DST [and SRC to DST]*",
		Short: "A small command-line router/reverse-proxy",
		Example: "  weave 8080 to ./client/files and 8080/api to 9090\n" +
			"  weave '=8080/favicon.ico' to ./favicon.ico and 8080 to 9090\n" +
			"  weave tcp://localhost:2222 to 1.2.3.4:22",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Println(version.Get())
				return nil
			}
			if len(args) == 0 {
				return cmd.Help()
			}
			return run(args, dumpRoutes)
		},
	}
	cmd.Flags().BoolVar(&dumpRoutes, "dump-routes", false, "print the parsed, sorted route table as YAML and exit")
	cmd.Flags().BoolVarP(&showVersion, "version", "v", false, "print the weave version and exit")
	return cmd
}

func run(args []string, dumpRoutes bool) error {
	routes, err := route.Parse(args)
	if err != nil {
		return err
	}

	table, err := routetable.Build(routes)
	if err != nil {
		return err
	}

	if dumpRoutes {
		out, err := routedump.Render(table)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}

	logger := weavelog.Default()
	defer logger.Close()

	pool := httpproxy.NewPool()
	httpFactory, closeIdle := httpproxy.NewFactory(table, pool, logger)
	defer closeIdle()
	defer pool.Close()

	tcpFactory := tcpproxy.NewFactory(table, logger)

	mgr := listenmgr.New(table, httpFactory, tcpFactory, 0, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return mgr.Run(ctx)
}

// ExitCode maps a cli error to the process exit code: 1 for a malformed
// route phrase, 2 for a listener bind failure, 0 for a nil error (normal
// shutdown).
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	kind, ok := weaveerr.KindOf(err)
	if !ok {
		return 1
	}
	switch kind {
	case weaveerr.KindBind:
		return 2
	default:
		return 1
	}
}
