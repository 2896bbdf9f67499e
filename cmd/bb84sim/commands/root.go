package commands

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/alan-christopher/bb84sim/internal/store"
)

// globals are the persistent flags shared by every command.
type globals struct {
	db      string
	verbose bool
}

// openStore opens the run history named by --db, or returns nil if none was
// given.
func (g *globals) openStore() (store.Store, error) {
	if g.db == "" {
		return nil, nil
	}
	return store.NewSQLiteStore(g.db)
}

func (g *globals) logf(format string, args ...interface{}) {
	if g.verbose {
		log.Printf(format, args...)
	}
}

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:          "bb84sim",
		Short:        "Simulate BB84 quantum key distribution",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.db, "db", "", "SQLite file recording run history (disabled if empty)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log each protocol phase")

	root.AddCommand(runCmd(g), benchCmd(g), rngCmd(g), historyCmd(g), inspectCmd(g))
	return root
}
