package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opmodel/modpipe/internal/output"
	"github.com/opmodel/modpipe/internal/transitions"
)

// NewTransitionsCmd creates the transitions command.
func NewTransitionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transitions",
		Short: "List configured transitions",
		Long: `List the transitions declared in the config file, with their type and
the hooks they override, followed by the transition types available for
configuration.`,
		Args: cobra.NoArgs,
		RunE: runTransitions,
	}
}

func runTransitions(cmd *cobra.Command, _ []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	reg, err := cfg.Registry()
	if err != nil {
		printError("building transitions", err)
		return exitErrorFor(err, true)
	}

	w := cmd.OutOrStdout()
	if reg.Len() == 0 {
		fmt.Fprintln(w, "No transitions configured.")
	} else {
		rows := make([]output.TransitionRow, 0, reg.Len())
		for _, name := range reg.Names() {
			t, _ := reg.Lookup(name)
			typ, hooks := transitions.Describe(t)
			rows = append(rows, output.TransitionRow{Name: name, Type: typ, Hooks: strings.Join(hooks, ", ")})
		}
		fmt.Fprintln(w, output.RenderTransitionsTable(rows))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Available types: "+strings.Join(transitions.Factories(), ", "))
	return nil
}
