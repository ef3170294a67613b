package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/picogrid/mu-attack/pkg/attack"
	"github.com/picogrid/mu-attack/pkg/experiment"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available tasks, attackers and loggers",
	Long:  `List every selectable task, attacker and logger and whether it is available in this build`,
	RunE:  listVariants,
}

func listVariants(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KIND\tNAME\tSTATUS")
	_, _ = fmt.Fprintln(w, "----\t----\t------")

	writeKind(w, attack.Tasks.Kind(), experiment.TaskNames, attack.Tasks.Has)
	writeKind(w, attack.Attackers.Kind(), experiment.AttackerNames, attack.Attackers.Has)
	writeKind(w, attack.Loggers.Kind(), experiment.LoggerNames, attack.Loggers.Has)

	return w.Flush()
}

func writeKind(w *tabwriter.Writer, kind string, names []string, has func(string) bool) {
	for _, name := range names {
		status := "available"
		if !has(name) {
			status = "unavailable (needs model gradients)"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", kind, name, status)
	}
}
