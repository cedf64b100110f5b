package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/cleancharge/app/plugins"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List the registered providers, metrics sinks and publishers",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := plugins.Available()
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "providers:  %s\n", strings.Join(c.Providers, ", "))
		fmt.Fprintf(w, "sinks:      %s\n", strings.Join(c.Sinks, ", "))
		fmt.Fprintf(w, "publishers: %s\n", strings.Join(c.Publishers, ", "))
	},
}

func init() {
	rootCmd.AddCommand(pluginsCmd)
}
