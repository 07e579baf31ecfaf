package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/aronvision/internal/hook"
)

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "List the pose hooks found in the hooks directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m := hook.NewManager(settings.HooksPath())
		err := m.Discover()

		hooks := m.List()
		if len(hooks) == 0 {
			fmt.Printf("No hooks found in %s.\n", m.Dir())
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "NAME\tVERSION\tTRIGGERS")
		fmt.Fprintln(w, "----\t-------\t--------")
		for _, h := range hooks {
			var triggers []string
			for _, t := range h.Manifest.Triggers {
				triggers = append(triggers, fmt.Sprintf("%s:%s->%s", t.Kind, t.Pose, t.Action))
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", h.Manifest.Name, h.Manifest.Version, strings.Join(triggers, ", "))
		}
		if ferr := w.Flush(); ferr != nil {
			return ferr
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(hooksCmd)
}
