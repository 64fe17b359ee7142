package cmd

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/MD-Studio/studiobuild/internal/errors"
	"github.com/MD-Studio/studiobuild/internal/orchestrator"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List registered tasks",
	Long:  `List every registered task. Composite tasks show the sequence they run.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(defaultAppOptions())
		if err != nil {
			return err
		}
		defer a.Close()

		printTasks(cmd.OutOrStdout(), a.orch.Registry())
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that every pipeline only names registered tasks",
	Long: `Check every composite task and watch rule for references to tasks that
are not registered, without running anything.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(defaultAppOptions())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.check(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d tasks registered, all references resolve\n", a.orch.Registry().Count())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(checkCmd)
}

// printTasks writes one line per task, composites followed by their sequence
func printTasks(w io.Writer, registry *orchestrator.Registry) {
	names := registry.Names()
	width := 0
	for _, name := range names {
		width = max(width, lipgloss.Width(name))
	}
	nameStyle := lipgloss.NewStyle().Width(width + 2)

	for _, name := range names {
		if seq, ok := registry.Composite(name); ok {
			fmt.Fprintf(w, "%s%s\n", nameStyle.Render(name), seq.String())
			continue
		}
		fmt.Fprintln(w, name)
	}
}

// check validates composite sequences and watch rules against the registry
func (a *app) check() error {
	registry := a.orch.Registry()

	var errs []error
	for _, name := range registry.Names() {
		seq, ok := registry.Composite(name)
		if !ok {
			continue
		}
		if err := registry.Validate(seq); err != nil {
			errs = append(errs, errors.Wrapf(err, "composite %s", name))
		}
	}

	var missing []string
	for _, rule := range a.cfg.Watch.Rules {
		for _, task := range rule.Tasks {
			if !registry.Has(task) && !slices.Contains(missing, task) {
				missing = append(missing, task)
				errs = append(errs, errors.Wrapf(errors.NewUnregisteredTaskError(task), "watch rule %q", rule.Pattern))
			}
		}
	}
	return errors.Join(errs...)
}
