package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jackhunterking/beautycanvas/pkg/project"
)

// projectCommand creates the project command group for inspecting and
// migrating saved project files.
func (c *CLI) projectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Inspect and migrate saved project files",
	}

	cmd.AddCommand(c.projectShowCommand())
	cmd.AddCommand(c.projectMigrateCommand())

	return cmd
}

// projectShowCommand creates the project show subcommand.
func (c *CLI) projectShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [project.json]",
		Short: "Print a summary of a project file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := loadProjectFile(args[0])
			if err != nil {
				return err
			}
			migrated := proj.Migrate()

			printKeyValue("Project", proj.ID)
			printKeyValue("User", proj.UserID)
			printKeyValue("Template", proj.TemplateID)
			if proj.ThemeColor != "" {
				printKeyValue("Theme", proj.ThemeColor)
			}
			printKeyValue("Slots", fmt.Sprintf("%d", len(proj.Slots)))
			printKeyValue("Overlays", fmt.Sprintf("%d", len(proj.Overlays)))
			if !proj.UpdatedAt.IsZero() {
				printKeyValue("Updated", proj.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			if migrated {
				printWarning("Row uses a legacy layout; run 'project migrate' to rewrite it")
			}

			for _, id := range sortedSlotIDs(proj) {
				data := proj.Slots[id]
				printDetail("%s: %s", id, data.URI)
				for _, applied := range data.AI.EnhancementsApplied {
					printDetail("  %s %s", iconArrow, applied)
				}
			}
			return nil
		},
	}
}

// projectMigrateCommand creates the project migrate subcommand.
func (c *CLI) projectMigrateCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "migrate [project.json]",
		Short: "Rewrite a legacy project file into the unified slot layout",
		Long: `Rewrite a project file that still uses per-slot columns or the oldest
before/after pair into the unified per-slot layout. Rows already in the
unified layout pass through unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runProjectMigrate(cmd.Context(), args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: rewrite in place)")

	return cmd
}

// runProjectMigrate loads the file, migrates it, and writes the result.
func (c *CLI) runProjectMigrate(ctx context.Context, input, output string) error {
	logger := loggerFromContext(ctx)

	proj, err := loadProjectFile(input)
	if err != nil {
		return err
	}

	if !proj.Migrate() {
		printInfo("Project %s already uses the unified layout", proj.ID)
		return nil
	}
	logger.Infof("Reconstructed %d slots for project %s", len(proj.Slots), proj.ID)

	if output == "" {
		output = input
	}
	data, err := json.MarshalIndent(proj, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
		return err
	}

	printSuccess("Migrated %s (%d slots)", proj.ID, len(proj.Slots))
	for _, id := range sortedSlotIDs(proj) {
		printDetail("%s: %s", id, proj.Slots[id].URI)
	}
	printFile(output)
	return nil
}

// sortedSlotIDs returns the project's slot ids in stable order.
func sortedSlotIDs(p *project.Project) []string {
	ids := make([]string, 0, len(p.Slots))
	for id := range p.Slots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
