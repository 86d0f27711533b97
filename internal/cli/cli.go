// Package cli implements the beautycanvas command-line interface.
//
// This package provides commands for serving the editing API, compositing
// saved projects to PNG files, running enhancement jobs from the terminal,
// and migrating legacy project rows. The CLI is built using cobra and
// supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - serve: Run the HTTP editing API from a TOML config
//   - render: Composite a project to a PNG file
//   - enhance: Submit one image enhancement and poll it to completion
//   - project: Project maintenance (legacy row migration)
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jackhunterking/beautycanvas/pkg/buildinfo"
)

// appName is the application name used for directories and display.
const appName = "beautycanvas"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// The logger is attached to the command context and accessible to all
// commands via loggerFromContext.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          appName,
		Short:        "Beautycanvas composes before/after marketing images",
		Long:         `Beautycanvas is the editing core for before/after marketing images: cover-fit photo placement, AI enhancements through a remote queue, and durable project persistence.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.enhanceCommand())
	root.AddCommand(c.projectCommand())
	root.AddCommand(c.completionCommand())

	return root
}
