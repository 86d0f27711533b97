package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackhunterking/beautycanvas/pkg/compose"
	"github.com/jackhunterking/beautycanvas/pkg/errors"
	"github.com/jackhunterking/beautycanvas/pkg/httputil"
	"github.com/jackhunterking/beautycanvas/pkg/project"
	"github.com/jackhunterking/beautycanvas/pkg/template"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output      string // output PNG path; empty derives from the input name
	width       int    // output width in pixels; zero means the template design width
	height      int    // output height in pixels; zero means the template design height
	templateDir string // template directory; empty uses the bundled templates
	templateID  string // template override; empty uses the project's template
	themeColor  string // theme color override; empty uses the project's color
	cacheDir    string // fetched-image cache directory
}

// renderCommand creates the render command that composites a saved project
// file into a PNG.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [project.json]",
		Short: "Render a project file to a PNG",
		Long: `Render a saved project file to a finished PNG.

The project file is the JSON form of a saved project. Legacy rows with
per-slot columns are migrated in-memory before rendering.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output PNG path (default: input name with .png)")
	cmd.Flags().IntVar(&opts.width, "width", 0, "output width in pixels (default: template design width)")
	cmd.Flags().IntVar(&opts.height, "height", 0, "output height in pixels (default: template design height)")
	cmd.Flags().StringVar(&opts.templateDir, "template-dir", "", "directory of template TOML files (default: bundled templates)")
	cmd.Flags().StringVar(&opts.templateID, "template", "", "template id override (default: the project's template)")
	cmd.Flags().StringVar(&opts.themeColor, "theme-color", "", "theme color override, e.g. #d9a066")
	cmd.Flags().StringVar(&opts.cacheDir, "cache-dir", "", "fetched-image cache directory")

	return cmd
}

// runRender loads the project file, resolves its template, and composites the
// result to a PNG file.
func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	proj, err := loadProjectFile(input)
	if err != nil {
		return err
	}
	if proj.Migrate() {
		logger.Debugf("Migrated legacy project %s", proj.ID)
	}
	logger.Infof("Loaded project %s: %d slots, %d overlays", proj.ID, len(proj.Slots), len(proj.Overlays))

	tmpl, err := resolveTemplate(ctx, opts.templateDir, coalesceString(opts.templateID, proj.TemplateID))
	if err != nil {
		return err
	}

	cache, err := httputil.NewCache(opts.cacheDir, 0)
	if err != nil {
		return err
	}
	renderer := compose.NewRenderer(compose.NewDefaultSource(cache), logger)

	png, err := renderer.Render(ctx, compose.RenderInput{
		Template:   tmpl,
		Slots:      proj.Slots,
		Width:      opts.width,
		Height:     opts.height,
		ThemeColor: coalesceString(opts.themeColor, proj.ThemeColor),
		Overlays:   proj.Overlays,
	})
	if err != nil {
		return err
	}

	outputPath := opts.output
	if outputPath == "" {
		outputPath = strings.TrimSuffix(input, filepath.Ext(input)) + ".png"
	}
	if err := os.WriteFile(outputPath, png, 0o644); err != nil {
		return err
	}

	prog.done("Rendered")
	printSuccess("Rendered %s", proj.ID)
	printFile(outputPath)
	return nil
}

// loadProjectFile reads a project record from a JSON file.
func loadProjectFile(path string) (*project.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeValidation, err, "read project file %s", path)
	}
	var proj project.Project
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, errors.Wrap(errors.ErrCodeValidation, err, "parse project file %s", path)
	}
	return &proj, nil
}

// resolveTemplate loads a template by id from dir, or from the bundled set
// when dir is empty.
func resolveTemplate(ctx context.Context, dir, id string) (*template.Template, error) {
	if id == "" {
		id = template.Builtin().ID
	}
	if dir == "" {
		p, err := template.NewStaticProvider(template.Builtin())
		if err != nil {
			return nil, err
		}
		return p.Template(ctx, id)
	}
	p, err := template.NewFileProvider(dir)
	if err != nil {
		return nil, err
	}
	return p.Template(ctx, id)
}

// coalesceString returns the first non-empty string.
func coalesceString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
