package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	sharedcfg "github.com/leapstack-labs/vcol/internal/config"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new vcol project",
		Long: `Initialize a new vcol project.

This creates:
  - vcol.yaml configuration file
  - logic.yaml with a small logic map
  - functions/ directory for Starlark functions

Use --example to create the demo project instead: a logic map mixing
operators, constants and functions, sample readings and a Starlark module.`,
		Example: `  # Initialize in current directory
  vcol init

  # Initialize the demo project in a new directory
  vcol init demo --example

  # Force overwrite existing files
  vcol init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			template := "minimal"
			if example {
				template = "example"
			}
			return runInit(NewCommandContextWithoutEngine(cmd), dir, template, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	cmd.Flags().BoolVar(&example, "example", false, "Create the example project with sample data")

	return cmd
}

func runInit(c *CommandContext, dir, template string, force bool) error {
	r := c.Renderer

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, sharedcfg.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", configPath)
	}

	if err := copyTemplate(template, dir, force); err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	files, _ := listTemplateFiles(template)
	for _, f := range files {
		r.StatusLine(f, "success", "")
	}

	project, err := sharedcfg.LoadFromDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", configPath, err)
	}
	logicFile := sharedcfg.DefaultLogicFile
	if project != nil {
		logicFile = project.LogicFile
	}

	r.Println("")
	r.Success("vcol project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  vcol check       Validate " + logicFile)
	r.Println("  vcol order       Show the evaluation order")
	if template == "example" {
		r.Println("  vcol eval        Compute every field from readings.csv")
	} else {
		r.Println("  vcol eval --csv <file>   Compute fields from a CSV file")
	}

	return nil
}
