// Package main generates markdown documentation for vcol from its source:
// the CLI reference, the configuration reference and the expression
// language reference.
//
// Usage:
//
//	go run ./scripts/gendocs -gen=cli -outdir=docs/cli
//	go run ./scripts/gendocs -gen=config -outdir=docs/reference
//	go run ./scripts/gendocs -gen=expressions -outdir=docs/reference
//	go run ./scripts/gendocs -gen=all
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	_ "github.com/leapstack-labs/vcol/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/vcol/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/vcol/pkg/adapters/sqlite"
)

var (
	genFlag    = flag.String("gen", "all", "what to generate: cli, config, expressions, all")
	outDirFlag = flag.String("outdir", "", "output directory (defaults based on gen type)")
)

type generator struct {
	dir string
	fn  func(outDir string) error
}

var generators = map[string]generator{
	"cli":         {dir: filepath.Join("docs", "cli"), fn: generateCLIDocs},
	"config":      {dir: filepath.Join("docs", "reference"), fn: generateConfigDocs},
	"expressions": {dir: filepath.Join("docs", "reference"), fn: generateExpressionDocs},
}

func main() {
	flag.Parse()

	if _, ok := generators[*genFlag]; !ok && *genFlag != "all" {
		log.Fatalf("unknown -gen value: %s (use: cli, config, expressions, all)", *genFlag)
	}

	projectRoot, err := findProjectRoot()
	if err != nil {
		log.Fatalf("failed to find project root: %v", err)
	}
	log.Printf("Project root: %s", projectRoot)

	if *genFlag == "all" {
		for _, name := range []string{"cli", "config", "expressions"} {
			g := generators[name]
			if err := g.fn(filepath.Join(projectRoot, g.dir)); err != nil {
				log.Fatalf("failed to generate %s docs: %v", name, err)
			}
		}
		log.Println("Done!")
		return
	}

	g := generators[*genFlag]
	outDir := *outDirFlag
	if outDir == "" {
		outDir = filepath.Join(projectRoot, g.dir)
	}
	if err := g.fn(outDir); err != nil {
		log.Fatalf("failed to generate %s docs: %v", *genFlag, err)
	}
	log.Println("Done!")
}

// findProjectRoot walks up from current directory to find go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
