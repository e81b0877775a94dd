//go:build mage

// Package main contains Mage build targets for docx2md developer tooling.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// projectDirs lists the working directories a conversion workspace expects.
var projectDirs = []string{
	"documents",
	"output/markdown",
	"state",
}

// starterConfig points batch runs at the workspace conversion ledger.
const starterConfig = `# docx2md workspace configuration.
batch:
  state_db: state/conversions.db
`

// Init creates the workspace directory structure and a starter config file.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	if _, err := os.Stat("docx2md.yaml"); os.IsNotExist(err) {
		if err := os.WriteFile("docx2md.yaml", []byte(starterConfig), 0o644); err != nil {
			return fmt.Errorf("writing docx2md.yaml: %w", err)
		}
		fmt.Println("  ", "docx2md.yaml")
	}
	fmt.Println("Workspace initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "docx2md"
	cmdPkg  = "./cmd/docx2md"
)

// gitVersion returns a version string from git describe, or "dev" when
// the tree is not a git checkout.
func gitVersion() string {
	out, err := exec.Command("git", "describe", "--tags", "--always", "--dirty").Output()
	if err != nil {
		return "dev"
	}
	if v := strings.TrimSpace(string(out)); v != "" {
		return v
	}
	return "dev"
}

// Build compiles the CLI binary into bin/ with the version stamped in.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	version := gitVersion()
	cmd := exec.Command("go", "build", "-ldflags", "-X main.version="+version, "-o", out, cmdPkg)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s (%s)\n", out, version)
	return nil
}

// run builds the CLI and executes it with the given arguments.
func run(args ...string) error {
	if err := Build(); err != nil {
		return err
	}
	cmd := exec.Command(filepath.Join(binDir, binName), args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Convert converts a single .docx document through the built CLI.
func Convert(src string) error {
	return run("convert", src)
}

// Batch converts every document under documents/ into output/markdown/.
func Batch() error {
	return run("batch", "documents", "output/markdown", "--recursive")
}

// Stats prints conversion ledger totals through the built CLI.
func Stats() error {
	return run("stats")
}
