// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pandoc wraps the pandoc binary that performs the raw
// docx to Markdown conversion step.
package pandoc

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

const defaultBin = "pandoc"

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Output(name string, args ...string) ([]byte, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Output(name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

var defaultExec executor = &osExecutor{}

// Converter runs pandoc over .docx files and returns its Markdown
// output. The zero value is not usable; call New.
type Converter struct {
	exec executor
	bin  string
}

// New returns a converter that invokes the binary at path, or "pandoc"
// from PATH when path is empty.
func New(path string) *Converter {
	if path == "" {
		path = defaultBin
	}
	return &Converter{exec: defaultExec, bin: path}
}

// Available reports whether the pandoc binary can be resolved.
func (c *Converter) Available() bool {
	_, err := c.exec.LookPath(c.bin)
	return err == nil
}

// Convert converts one .docx file to Markdown. A non-empty mediaDir
// becomes --extract-media so embedded images land there; extraArgs are
// appended after the fixed format flags.
func (c *Converter) Convert(docxPath, mediaDir string, extraArgs []string) (string, error) {
	args := []string{"-f", "docx", "-t", "markdown"}
	args = append(args, extraArgs...)
	if mediaDir != "" {
		args = append(args, "--extract-media="+mediaDir)
	}
	args = append(args, docxPath)

	out, err := c.exec.Output(c.bin, args...)
	if err != nil {
		return "", fmt.Errorf("pandoc %s: %w", docxPath, err)
	}
	return string(out), nil
}
