// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the docx2md CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docx2md/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the docx2md CLI.
var rootCmd = &cobra.Command{
	Use:   "docx2md",
	Short: "Convert Word documents with math to Markdown+LaTeX",
	Long: `docx2md converts Microsoft Word documents with heavy mathematical
content into clean Markdown+LaTeX. Conversion runs pandoc for the document
body, lifts OMML equations to LaTeX through a placeholder pipeline, and
rewrites math delimiters to a canonical form that MathJax and KaTeX accept.

Each stage is a subcommand: convert and batch turn .docx files into
Markdown, fix-delimiters and validate operate on existing Markdown files,
and stats reports totals from the conversion ledger.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default: ./docx2md.yaml or ~/.config/docx2md/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("docx2md")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "docx2md"))
		}
	}

	viper.SetEnvPrefix("DOCX2MD")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig parses the config file viper discovered into the typed
// configuration, or returns the defaults when no file was found.
func loadConfig() (types.Config, error) {
	return types.LoadConfig(viper.ConfigFileUsed())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
