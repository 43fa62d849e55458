package main

import (
	"fmt"
	"os"

	"github.com/jjalle/dbc-parser/dbcparser"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var checkCmd = &cobra.Command{
	Use:   "check <file.dbc>...",
	Short: "Parse and validate DBC files",
	Long:  "Parse each file, run all semantic checks and print every diagnostic found.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	verbose := viper.GetBool("verbose")
	strict := viper.GetBool("strict")

	failed := false
	for _, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		doc, diags := dbcparser.Parse(src)
		for _, d := range diags {
			fmt.Fprintf(os.Stderr, "%s: %s\n", path, d)
		}
		if dbcparser.HasErrors(diags) {
			failed = true
		} else if strict && len(diags) > 0 {
			failed = true
		}

		if verbose {
			fmt.Fprintf(os.Stderr, "%s: %d nodes, %d messages, %d environment variables\n",
				path, len(doc.Nodes), len(doc.Messages), len(doc.EnvVars))
		}
	}

	if failed {
		return fmt.Errorf("validation failed")
	}
	return nil
}
