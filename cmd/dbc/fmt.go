package main

import (
	"fmt"
	"os"

	"github.com/jjalle/dbc-parser/dbcparser"
	"github.com/spf13/cobra"
)

var fmtCmd = &cobra.Command{
	Use:   "fmt <file.dbc>",
	Short: "Rewrite a DBC file in canonical form",
	Long:  "Parse a file and print it back in the canonical section order. With -w the file is rewritten in place.",
	Args:  cobra.ExactArgs(1),
	RunE:  runFmt,
}

func init() {
	fmtCmd.Flags().BoolP("write", "w", false, "Write result back to the source file instead of stdout")

	rootCmd.AddCommand(fmtCmd)
}

func runFmt(cmd *cobra.Command, args []string) error {
	path := args[0]
	write, _ := cmd.Flags().GetBool("write")

	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	doc, diags := dbcparser.Parse(src)
	if dbcparser.HasErrors(diags) {
		for _, d := range diags {
			fmt.Fprintf(os.Stderr, "%s: %s\n", path, d)
		}
		return fmt.Errorf("refusing to format %s: input has errors", path)
	}

	out := dbcparser.Serialize(doc)
	if write {
		return os.WriteFile(path, out, 0o644)
	}
	_, err = os.Stdout.Write(out)
	return err
}
