/*
Copyright © 2024 paul <paul@denknerd.org>
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Output current config",
	Long: `
Is something not working for you?  Have a look whether your config is as you expect.  Tokens are
never printed, only whether they're set.
`,
	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := yaml.Marshal(Resolved.Redacted())
		if err != nil {
			return fmt.Errorf("config: couldn't render config: %w", err)
		}

		fmt.Printf("# config file: %s\n", ConfigActual)
		fmt.Printf("%s", out)
		return nil
	},
}

func init() {
	configCmd.AddCommand(showCmd)
}
