package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results <session-id>",
	Short: "Show the results of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid session id %q", args[0])
		}

		api, _ := setup(cmd)
		res, err := api.GetResults(cmd.Context(), id)
		if err != nil {
			return err
		}
		renderResults(cmd.OutOrStdout(), res)
		return nil
	},
}
