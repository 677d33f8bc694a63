package commands

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

// getJSON performs a GET against the schedulerd control-plane address and
// decodes the JSON body into v.
func getJSON(path string, v any) error {
	resp, err := httpClient.Get("http://" + serverAddr + path)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request %s: unexpected status %s", path, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func pathsCmd() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the scheduler's known paths and their eligibility state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var paths []pathSnapshot
			if err := getJSON("/v1/paths", &paths); err != nil {
				return err
			}

			out, err := formatPaths(paths, outputFormat)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Inspect scheduler path state",
	}
	cmd.AddCommand(listCmd)
	return cmd
}

func schedulerCmd() *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the active scheduling algorithm and burst policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var snap schedulerSnapshot
			if err := getJSON("/v1/scheduler", &snap); err != nil {
				return err
			}

			out, err := formatScheduler(snap, outputFormat)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Inspect scheduler algorithm state",
	}
	cmd.AddCommand(showCmd)
	return cmd
}
