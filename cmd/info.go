package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	flagToolsFormat  string
	flagHistoryLimit int
	flagPruneDays    int
	flagSearch       string
	flagShow         string
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models the backend offers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		for _, name := range a.provider.ListModels(cmd.Context()) {
			marker := " "
			if name == a.cfg.DefaultModel {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %s\n", marker, name)
		}
		return nil
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the backend is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.provider.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("%s at %s: %w", a.provider.Name(), a.cfg.BaseURL(), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Connected to %s at %s\n", a.provider.Name(), a.cfg.BaseURL())
		return nil
	},
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Print the registered tool schemas",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.Close()

		var v any
		switch flagToolsFormat {
		case "mcp":
			v = a.registry.MCPTools()
		case "ollama":
			v = a.registry.OllamaTools()
		case "openai":
			v = a.registry.OpenAITools()
		default:
			return fmt.Errorf("unknown format %q (want mcp, ollama or openai)", flagToolsFormat)
		}

		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode tools: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent tool runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.Close()

		if a.toolLog == nil {
			return errors.New("tool history is unavailable")
		}
		out := cmd.OutOrStdout()

		if flagPruneDays > 0 {
			cutoff := time.Now().AddDate(0, 0, -flagPruneDays)
			n, err := a.toolLog.Prune(cmd.Context(), cutoff)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Removed %d runs older than %d days\n", n, flagPruneDays)
			return nil
		}

		runs, err := a.toolLog.Recent(cmd.Context(), flagHistoryLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, "No tool runs recorded yet.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tTOOL\tOK\tDURATION\tINPUT")
		for _, run := range runs {
			ok := "✓"
			if !run.Success {
				ok = "✗"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				run.CreatedAt.Local().Format("2006-01-02 15:04"),
				run.Tool, ok, run.Duration.Round(time.Millisecond), oneLine(run.Input, 60))
		}
		return w.Flush()
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List, search or show saved conversations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.Close()

		switch {
		case flagShow != "":
			return showSession(cmd, a, flagShow)
		case flagSearch != "":
			return searchSessions(cmd, a, flagSearch)
		}

		list, err := a.sessions.List()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No saved sessions.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUPDATED\tMODEL\tMSGS\tNAME")
		for _, s := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
				s.ID, s.UpdatedAt.Local().Format("2006-01-02 15:04"), s.Model, s.MessageCount, s.Name)
		}
		return w.Flush()
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		text, err := cfg.Describe()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# %s\n", cfg.Path)
		fmt.Fprint(out, text)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "orby version %s\n", Version)
	},
}

func init() {
	toolsCmd.Flags().StringVar(&flagToolsFormat, "format", "mcp", "schema format: mcp, ollama or openai")
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "number of runs to show")
	historyCmd.Flags().IntVar(&flagPruneDays, "prune", 0, "delete runs older than this many days")
	sessionsCmd.Flags().StringVarP(&flagSearch, "search", "s", "", "search saved messages")
	sessionsCmd.Flags().StringVar(&flagShow, "show", "", "print the session with this ID")

	rootCmd.AddCommand(modelsCmd, pingCmd, toolsCmd, historyCmd, sessionsCmd, configCmd, versionCmd)
}

func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}
