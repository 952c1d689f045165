package cmd

import (
	"fmt"

	"orby/render"
	"orby/storage"

	"github.com/spf13/cobra"
)

func searchSessions(cmd *cobra.Command, a *app, query string) error {
	matches, err := storage.NewSearchIndex(a.sessions).SearchAllSessions(query)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(matches) == 0 {
		fmt.Fprintf(out, "No messages match %q.\n", query)
		return nil
	}
	for _, m := range matches {
		fmt.Fprintf(out, "%s  %s  [%s #%d] %s\n",
			m.SessionID, m.SessionName, m.Role, m.MessageIndex, m.Preview)
	}
	return nil
}

func showSession(cmd *cobra.Command, a *app, id string) error {
	session, err := a.sessions.Load(id)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s, %s)\n\n", session.Name, session.Backend, session.Model)
	for _, msg := range session.Messages {
		switch msg.Role {
		case "user":
			fmt.Fprintf(out, "You: %s\n\n", msg.Content)
		case "assistant":
			fmt.Fprintf(out, "Orby:\n%s\n\n", render.Markdown(msg.Content, render.DefaultWidth))
		}
	}
	return nil
}
