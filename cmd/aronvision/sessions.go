package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/aronvision/internal/store"
)

var (
	sessionsLimit int
	showEvents    int
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recorded pose sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			sessions, err := st.Sessions().List(sessionsLimit)
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}
			if len(sessions) == 0 {
				fmt.Println("No sessions recorded.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tSOURCE\tFRAMES\tSTARTED\tDURATION")
			fmt.Fprintln(w, "--\t------\t------\t-------\t--------")
			for _, s := range sessions {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", s.ID, s.Source, s.Frames,
					s.StartedAt.Local().Format("2006-01-02 15:04"), duration(s))
			}
			return w.Flush()
		})
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show pose counts and transitions of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			s, err := st.Sessions().GetByID(args[0])
			if err != nil {
				return fmt.Errorf("session %s: %w", args[0], err)
			}
			counts, err := st.Events().Summary(s.ID)
			if err != nil {
				return fmt.Errorf("summarize session: %w", err)
			}

			fmt.Printf("Session:  %s\nSource:   %s\nFrames:   %d\nDuration: %s\n\n",
				s.ID, s.Source, s.Frames, duration(s))

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "KIND\tPOSE\tTRANSITIONS")
			for _, c := range counts {
				fmt.Fprintf(w, "%s\t%s\t%d\n", c.Kind, c.Pose, c.Count)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if showEvents == 0 {
				return nil
			}
			events, err := st.Events().ListBySession(s.ID, showEvents)
			if err != nil {
				return fmt.Errorf("list events: %w", err)
			}
			fmt.Println()
			w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "SEQ\tKIND\tSLOT\tPOSE\tAT")
			for _, e := range events {
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", e.Seq, e.Kind, e.Slot, e.Pose,
					e.At.Local().Format("15:04:05.000"))
			}
			return w.Flush()
		})
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session and its transitions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			if err := st.Sessions().Delete(args[0]); err != nil {
				return fmt.Errorf("delete session %s: %w", args[0], err)
			}
			fmt.Printf("Deleted session %s\n", args[0])
			return nil
		})
	},
}

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 20, "Maximum sessions to list; 0 lists all")
	sessionShowCmd.Flags().IntVarP(&showEvents, "events", "e", 0, "Also print up to this many transitions")
	sessionsCmd.AddCommand(sessionShowCmd, sessionDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func withStore(fn func(*store.Store) error) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func duration(s *store.Session) string {
	if s.EndedAt == nil {
		return "active"
	}
	return s.EndedAt.Sub(s.StartedAt).Round(time.Second).String()
}
