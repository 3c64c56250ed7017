package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/waveoff/internal/store"
)

const timeLayout = "2006-01-02 15:04:05"

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List journaled sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				sessions, err := st.Sessions().List(limit)
				if err != nil {
					return fmt.Errorf("list sessions: %w", err)
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSON(out, sessions)
				}
				if len(sessions) == 0 {
					fmt.Fprintln(out, "No sessions recorded")
					return nil
				}

				rows := make([][]string, 0, len(sessions))
				for _, s := range sessions {
					count, err := st.Transitions().CountBySession(s.ID)
					if err != nil {
						return fmt.Errorf("count transitions for %s: %w", s.ID, err)
					}
					rows = append(rows, sessionRow(s, count))
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Remote", "Started", "Duration", "Frames", "Failures", "Transitions"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum sessions to list (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	cmd.AddCommand(newSessionsPruneCommand(ctx))
	return cmd
}

func newSessionsPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete closed sessions older than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return errors.New("--older-than must be positive")
			}
			return ctx.withStore(func(st *store.Store) error {
				removed, err := st.Sessions().Prune(time.Now().Add(-olderThan))
				if err != nil {
					return fmt.Errorf("prune sessions: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d sessions\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Remove sessions that ended before now minus this duration")
	return cmd
}

func newTransitionsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "transitions <session-id>",
		Short: "Show the transition events of one session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return ctx.withStore(func(st *store.Store) error {
				if _, err := st.Sessions().GetByID(id); err != nil {
					if errors.Is(err, store.ErrNotFound) {
						return fmt.Errorf("session %s not found", id)
					}
					return err
				}
				transitions, err := st.Transitions().ListBySession(id)
				if err != nil {
					return fmt.Errorf("list transitions: %w", err)
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSON(out, transitions)
				}
				if len(transitions) == 0 {
					fmt.Fprintln(out, "No transitions recorded")
					return nil
				}

				rows := make([][]string, 0, len(transitions))
				for _, t := range transitions {
					rows = append(rows, transitionRow(t))
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Seq", "Time", "Hand Sign", "Gesture", "Previous", "Held"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func sessionRow(s *store.Session, transitions int) []string {
	duration := "running"
	if s.EndedAt != nil {
		duration = s.EndedAt.Sub(s.StartedAt).Round(time.Second).String()
	}
	remote := s.RemoteAddr
	if remote == "" {
		remote = "-"
	}
	return []string{
		s.ID,
		remote,
		s.StartedAt.Local().Format(timeLayout),
		duration,
		strconv.Itoa(s.Frames),
		strconv.Itoa(s.Failures),
		strconv.Itoa(transitions),
	}
}

func transitionRow(t *store.Transition) []string {
	handSign, gestureType := "(end)", "(end)"
	if t.Result != nil {
		handSign, gestureType = t.Result.HandSign, t.Result.GestureType
	}
	return []string{
		strconv.Itoa(t.Seq),
		t.CreatedAt.Local().Format(timeLayout),
		handSign,
		gestureType,
		t.PreviousResult.HandSign + "/" + t.PreviousResult.GestureType,
		strconv.Itoa(t.UnchangedCount),
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
