package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ayusman/aronvision/internal/app"
	"github.com/ayusman/aronvision/internal/logger"
	"github.com/ayusman/aronvision/internal/pipeline"
	"github.com/ayusman/aronvision/internal/store"
)

var replayRecord bool

var replayCmd = &cobra.Command{
	Use:   "replay <video>",
	Short: "Run every frame of a video file through the pose pipeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var st *store.Store
		if replayRecord {
			var err error
			if st, err = openStore(); err != nil {
				return err
			}
			defer st.Close()
		}

		var bar *progressbar.ProgressBar
		summary, err := app.Replay(cmd.Context(), app.ReplayConfig{
			Settings: settings,
			Path:     args[0],
			Store:    st,
			OnStart: func(total int) {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription("Replaying"),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowCount(),
				)
			},
			OnResult: func(pipeline.FrameResult) { _ = bar.Add(1) },
			Log:      logger.Get(),
		})
		if bar != nil {
			_ = bar.Finish()
			fmt.Fprintln(os.Stderr)
		}
		if summary != nil {
			printSummary(summary)
		}
		return err
	},
}

func init() {
	replayCmd.Flags().BoolVarP(&replayRecord, "record", "r", false, "Record pose transitions as a session")
	rootCmd.AddCommand(replayCmd)
}

func printSummary(s *app.Summary) {
	fmt.Printf("Frames: %d  delivered: %d  failed: %d  elapsed: %s\n",
		s.Frames, s.Delivered, s.Failed(), s.Elapsed.Round(time.Millisecond))
	if s.Session != "" {
		fmt.Printf("Session: %s\n", s.Session)
	}

	type row struct {
		kind, pose string
		count      int
	}
	var rows []row
	for p, n := range s.Hands {
		rows = append(rows, row{"hand", string(p), n})
	}
	for p, n := range s.Body {
		rows = append(rows, row{"body", string(p), n})
	}
	if len(rows) == 0 {
		return
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].kind != rows[j].kind {
			return rows[i].kind > rows[j].kind
		}
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].pose < rows[j].pose
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "KIND\tPOSE\tFRAMES")
	fmt.Fprintln(w, "----\t----\t------")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%d\n", r.kind, r.pose, r.count)
	}
	w.Flush()
}
