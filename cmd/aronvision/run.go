package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/aronvision/internal/app"
	"github.com/ayusman/aronvision/internal/geometry"
	"github.com/ayusman/aronvision/internal/hook"
	"github.com/ayusman/aronvision/internal/logger"
	"github.com/ayusman/aronvision/internal/pipeline"
	"github.com/ayusman/aronvision/internal/pose"
	"github.com/ayusman/aronvision/internal/server"
	"github.com/ayusman/aronvision/internal/tray"
)

var runOpts struct {
	addr   string
	camera int
	tray   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Recognize poses from the camera and serve the dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if flags.Changed("addr") {
			settings.Addr = runOpts.addr
		}
		if flags.Changed("camera") {
			settings.CameraID = runOpts.camera
		}
		if flags.Changed("tray") {
			settings.Tray = runOpts.tray
		}
		return runLive(cmd.Context())
	},
}

func init() {
	runCmd.Flags().StringVarP(&runOpts.addr, "addr", "a", "", "HTTP listen address; empty disables the dashboard")
	runCmd.Flags().IntVar(&runOpts.camera, "camera", 0, "Camera device index")
	runCmd.Flags().BoolVar(&runOpts.tray, "tray", false, "Show the system tray menu")
	rootCmd.AddCommand(runCmd)
}

func runLive(ctx context.Context) error {
	log := logger.Get()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	hub := server.NewPoseHub(log.Named("ws"))
	results := []pipeline.ResultFunc{hub.Publish}

	hooks := hook.NewManager(settings.HooksPath())
	if err := hooks.Discover(); err != nil {
		log.Warn(ctx, "some hooks could not be loaded", logger.Error(err))
	}
	if n := len(hooks.List()); n > 0 {
		runner := hook.NewRunner(hooks, hook.NewExecutor(settings.HookTimeout()), log.Named("hook"))
		results = append(results, runner.Observe)
		go func() {
			if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error(ctx, "hook runner stopped", logger.Error(err))
			}
		}()
		log.Info(ctx, "pose hooks loaded", logger.Int("hooks", n), logger.String("dir", hooks.Dir()))
	}

	var tr *tray.Tray
	var lastHands []pose.HandPose
	a, err := app.New(app.Config{
		Settings: settings,
		Store:    st,
		Results:  results,
		OnHand: func(_ []geometry.Point, poses []pose.HandPose) {
			lastHands = poses
		},
		OnBody: func(_ []geometry.Point, p pose.BodyPose) {
			if tr != nil {
				tr.SetPoses(lastHands, p)
			}
		},
		OnHalt: func(err error) {
			if tr != nil {
				tr.SetHalted(true)
			}
		},
		Log: log,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	if settings.Tray {
		tr = newTray(ctx, a, cancel)
	}

	if err := a.Start(ctx); err != nil {
		return err
	}

	srvErr := make(chan error, 1)
	if settings.Addr != "" {
		webDir := findWebDir(settings.DataDir)
		if webDir != "" {
			log.Info(ctx, "serving static files", logger.String("dir", webDir))
		}
		srv := server.New(server.Config{
			StaticDir: webDir,
			Store:     st,
			Hub:       hub,
			Preview:   a.Preview(),
			Pipeline:  a,
			Log:       log.Named("server"),
		})
		go func() {
			log.Info(ctx, "starting server", logger.String("addr", settings.Addr))
			srvErr <- srv.ListenAndServe(ctx, settings.Addr)
		}()
	} else {
		hub.Close()
	}

	if tr != nil {
		go func() {
			<-ctx.Done()
			tr.Quit()
		}()
		// The tray owns the main thread until it quits.
		tr.Run()
		cancel()
	}

	select {
	case <-ctx.Done():
	case err := <-srvErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	a.Stop()
	if err := a.Err(); err != nil && !errors.Is(err, pipeline.ErrHalted) {
		return err
	}
	return nil
}

// newTray builds the tray menu. Enabling detection from the tray restarts a
// halted pipeline.
func newTray(ctx context.Context, a *app.App, quit context.CancelFunc) *tray.Tray {
	tr := tray.New(a.IsEnabled())
	tr.OnToggle(func(enabled bool) {
		a.SetEnabled(enabled)
		if !enabled || !a.Status().Halted {
			return
		}
		if err := a.Start(ctx); err != nil {
			logger.Get().Error(ctx, "failed to restart pipeline", logger.Error(err))
			return
		}
		tr.SetHalted(false)
	})
	tr.OnQuit(quit)
	if settings.Addr != "" {
		tr.OnOpen(func() {
			if err := openBrowser(dashboardURL(settings.Addr)); err != nil {
				logger.Get().Warn(context.Background(), "failed to open dashboard", logger.Error(err))
			}
		})
	}
	return tr
}
