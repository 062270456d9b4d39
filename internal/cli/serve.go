package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func newServeCmd(e *env) *cobra.Command {
	var noCamera bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run live recognition with the web API and optional tray menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.serve(cmd.Context(), !noCamera)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default 127.0.0.1:8080)")
	cmd.Flags().Bool("tray", false, "show the system tray menu")
	cmd.Flags().BoolVar(&noCamera, "no-camera", false, "serve the library API without live recognition")
	e.v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	e.v.BindPFlag("tray.enabled", cmd.Flags().Lookup("tray"))
	return cmd
}

func (e *env) serve(parent context.Context, withCamera bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	library, phrases, err := e.openLibrary()
	if err != nil {
		return err
	}

	srvConfig := server.Config{
		StaticDir: e.staticDir(),
		Library:   library,
		Phrases:   phrases,
		Threshold: e.cfg.Recognition.Threshold,
		Log:       e.log,
	}

	var pipeline *app.App
	if withCamera {
		dispatcher, err := e.newDispatcher()
		if err != nil {
			return err
		}
		go dispatcher.Run(ctx)

		pipeline, err = e.newPipeline(library, phrases, dispatcher, false)
		if err != nil {
			return err
		}
		defer pipeline.Close()

		if err := pipeline.Start(); err != nil {
			// The API still serves the library without a camera.
			e.log.Warn().Err(err).Msg("live recognition unavailable")
		}

		srvConfig.Recognizer = pipeline
		srvConfig.Frames = pipeline
		srvConfig.Capturer = pipeline
	}

	srv := server.New(srvConfig)
	addr := e.cfg.Server.Addr
	e.log.Info().Str("addr", addr).Str("static", srvConfig.StaticDir).Msg("starting server")

	if !e.cfg.Tray.Enabled || pipeline == nil {
		return srv.ListenAndServe(ctx, addr)
	}

	// systray owns the main goroutine; the server runs beside it.
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx, addr) }()

	t := tray.New(pipeline.IsEnabled())
	t.OnToggle(pipeline.SetEnabled)
	t.OnOpen(func() {
		if err := openBrowser(browserURL(addr)); err != nil {
			e.log.Warn().Err(err).Msg("could not open browser")
		}
	})
	t.OnQuit(stop)

	results, unsubscribe := pipeline.Subscribe()
	defer unsubscribe()
	go t.Watch(results)
	go func() {
		<-ctx.Done()
		t.Quit()
	}()

	t.Run()
	stop()
	return <-errCh
}

// newPipeline builds the recognition pipeline over the configured camera. With
// requireDetector, a missing MediaPipe service is an error; otherwise the
// pipeline runs with a detector that never sees a hand.
func (e *env) newPipeline(library *store.Library, phrases *store.Phrases, dispatcher *plugin.Dispatcher, requireDetector bool) (*app.App, error) {
	var det detector.Detector
	mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig(), e.log)
	switch {
	case err == nil:
		det = mp
	case requireDetector:
		return nil, fmt.Errorf("hand detector: %w", err)
	default:
		e.log.Warn().Err(err).Msg("hand detection unavailable, gestures will not be recognized")
		det = detector.NewMockDetector()
	}

	return app.New(app.Config{
		Library:    library,
		Phrases:    phrases,
		Camera:     capture.NewCamera(capture.Options{DeviceID: e.cfg.Camera.ID, Mirror: e.cfg.Camera.Mirror}),
		Detector:   det,
		Dispatcher: dispatcher,
		Recognition: gesture.Config{
			Threshold:  e.cfg.Recognition.Threshold,
			WindowSize: e.cfg.Recognition.WindowSize,
		},
		MotionThreshold: e.cfg.Motion.Threshold,
		CaptureFrames:   e.cfg.Recognition.CaptureFrames,
		Log:             e.log,
	}), nil
}

func (e *env) newDispatcher() (*plugin.Dispatcher, error) {
	dir := e.cfg.Plugins.Dir
	if dir == "" {
		dir = filepath.Join(e.cfg.DataDir, "plugins")
	}

	manager := plugin.NewManager(dir, e.log)
	if err := manager.Discover(); err != nil {
		return nil, fmt.Errorf("discover plugins: %w", err)
	}
	return plugin.NewDispatcher(manager, plugin.NewExecutor(e.cfg.Plugins.Timeout), e.log), nil
}

// staticDir returns the configured web directory or the first of "web",
// "../web" and <data-dir>/web that exists.
func (e *env) staticDir() string {
	if e.cfg.Server.StaticDir != "" {
		return e.cfg.Server.StaticDir
	}
	for _, p := range []string{"web", "../web", filepath.Join(e.cfg.DataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

// browserURL turns a listen address into a URL a browser can open.
func browserURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

var errNoBrowser = errors.New("no browser opener for this platform")

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "linux", "freebsd":
		cmd = exec.Command("xdg-open", url)
	default:
		return errNoBrowser
	}
	return cmd.Start()
}
