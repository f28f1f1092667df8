package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"

	"github.com/ayusman/abhinaya/internal/app"
	"github.com/ayusman/abhinaya/internal/config"
	"github.com/ayusman/abhinaya/internal/plugin"
	"github.com/ayusman/abhinaya/internal/serialout"
	"github.com/ayusman/abhinaya/internal/server"
	"github.com/ayusman/abhinaya/internal/skeleton"
	"github.com/ayusman/abhinaya/internal/store"
	"github.com/ayusman/abhinaya/internal/tray"
)

const enabledSetting = "enabled"

func main() {
	configPath := flag.String("config", config.ConfigPath(), "path to the configuration file")
	replay := flag.String("replay", "", "play back a stored recording instead of the sensor bridge")
	loop := flag.Bool("loop", false, "loop the replayed recording")
	listPorts := flag.Bool("list-ports", false, "list serial ports and exit")
	flag.Parse()

	if *listPorts {
		ports, err := serialout.ListPorts()
		if err != nil {
			log.Fatalf("Failed to list serial ports: %v", err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	fmt.Println("Abhinaya - Body Gesture Recognition")

	// Load configuration, creating the default file on first run
	cfg, created, err := config.LoadOrCreate(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if created {
		fmt.Printf("Wrote default configuration to %s\n", *configPath)
	}

	// Initialize the store
	if err := os.MkdirAll(filepath.Dir(cfg.Database), 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	st, err := store.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	source, err := openSource(cfg, st, *replay, *loop)
	if err != nil {
		log.Fatalf("Failed to open frame source: %v", err)
	}

	application := app.New(app.Config{
		Settings: cfg,
		Source:   source,
		Store:    st,
	})

	// The enabled toggle survives restarts.
	if v, err := st.Settings().GetOr(enabledSetting, "true"); err == nil {
		application.SetEnabled(v != "false")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Hot reload
	loader := config.NewLoader(*configPath)
	if _, err := loader.Load(); err == nil {
		loader.OnChange(func(c *config.Config) {
			log.Printf("Configuration reloaded from %s", loader.Path())
			application.ApplyConfig(c)
		})
		if err := loader.Watch(); err != nil {
			log.Printf("Config watch disabled: %v", err)
		} else {
			go func() {
				for err := range loader.Errors() {
					log.Printf("Config reload failed: %v", err)
				}
			}()
		}
		defer loader.Close()
	}

	// Action plugins
	plugins := plugin.NewManager(cfg.PluginDir)
	if err := plugins.Discover(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	}
	actions := plugin.NewActionListener(st.Actions(), plugins, plugin.NewExecutor(plugin.DefaultTimeout))
	defer actions.Close()
	actions.OnResult(func(r plugin.Result) {
		if r.Err != nil {
			log.Printf("Action %s/%s failed: %v", r.Action.PluginName, r.Action.ActionName, r.Err)
		}
	})
	application.AddListener(actions)

	events := server.NewEventsHandler()
	application.AddListener(events)

	// Vehicle control link
	if cfg.Serial.Port != "" {
		opts := serialout.PortOptions{BaudRate: cfg.Serial.BaudRate}
		w, err := serialout.Open(nil, cfg.Serial.Port, opts, application.Vehicle(), cfg.SerialInterval())
		if err != nil {
			log.Printf("Serial link disabled: %v", err)
		} else {
			fmt.Printf("Writing vehicle controls to %s\n", cfg.Serial.Port)
			go w.Run(ctx)
			defer w.Close()
		}
	}

	// Monitoring server
	if cfg.Listen != "" {
		srv := server.New(server.Config{
			StaticDir: findWebDir(),
			Store:     st,
			Status:    application,
			Events:    events,
			Plugins:   plugins,
		})
		fmt.Printf("Starting server on %s\n", cfg.Listen)
		go func() {
			if err := srv.ListenAndServe(cfg.Listen); err != nil {
				log.Printf("Server failed: %v", err)
			}
		}()
	}

	if cfg.Record {
		if rec, err := application.Recorder().Start(""); err != nil {
			log.Printf("Recording disabled: %v", err)
		} else {
			fmt.Printf("Recording frames to %q\n", rec.Name)
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if source == nil {
			<-ctx.Done()
			return
		}
		if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Tick loop failed: %v", err)
		}
	}()

	if !cfg.Tray {
		<-done
		return
	}

	// The tray must own the main thread.
	t := tray.New()
	t.SetRecording(cfg.Record)
	t.SetEnabled(application.IsEnabled())
	t.OnToggle(func(enabled bool) {
		application.SetEnabled(enabled)
		if err := st.Settings().Set(enabledSetting, strconv.FormatBool(enabled)); err != nil {
			log.Printf("Failed to save enabled state: %v", err)
		}
	})
	t.OnRecord(func(recording bool) {
		if recording {
			if _, err := application.Recorder().Start(""); err != nil {
				log.Printf("Failed to start recording: %v", err)
			}
			return
		}
		if err := application.Recorder().Stop(); err != nil {
			log.Printf("Failed to stop recording: %v", err)
		}
	})
	t.OnSettings(func() { openBrowser(monitorURL(cfg.Listen)) })
	t.OnQuit(cancel)
	application.AddListener(t)

	go func() {
		<-done
		t.Quit()
	}()
	t.Run()
	cancel()
	<-done
}

// openSource picks the frame source: a stored recording when replay is set,
// otherwise the configured sensor bridge. It returns nil when neither is available.
func openSource(cfg *config.Config, st *store.Store, replay string, loop bool) (skeleton.Source, error) {
	if replay != "" {
		fmt.Printf("Replaying recording %s\n", replay)
		return app.LoadReplay(st, replay, loop)
	}
	if cfg.Bridge.Command == "" {
		log.Println("No sensor bridge configured (bridge.command), serving the monitor only")
		return nil, nil
	}
	return skeleton.NewBridgeSource(cfg.Bridge.Command, cfg.Bridge.Args...), nil
}

func monitorURL(listen string) string {
	if len(listen) > 0 && listen[0] == ':' {
		return "http://localhost" + listen
	}
	return "http://" + listen
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and the data directory.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	dataWebDir := filepath.Join(config.DataDir(), "web")
	if info, err := os.Stat(dataWebDir); err == nil && info.IsDir() {
		return dataWebDir
	}

	return ""
}
