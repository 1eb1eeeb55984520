package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
	"github.com/fsnotify/fsnotify"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"

	"github.com/plexusviz/plexus"
)

func viewCmd() *cobra.Command {
	var (
		configPath string
		stateStr   string
		copyState  bool
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "view [graph.json]",
		Short: "Open an interactive window for a graph",
		Long: "View opens an ebiten window for the given graph JSON file. Without a\n" +
			"file argument the graph is fetched from the configured service URL.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			opts, err := cfg.options()
			if err != nil {
				return err
			}

			e := plexus.NewEngine(opts)
			defer e.Close()

			var path string
			if len(args) == 1 {
				path = args[0]
				if err := loadFile(e, path); err != nil {
					return err
				}
			} else {
				if cfg.Fetch.URL == "" {
					return fmt.Errorf("no graph file given and no fetch.url configured")
				}
				if err := loadRemote(cmd.Context(), e, cfg); err != nil {
					return err
				}
			}

			if stateStr != "" {
				st, err := plexus.DecodeState(stateStr)
				if err != nil {
					return err
				}
				e.ApplyState(st)
				logger.Debug("applied shared state", "clicked", st.ClickedID, "pinned", len(st.PinnedIDs))
			}

			e.SetCallbacks(plexus.Callbacks{
				OnClick: func(n *plexus.Node) {
					if n != nil {
						logger.Info("node clicked", "id", n.ID, "kind", n.Kind)
					}
				},
				OnNeighborhoodIsolate: func(n *plexus.Node, hops int) {
					logger.Info("neighborhood isolated", "id", n.ID, "hops", hops)
				},
			})
			e.Start()

			g := &viewGame{Host: plexus.NewHost(e), engine: e, reload: make(chan struct{}, 1)}
			if watch && path != "" {
				stop, err := watchFile(path, g.requestReload)
				if err != nil {
					return err
				}
				defer stop()
				g.reloadPath = path
			}

			title := cfg.Title
			if title == "" && path != "" {
				title = "plexus — " + filepath.Base(path)
			}
			if title == "" {
				title = "plexus"
			}
			width, height := cfg.Width, cfg.Height
			if width <= 0 {
				width = 1024
			}
			if height <= 0 {
				height = 768
			}
			ebiten.SetWindowTitle(title)
			ebiten.SetWindowSize(width, height)
			ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
			if err := ebiten.RunGame(g); err != nil {
				return err
			}

			if copyState {
				enc, err := e.CaptureState().Encode()
				if err != nil {
					return err
				}
				if err := clipboard.WriteAll(enc); err != nil {
					return fmt.Errorf("copy state to clipboard: %w", err)
				}
				logger.Info("share state copied to clipboard", "bytes", len(enc))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	cmd.Flags().StringVar(&stateStr, "state", "", "encoded share state to apply at startup")
	cmd.Flags().BoolVar(&copyState, "copy-state", false, "copy the share state to the clipboard on exit")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload the graph when the file changes")
	return cmd
}

// viewGame wraps the engine host so file reload requests, which arrive on
// the watcher goroutine, are applied on the game loop.
type viewGame struct {
	*plexus.Host
	engine     *plexus.Engine
	reloadPath string
	reload     chan struct{}
}

func (g *viewGame) requestReload() {
	if g.reload == nil {
		return
	}
	select {
	case g.reload <- struct{}{}:
	default:
	}
}

func (g *viewGame) Update() error {
	select {
	case <-g.reload:
		if err := loadFile(g.engine, g.reloadPath); err != nil {
			logger.Error("reload failed", "path", g.reloadPath, "err", err)
		} else {
			logger.Info("graph reloaded", "path", g.reloadPath)
		}
	default:
	}
	return g.Host.Update()
}

func loadFile(e *plexus.Engine, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read graph: %w", err)
	}
	if err := e.LoadJSON(data); err != nil {
		return err
	}
	reportNotes(e.Notes())
	logger.Info("graph loaded", "path", path,
		"nodes", len(e.Graph().Nodes), "edges", len(e.Graph().Edges))
	return nil
}

func loadRemote(ctx context.Context, e *plexus.Engine, cfg fileConfig) error {
	client := plexus.NewClient()
	if t := cfg.fetchTimeout(); t > 0 {
		client.Timeout = t
	}
	g, notes, err := client.FetchGraph(ctx, cfg.Fetch.URL, cfg.fetchConfig())
	if err != nil {
		return describeFetchError(err, cfg.Fetch.URL)
	}
	e.SetNodes(g.Nodes)
	e.SetLinks(g.Edges)
	reportNotes(notes)
	logger.Info("graph fetched", "url", cfg.Fetch.URL,
		"nodes", len(g.Nodes), "edges", len(g.Edges))
	return nil
}

func reportNotes(notes []string) {
	for _, n := range notes {
		logger.Warn(n)
	}
}

// watchFile reloads on write/create events, debounced so editors that write
// in several syscalls trigger a single reload.
func watchFile(path string, onChange func()) (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	// Watch the directory: many editors replace the file on save, which
	// drops a watch placed on the file itself.
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	abs, _ := filepath.Abs(path)
	done := make(chan struct{})
	go func() {
		var pending *time.Timer
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				evAbs, _ := filepath.Abs(ev.Name)
				if evAbs != abs || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				if pending != nil {
					pending.Stop()
				}
				pending = time.AfterFunc(150*time.Millisecond, onChange)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("file watcher", "err", err)
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		w.Close()
	}, nil
}

var _ ebiten.Game = (*viewGame)(nil)
