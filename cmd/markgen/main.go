// markgen hosts the annotation index the way a map frontend would: it loads
// persisted groups, replays an optional scenario of collection updates and
// tile requests, and leaves the generated geometry in the tile cache.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mapgrid/usermarks/internal/cache"
	"github.com/mapgrid/usermarks/internal/catalog"
	"github.com/mapgrid/usermarks/internal/config"
	"github.com/mapgrid/usermarks/internal/dispatcher"
	"github.com/mapgrid/usermarks/internal/index"
	"github.com/mapgrid/usermarks/internal/influx"
	"github.com/mapgrid/usermarks/internal/logging"
	"github.com/mapgrid/usermarks/internal/model/convert"
	"github.com/mapgrid/usermarks/internal/monitor"
	"github.com/mapgrid/usermarks/internal/otel"
	"github.com/mapgrid/usermarks/internal/render"
	"github.com/mapgrid/usermarks/internal/storage"
	"github.com/mapgrid/usermarks/internal/tiling"
	"github.com/mapgrid/usermarks/internal/worker"
	"github.com/mapgrid/usermarks/pkg/core"
)

type groupState struct {
	marks core.MarkCollection
	lines core.LineCollection
}

// app holds the host-side state around the renderer: the name-to-ID catalog,
// the collections it has fed in (kept for persistence on exit), and the cache
// receiving flushed geometry.
type app struct {
	catalog   *catalog.Catalog
	groups    map[string]groupState
	renderer  *worker.Renderer
	disp      *dispatcher.Dispatcher
	tileCache *cache.TileCache
	atlas     *staticAtlas
	influx    *influx.Manager
	store     storage.Backend
}

// timingCacher wraps the batcher so each per-group generation pass is
// reported to InfluxDB.
type timingCacher struct {
	inner  render.Cacher
	influx *influx.Manager
}

func (c *timingCacher) CacheMarks(key tiling.TileKey, textures render.TextureProvider, marks core.MarkCollection, indexes []int) render.Data {
	start := time.Now()
	data := c.inner.CacheMarks(key, textures, marks, indexes)
	c.influx.WriteGeneration(key, 1, time.Since(start))
	return data
}

func main() {
	opts := parseFlags()

	if err := config.Load(opts.configDir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	sessionStart := time.Now().UTC()
	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		fmt.Fprintln(os.Stderr, "creating logs dir:", err)
		os.Exit(1)
	}

	logFile, err := os.Create(logging.LogFilePath(logsDir, "markgen", sessionStart))
	if err != nil {
		fmt.Fprintln(os.Stderr, "creating log file:", err)
		os.Exit(1)
	}
	defer logFile.Close()

	otelEnabled := config.GetBool("otel.enabled")
	var otelWriter *os.File
	if otelEnabled {
		otelWriter, err = os.Create(logging.LogFilePath(logsDir, "markgen.otel", sessionStart))
		if err != nil {
			fmt.Fprintln(os.Stderr, "creating otel log file:", err)
			os.Exit(1)
		}
		defer otelWriter.Close()
	}

	provider, err := otel.New(otel.Config{
		Enabled:      otelEnabled,
		ServiceName:  "markgen",
		BatchTimeout: 5 * time.Second,
		LogWriter:    otelWriter,
		Endpoint:     config.GetString("otel.endpoint"),
		Insecure:     config.GetBool("otel.insecure"),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "setting up otel:", err)
		os.Exit(1)
	}

	slogMgr := logging.NewSlogManager()
	slogMgr.Setup(logFile, config.GetString("logLevel"), provider.LoggerProvider())
	log := slogMgr.Logger()
	adapter := logging.NewSlogAdapter(log)

	influxMgr := influx.NewManager(zerolog.New(os.Stdout).With().Timestamp().Logger())
	if config.GetBool("influx.enabled") {
		if err := influxMgr.Connect(); err != nil {
			log.Error("influx connection failed, measurements disabled", "error", err)
		}
	}

	store, err := storage.NewBackend(config.Storage())
	if err != nil {
		log.Error("creating storage backend", "error", err)
		os.Exit(1)
	}
	if err := store.Init(); err != nil {
		log.Error("initializing storage backend", "error", err)
		os.Exit(1)
	}

	scheme, err := tiling.NewMercator(config.GetInt("tiling.maxZoom"))
	if err != nil {
		log.Error("creating tiling scheme", "error", err)
		os.Exit(1)
	}

	tileCache := cache.NewTileCache()
	var flushed cache.SafeCounter
	flush := func(group core.GroupID, data render.Data) {
		tileCache.Put(data.Tile, group, data)
		flushed.Inc()
		log.Debug("flushed geometry",
			"tile", data.Tile.String(),
			"group", int64(group),
			"vertices", len(data.Vertices),
		)
	}

	gen, err := index.New(scheme, &timingCacher{inner: render.NewBatcher(), influx: influxMgr}, flush, adapter)
	if err != nil {
		log.Error("creating generator", "error", err)
		os.Exit(1)
	}

	renderer := worker.NewRenderer(gen, adapter)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go renderer.Run(ctx)

	mon := monitor.NewService(monitor.Dependencies{
		Log:      log,
		Renderer: renderer,
		Interval: 10 * time.Second,
	})
	mon.Start()

	disp, err := dispatcher.New(adapter)
	if err != nil {
		log.Error("creating dispatcher", "error", err)
		os.Exit(1)
	}

	a := &app{
		catalog:   catalog.New(),
		groups:    make(map[string]groupState),
		renderer:  renderer,
		disp:      disp,
		tileCache: tileCache,
		atlas:     newStaticAtlas(),
		influx:    influxMgr,
		store:     store,
	}
	a.registerHandlers()

	if err := a.seedFromStorage(log); err != nil {
		log.Error("loading persisted groups", "error", err)
	}

	if opts.scenarioPath != "" {
		s, err := loadScenario(opts.scenarioPath)
		if err != nil {
			log.Error("loading scenario", "error", err)
			os.Exit(1)
		}
		if err := a.replay(s); err != nil {
			log.Error("replaying scenario", "error", err)
		}
		a.awaitDrain(opts.settle)
	} else {
		log.Info("no scenario given, waiting for interrupt")
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		a.awaitDrain(opts.settle)
	}

	log.Info("session complete",
		"indexedTiles", renderer.IndexedTiles(),
		"cachedPayloads", tileCache.Len(),
		"flushedPayloads", flushed.Value(),
	)

	mon.Stop()
	renderer.Stop()

	if err := a.persistGroups(); err != nil {
		log.Error("persisting groups", "error", err)
	}
	if err := store.Close(); err != nil {
		log.Error("closing storage backend", "error", err)
	}
	influxMgr.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := slogMgr.Flush(shutdownCtx); err != nil {
		fmt.Fprintln(os.Stderr, "flushing logs:", err)
	}
	if err := provider.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintln(os.Stderr, "shutting down otel:", err)
	}
}

// seedFromStorage feeds persisted groups into the renderer under fresh
// catalog IDs. Names are the stable identity across sessions.
func (a *app) seedFromStorage(log *slog.Logger) error {
	persisted, err := a.store.LoadGroups()
	if err != nil {
		return err
	}

	for i := range persisted {
		g := &persisted[i]
		_, marks, lines, err := convert.GroupToCore(*g)
		if err != nil {
			return fmt.Errorf("group %s: %w", g.Name, err)
		}

		info := a.catalog.Register(g.Name)
		a.catalog.SetVisible(g.Name, g.Visible)
		a.groups[g.Name] = groupState{marks: marks, lines: lines}

		a.renderer.SetMarks(info.ID, marks)
		a.renderer.SetLines(info.ID, lines)
		a.renderer.SetVisibility(info.ID, g.Visible)
	}

	if len(persisted) > 0 {
		log.Info("seeded persisted groups", "count", len(persisted))
	}
	return nil
}

// persistGroups saves every registered group's current collections.
func (a *app) persistGroups() error {
	for _, info := range a.catalog.Groups() {
		state := a.groups[info.Name]
		rec, err := convert.GroupToGorm(info.ID, info.Name, info.Visible, state.marks, state.lines)
		if err != nil {
			return err
		}
		if err := a.store.SaveGroup(&rec); err != nil {
			return fmt.Errorf("saving group %s: %w", info.Name, err)
		}
	}
	return nil
}

// awaitDrain polls until the renderer has no queued work or the settle
// window elapses.
func (a *app) awaitDrain(settle time.Duration) {
	deadline := time.Now().Add(settle)
	for time.Now().Before(deadline) {
		if a.renderer.PendingCommands() == 0 && a.renderer.PendingTiles() == 0 {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
}
