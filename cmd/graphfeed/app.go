package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/phrazzld/graphfeed/internal/api"
	"github.com/phrazzld/graphfeed/internal/config"
	"github.com/phrazzld/graphfeed/internal/events"
	"github.com/phrazzld/graphfeed/internal/looper"
	"github.com/phrazzld/graphfeed/internal/platform/graph"
	"github.com/phrazzld/graphfeed/internal/platform/imagecache"
	"github.com/phrazzld/graphfeed/internal/platform/images"
	"github.com/phrazzld/graphfeed/internal/request"
	"github.com/phrazzld/graphfeed/internal/screen"
	"github.com/phrazzld/graphfeed/internal/social"
	"github.com/phrazzld/graphfeed/internal/task"
)

// shutdownTimeout bounds how long run waits for in-flight work after the
// context is done.
const shutdownTimeout = 10 * time.Second

// application holds the shared dependencies of the client.
type application struct {
	config *config.Config
	logger *slog.Logger

	loop       *looper.Looper
	emitter    *events.InMemoryEventEmitter
	recorder   *events.Recorder
	controller *task.Controller

	// statusServer is nil unless client.status_addr is set
	statusServer   *http.Server
	statusListener net.Listener

	graph   *graph.Client
	cache   *imagecache.Cache
	fetcher *images.Fetcher

	profile  *social.Profile
	friends  *social.FriendList
	newsFeed *social.FeedList

	// Owned by the looper goroutine
	mainScreen    *screen.Screen
	friendsScreen *screen.Screen
	outstanding   int

	// settled is closed once every initial load has reported back
	settled    chan struct{}
	settleOnce sync.Once
}

// newApplication wires the client's components from cfg.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		settled: make(chan struct{}),
	}

	app.loop = looper.New(logger)

	app.emitter = events.NewInMemoryEventEmitter(logger)
	app.emitter.RegisterHandler(events.NewLogHandler(logger))
	app.recorder = events.NewRecorder(cfg.Client.EventHistory)
	app.emitter.RegisterHandler(app.recorder)

	app.controller = task.NewController(app.loop, task.ControllerConfig{
		MaxPending:  cfg.Scheduler.MaxPending,
		PausePolicy: task.PausePolicy(cfg.Scheduler.PausePolicy),
	}, logger, task.WithEventEmitter(app.emitter))

	app.graph = graph.NewClient(cfg.Graph, logger)

	var err error
	app.cache, err = imagecache.New(cfg.Images.CacheEntries, logger)
	if err != nil {
		return nil, err
	}
	app.fetcher = images.NewFetcher(cfg.Images, app.cache, nil, logger)

	src := social.Source{
		Graph:  app.graph,
		Tasks:  app.controller,
		Loop:   app.loop,
		Logger: logger,
	}
	app.profile = social.NewProfile(src)
	app.friends = social.NewFriendList(src)
	app.newsFeed = social.NewNewsFeed(src)

	return app, nil
}

// run drives the client until ctx is done, then shuts everything down in
// order: screens, controller, looper.
func (app *application) run(ctx context.Context) error {
	if err := app.controller.Start(); err != nil {
		return fmt.Errorf("failed to start task controller: %w", err)
	}
	if err := app.startStatusServer(); err != nil {
		return err
	}
	if err := app.loop.Post(app.openScreens); err != nil {
		return fmt.Errorf("failed to open screens: %w", err)
	}

	loopErr := make(chan error, 1)
	go func() {
		loopErr <- app.loop.Run(context.Background())
	}()

	<-ctx.Done()
	app.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if app.statusServer != nil {
		if err := app.statusServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop status server: %w", err))
		}
	}
	if err := app.loop.PostAndWait(shutdownCtx, app.closeScreens); err != nil {
		errs = append(errs, fmt.Errorf("failed to close screens: %w", err))
	}
	if err := app.controller.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shut down task controller: %w", err))
	}
	app.loop.Stop()

	select {
	case err := <-loopErr:
		if err != nil {
			errs = append(errs, fmt.Errorf("looper: %w", err))
		}
	case <-shutdownCtx.Done():
		errs = append(errs, fmt.Errorf("looper did not stop: %w", shutdownCtx.Err()))
	}

	app.logger.Info("shutdown complete")
	return errors.Join(errs...)
}

// startStatusServer serves the api package on client.status_addr, if set.
func (app *application) startStatusServer() error {
	addr := app.config.Client.StatusAddr
	if addr == "" {
		return nil
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	handler := api.NewStatusHandler(app.controller, app.loop, app.recorder)
	app.statusListener = ln
	app.statusServer = &http.Server{
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := app.statusServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("status server failed", "error", err)
		}
	}()

	app.logger.Info("status server listening", "addr", ln.Addr().String())
	return nil
}

// openScreens runs on the looper.
func (app *application) openScreens() {
	app.mainScreen = screen.New("main", app.controller, app.logger)
	app.friendsScreen = screen.New("friends", app.controller, app.logger)

	// Held until every load below has been started
	app.outstanding++
	defer app.settle()

	app.startLoad("profile", func() error {
		return app.profile.Load(app.mainScreen.Owner(), social.Observer[*social.Profile]{
			OnComplete: app.onProfile,
			OnError:    app.loadFailed("profile"),
		})
	})
	app.startLoad("news feed", func() error {
		return app.newsFeed.Load(app.mainScreen.Owner(), social.Observer[*social.FeedList]{
			OnComplete: app.onFeed,
			OnError:    app.loadFailed("news feed"),
		})
	})
	app.startLoad("friends", func() error {
		return app.friends.Load(app.friendsScreen.Owner(), social.Observer[*social.FriendList]{
			OnComplete: app.onFriends,
			OnError:    app.loadFailed("friends"),
		})
	})
}

// closeScreens runs on the looper.
func (app *application) closeScreens() {
	for _, s := range []*screen.Screen{app.friendsScreen, app.mainScreen} {
		if s != nil {
			s.Destroy()
		}
	}
}

func (app *application) startLoad(what string, load func() error) {
	app.outstanding++
	if err := load(); err != nil {
		app.logger.Error("failed to start load", "what", what, "error", err)
		app.settle()
	}
}

// settle marks one load as finished and closes settled after the last one.
func (app *application) settle() {
	app.outstanding--
	if app.outstanding == 0 {
		app.settleOnce.Do(func() { close(app.settled) })
	}
}

func (app *application) loadFailed(what string) func(error) {
	return func(err error) {
		app.logger.Error("load failed", "what", what, "error", err)
		app.settle()
	}
}

func (app *application) onProfile(p *social.Profile) {
	app.logger.Info("profile loaded",
		"id", p.ID(),
		"name", p.Name(),
		"status", p.Status())

	if p.PictureURL() == "" {
		app.settle()
		return
	}

	t := request.Image(app.mainScreen.Owner(), app.fetcher, p.PictureURL(),
		func(img image.Image) {
			b := img.Bounds()
			app.logger.Info("profile picture loaded", "width", b.Dx(), "height", b.Dy())
			app.settle()
		},
		app.loadFailed("profile picture"))
	if err := app.mainScreen.Enqueue(t); err != nil {
		app.loadFailed("profile picture")(err)
	}
}

func (app *application) onFeed(f *social.FeedList) {
	for _, item := range f.Items() {
		app.logger.Info("feed item",
			"from", item.FromName,
			"type", item.Type,
			"message", item.Message,
			"comments", item.CommentCount)
	}
	app.settle()
}

func (app *application) onFriends(l *social.FriendList) {
	names := make([]string, 0, l.Len())
	for _, f := range l.Friends() {
		names = append(names, f.Name)
	}
	app.logger.Info("friends loaded", "count", len(names), "names", names)
	app.settle()
}
