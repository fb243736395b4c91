package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/davecgh/go-spew/spew"
	"golang.org/x/sync/errgroup"

	"github.com/theoremus-urban-solutions/gtfsrt-locator/config"
	"github.com/theoremus-urban-solutions/gtfsrt-locator/formatter"
	"github.com/theoremus-urban-solutions/gtfsrt-locator/gtfs"
	"github.com/theoremus-urban-solutions/gtfsrt-locator/gtfsrt"
	"github.com/theoremus-urban-solutions/gtfsrt-locator/internal"
	"github.com/theoremus-urban-solutions/gtfsrt-locator/locator"
	"github.com/theoremus-urban-solutions/gtfsrt-locator/nearest"
	"github.com/theoremus-urban-solutions/gtfsrt-locator/publish"
	"github.com/theoremus-urban-solutions/gtfsrt-locator/server"
)

type options struct {
	mode         string
	format       string
	feedName     string
	kind         gtfsrt.FeedKind
	ref          nearest.Coordinate
	endpoints    gtfsrt.Endpoints
	source       string
	gtfsPath     string
	allowExpired bool
	rt           config.GTFSRTConfig
	static       config.StaticConfig
}

func main() {
	mode := flag.String("mode", "oneshot", "oneshot|watch|serve|import")
	format := flag.String("format", "json", "json|xml|text|siri|siri-xml|spew")
	feedName := flag.String("feed", "", "feed name from config.feeds[]")
	kindFlag := flag.String("kind", "", "feed to query: tu|vp|alerts (default from config)")
	lat := flag.Float64("lat", 0, "reference latitude (default from config)")
	lon := flag.Float64("lon", 0, "reference longitude (default from config)")
	tripUpdates := flag.String("tripUpdates", "", "GTFS-RT TripUpdates URL (overrides config)")
	vehiclePositions := flag.String("vehiclePositions", "", "GTFS-RT VehiclePositions URL (overrides config)")
	serviceAlerts := flag.String("serviceAlerts", "", "GTFS-RT ServiceAlerts URL (overrides config)")
	source := flag.String("source", "", "oneshot: read the feed from this URL or local file instead")
	gtfsPath := flag.String("gtfs", "", "import: GTFS zip path or URL (overrides config)")
	allowExpired := flag.Bool("allowExpired", false, "import: accept a dataset whose calendar has ended")
	configPath := flag.String("config", "", "config file (default config.yml or ./config/config.yml)")
	logLevel := flag.String("logLevel", "info", "debug|info|warn|error")
	flag.Parse()

	logger := internal.InitLogging(*logLevel)

	if *configPath != "" {
		config.SearchPaths = []string{*configPath}
	}
	if err := config.LoadAppConfig(); err != nil {
		fatal(logger, "failed to load config", err)
	}

	rtCfg, staticCfg := config.SelectFeed(*feedName)
	ep := rtCfg.Endpoints()
	if *tripUpdates != "" {
		ep.TripUpdatesURL = *tripUpdates
	}
	if *vehiclePositions != "" {
		ep.VehiclePositionsURL = *vehiclePositions
	}
	if *serviceAlerts != "" {
		ep.ServiceAlertsURL = *serviceAlerts
	}

	kind, err := config.Config.Locator.Kind()
	if *kindFlag != "" {
		kind, err = gtfsrt.ParseFeedKind(*kindFlag)
	}
	if err != nil {
		fatal(logger, "invalid feed kind", err)
	}

	ref := nearest.Coordinate{Latitude: config.Config.Locator.Latitude, Longitude: config.Config.Locator.Longitude}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lat":
			ref.Latitude = *lat
		case "lon":
			ref.Longitude = *lon
		}
	})

	if math.IsNaN(ref.Latitude) || math.IsInf(ref.Latitude, 0) || math.IsNaN(ref.Longitude) || math.IsInf(ref.Longitude, 0) {
		fatal(logger, "invalid reference point", fmt.Errorf("lat/lon must be finite, got %v, %v", ref.Latitude, ref.Longitude))
	}

	opts := options{
		mode:         *mode,
		format:       *format,
		feedName:     *feedName,
		kind:         kind,
		ref:          ref,
		endpoints:    ep,
		source:       *source,
		gtfsPath:     *gtfsPath,
		allowExpired: *allowExpired,
		rt:           rtCfg,
		static:       staticCfg,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch opts.mode {
	case "oneshot":
		err = runOneshot(ctx, opts, logger)
	case "watch":
		err = runWatch(ctx, opts, logger)
	case "serve":
		err = runServe(ctx, opts, logger)
	case "import":
		err = runImport(ctx, opts, logger)
	default:
		err = fmt.Errorf("unknown mode %q", opts.mode)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		stop()
		fatal(logger, opts.mode+" failed", err)
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}

func httpClient(rt config.GTFSRTConfig) *http.Client {
	return &http.Client{Timeout: rt.Timeout()}
}

func runOneshot(ctx context.Context, opts options, logger *slog.Logger) error {
	target := opts.source
	if target == "" {
		url, ok := opts.endpoints.URL(opts.kind)
		if !ok {
			return gtfsrt.MissingFeedError{Kind: opts.kind}
		}
		target = url
	}

	fm, err := newFetcher(httpClient(opts.rt)).fetch(ctx, target)
	if err != nil {
		return err
	}

	var resp *formatter.Response
	if opts.kind == gtfsrt.Alert {
		resp = formatter.WrapAlerts(gtfsrt.ParseAlerts(fm), fm.GetHeader().GetTimestamp(), opts.feedName)
	} else {
		store, err := gtfs.Open(ctx, opts.static)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		res := locator.Resolve(ctx, fm, opts.ref, store, logger)
		resp = formatter.WrapResult(res, opts.feedName, opts.rt.PollInterval())
	}
	return write(resp, opts.format)
}

func write(resp *formatter.Response, format string) error {
	if format == "spew" {
		spew.Fdump(os.Stdout, resp)
		return nil
	}
	buf, _, err := formatter.NewResponseBuilder().Build(resp, format)
	if err != nil {
		return err
	}
	fmt.Println(string(buf))
	return nil
}

func newLocator(ctx context.Context, opts options, logger *slog.Logger, state *locator.State) (*locator.Locator, func(), error) {
	store, err := gtfs.Open(ctx, opts.static)
	if err != nil {
		return nil, nil, err
	}
	pub, err := newPublisher(config.Config.Publish, logger)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	src := gtfsrt.NewFeedSourceWithEndpoints(opts.endpoints,
		gtfsrt.WithHTTPClient(httpClient(opts.rt)),
		gtfsrt.WithPollInterval(opts.rt.PollInterval()),
		gtfsrt.WithLogger(logger),
	)
	loc := &locator.Locator{
		Source:    src,
		Kind:      opts.kind,
		Reference: opts.ref,
		Store:     store,
		Publisher: pub,
		State:     state,
		Logger:    logger,
	}
	cleanup := func() {
		if err := pub.Close(); err != nil {
			logger.Warn("failed to close publisher", "error", err)
		}
		_ = store.Close()
	}
	return loc, cleanup, nil
}

func newPublisher(cfg config.PublishConfig, logger *slog.Logger) (publish.Publisher, error) {
	if cfg.KafkaBrokers == "" {
		return publish.NewLogPublisher(logger), nil
	}
	logger.Info("publishing to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	return publish.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
}

func runWatch(ctx context.Context, opts options, logger *slog.Logger) error {
	if opts.kind == gtfsrt.Alert {
		return fmt.Errorf("watch needs a vehicle position or trip update feed, got %s", opts.kind)
	}
	loc, cleanup, err := newLocator(ctx, opts, logger, nil)
	if err != nil {
		return err
	}
	defer cleanup()
	logger.Info("watching feed", "kind", opts.kind.String(), "lat", opts.ref.Latitude, "lon", opts.ref.Longitude)
	return loc.Run(ctx)
}

func runServe(ctx context.Context, opts options, logger *slog.Logger) error {
	if opts.kind == gtfsrt.Alert {
		return fmt.Errorf("serve needs a vehicle position or trip update feed, got %s", opts.kind)
	}
	state := locator.NewState()
	loc, cleanup, err := newLocator(ctx, opts, logger, state)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := server.New(server.Options{
		Port:         config.Config.Server.Port,
		State:        state,
		Store:        loc.Store,
		Producer:     opts.feedName,
		PollInterval: opts.rt.PollInterval(),
		Logger:       logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loc.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx) })
	return g.Wait()
}

func runImport(ctx context.Context, opts options, logger *slog.Logger) error {
	path := opts.gtfsPath
	if path == "" {
		path = opts.static.GTFSPath
	}
	if path == "" {
		return fmt.Errorf("no GTFS dataset given; set -gtfs or static.gtfsPath")
	}

	start := time.Now()
	idx, err := gtfs.LoadDataset(ctx, path, opts.static.IndexCachePath)
	if err != nil {
		return err
	}
	logger.Info("loaded GTFS dataset", "path", path, "stats", idx.Stats(), "took", time.Since(start))

	if err := gtfs.ValidateCalendar(idx, time.Now()); err != nil {
		if !opts.allowExpired {
			return err
		}
		logger.Warn("importing expired dataset", "error", err)
	}

	// The dataset is already parsed; keep the memory driver from loading it again.
	storeCfg := opts.static
	storeCfg.GTFSPath = ""
	store, err := gtfs.Open(ctx, storeCfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Import(ctx, idx); err != nil {
		return fmt.Errorf("import into %s store: %w", driverName(storeCfg.Driver), err)
	}
	logger.Info("imported GTFS dataset", "driver", driverName(storeCfg.Driver), "took", time.Since(start))
	return nil
}

func driverName(d string) string {
	if d == "" {
		return config.DefaultStaticDriver
	}
	return d
}
