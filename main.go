package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"nav-edge/internal/config"
	"nav-edge/internal/geo"
	"nav-edge/internal/httpserver"
	"nav-edge/internal/ingest"
	"nav-edge/internal/locate"
	"nav-edge/internal/logging"
	"nav-edge/internal/mapcmd"
	"nav-edge/internal/mw"
	"nav-edge/internal/navigation"
	"nav-edge/internal/overlay"
	"nav-edge/internal/places"
	"nav-edge/internal/routing"
	"nav-edge/internal/store"
	"nav-edge/internal/tracker"
)

func main() {
	_ = godotenv.Load()
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	path := os.Getenv("NAV_CONFIG")
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	lg, closer, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer closer.Close()
	slog.SetDefault(lg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	codec, err := mapcmd.NewCodec(cfg.Map.Codec)
	if err != nil {
		return err
	}
	st, err := store.NewRedisStore(ctx, store.Options{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		IdemTTL:    cfg.IdempotencyTTL(),
		MapChannel: cfg.Map.Channel,
		Codec:      codec,
	})
	if err != nil {
		return err
	}
	defer st.Close()

	var router routing.Provider
	switch cfg.Routing.Provider {
	case "osrm":
		router = routing.NewOSRM(cfg.Routing.OSRMBaseURL, cfg.RoutingTimeout())
	default:
		router = routing.NewGoogle(cfg.Routing.GoogleURL, cfg.GoogleAPIKey, cfg.RoutingTimeout())
	}

	deps := overlay.Deps{
		Sink:   st,
		Router: router,
		Places: places.NewClient(places.Options{
			BaseURL:    cfg.Places.BaseURL,
			APIKey:     cfg.GoogleAPIKey,
			MaxResults: cfg.Places.MaxResults,
			Language:   cfg.Places.Language,
			CacheSize:  cfg.Places.CacheSize,
			CacheTTL:   time.Duration(cfg.Places.CacheTTLSec) * time.Second,
		}),
		Locator: locate.NewIPLocator(cfg.Location.IPLookupURL),
		Camera: navigation.Camera{
			Center: geo.GeoPoint{Lat: cfg.Map.InitialLat, Lng: cfg.Map.InitialLng},
			Zoom:   cfg.Map.InitialZoom,
		},
		Tracking: tracker.Options{
			DeriveHeading:   cfg.Location.DeriveHeading,
			MinCourseMeters: cfg.Location.MinCourseMeters,
		},
		Log: lg,
	}
	if cfg.Location.GpsdAddr != "" {
		deps.Stream = locate.NewGpsd(cfg.Location.GpsdAddr)
	}
	ov := overlay.New(deps)

	rl := mw.NewRateLimiter(st.Rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	hdl := ingest.NewHandler(st, ov.Tracker, cfg.Location.MaxAccuracyM, lg.With(slog.String("component", "ingest")))
	h := httpserver.NewRouter(httpserver.Deps{
		Session: ov,
		Ingest:  hdl.Ingest,
		Auth:    mw.Auth([]byte(cfg.Auth.JWTSecret)),
		Limit:   rl.Middleware,
		Log:     lg,
	})

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return ov.Start(ctx) })
	eg.Go(func() error {
		return httpserver.Run(ctx, ":"+strconv.Itoa(cfg.Server.Port), h, lg)
	})
	return eg.Wait()
}
