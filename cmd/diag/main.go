package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/star/orbitgo/internal/cache"
	"github.com/star/orbitgo/internal/config"
	"github.com/star/orbitgo/internal/health"
	"github.com/star/orbitgo/internal/metrics"
	"github.com/star/orbitgo/internal/orbit"
	"github.com/star/orbitgo/internal/param"
	"github.com/star/orbitgo/internal/propagation"
)

func main() {
	var (
		t0          = flag.Float64("t0", 0, "Mid-transit epoch [d]")
		period      = flag.Float64("p", 3.5, "Orbital period [d]")
		axis        = flag.Float64("a", 10, "Semi-major axis [R_star]")
		inc         = flag.Float64("i", 1.55, "Inclination [rad]")
		ecc         = flag.Float64("e", 0, "Eccentricity")
		omega       = flag.Float64("w", 0, "Argument of periastron [rad]")
		window      = flag.Float64("window", 0.2, "Half width of the sampled window around transit [d]")
		samples     = flag.Int("samples", 9, "Number of samples across the window")
		metricsAddr = flag.String("metrics-addr", "", "Serve metrics and health endpoints on this address until interrupted")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR loading config:", err)
		os.Exit(1)
	}
	logger, err := newLogger(os.Stderr, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR configuring logger:", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"workers", cfg.Workers,
		"table_bins", cfg.TableBins,
		"derivative_step", cfg.DerivativeStep,
		"cache_max_entries", cfg.CacheMaxEntries,
		"stellar_radius", cfg.StellarRadius,
	)

	el := orbit.Elements{T0: *t0, P: *period, A: *axis, I: *inc, E: *ecc, W: *omega}

	prop := propagation.NewPropagator(propagation.PropConfig{Workers: cfg.Workers}, logger)
	tables := cache.NewTableCache(cache.Config{Bins: cfg.TableBins, MaxEntries: cfg.CacheMaxEntries}, prop, logger)

	if err := run(ctx, os.Stdout, cfg, el, tables, prop, *window, *samples); err != nil {
		logger.Error("diagnostic run failed", "error", err)
		os.Exit(1)
	}

	if *metricsAddr == "" {
		return
	}
	ready := func() error {
		if tables.Stats().Entries == 0 {
			return errors.New("no tables cached")
		}
		return nil
	}
	srv := &http.Server{Addr: *metricsAddr, Handler: health.Mux(metrics.Handler(), ready), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("serving metrics", "addr", *metricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics shutdown error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, cfg *config.Config, el orbit.Elements, tables *cache.TableCache, prop *propagation.Propagator, window float64, n int) error {
	if n < 2 {
		return fmt.Errorf("need at least 2 samples, got %d", n)
	}

	tb, err := tables.Get(ctx, el)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Table %s: %d bins, bin width %.6f d\n", tb.ID(), tb.Bins(), tb.BinWidth())

	interval := 2 * window / float64(n-1)
	track, err := prop.Track(ctx, tb, el.T0-window, interval, n)
	if err != nil {
		return err
	}
	times := make([]float64, len(track))
	for i, s := range track {
		times[i] = s.Time
	}
	delays, err := prop.LightTravelTimes(ctx, tb, times, cfg.StellarRadius)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "\n       t            x            y            z            d     ltt [s]")
	for i, s := range track {
		fmt.Fprintf(out, "%8.4f %12.6f %12.6f %12.6f %12.6f %11.4f\n",
			s.Time, s.Position.X, s.Position.Y, s.Position.Z, s.ProjectedDistance, delays[i]*86400)
	}
	occ := el.T0 + 0.5*el.P
	fmt.Fprintf(out, "Phase angle at t0 %.4f rad, half a period later %.4f rad\n", tb.PhaseAngle(el.T0), tb.PhaseAngle(occ))

	grad, err := prop.DistanceWithDerivatives(ctx, el, times, cfg.DerivativeStep)
	if err != nil {
		return err
	}
	printMatrix(out, "Projected distance and partials (direct)", []string{"d", "t0", "p", "a", "i", "e", "w"}, times, grad.At)

	if err := printDensityImpact(out, el, times, cfg.DerivativeStep); err != nil {
		fmt.Fprintln(out, "\nDensity/impact form unavailable:", err)
	}

	stats := tables.Stats()
	fmt.Fprintf(out, "\nCache: %d tables, ~%d bytes, %d hits, %d misses\n", stats.Entries, stats.SizeBytes, stats.Hits, stats.Misses)
	return nil
}

// printDensityImpact prints the projected-distance partials with respect to
// the stellar density and impact parameter form of el.
func printDensityImpact(out io.Writer, el orbit.Elements, times []float64, step float64) error {
	pz := param.FromElements(el)
	c0, set, err := param.Coefficients(0, pz, step, orbit.XY)
	if err != nil {
		return err
	}
	res := set.DistanceWithDerivativesBatch(times, el.T0, el.P, c0)

	names := pz.Names()
	labels := append([]string{"d"}, names[:]...)
	fmt.Fprintf(out, "\nrho = %.4f g/cm3, b = %.4f\n", pz.Rho, pz.B)
	printMatrix(out, "Projected distance and partials (density, impact)", labels, times, res.At)
	return nil
}

func printMatrix(out io.Writer, title string, rows []string, times []float64, at func(i, j int) float64) {
	fmt.Fprintf(out, "\n%s\n%6s", title, "")
	for _, tm := range times {
		fmt.Fprintf(out, " %11.4f", tm)
	}
	fmt.Fprintln(out)
	for i, name := range rows {
		fmt.Fprintf(out, "%6s", name)
		for j := range times {
			fmt.Fprintf(out, " %11.4g", at(i, j))
		}
		fmt.Fprintln(out)
	}
}

// newLogger returns a JSON logger at the configured level.
func newLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), nil
}
