package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"fleetsim/internal/adapters/cache"
	"fleetsim/internal/adapters/routing"
	"fleetsim/internal/api"
	"fleetsim/internal/config"
	"fleetsim/internal/domain"
	"fleetsim/internal/platform/db"
	"fleetsim/internal/ports"
	"fleetsim/internal/report"
	"fleetsim/internal/sim"
	"fleetsim/internal/solver"
)

var (
	configFile string
	headless   bool
	demoOrders bool
)

var rootCmd = &cobra.Command{
	Use:   "fleetsim",
	Short: "Fleet logistics simulator",
	Long: `A single-process fleet-logistics simulator: simulated drivers move
across geographic space while a dispatcher assigns pending packages to idle
drivers using nearest-neighbor matching and externally-computed road routes.

Road routing uses an OSRM server when reachable and deterministic haversine
estimates otherwise, so the simulation runs fully offline.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to yaml configuration file")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "Disable the HTTP status API")
	rootCmd.Flags().BoolVar(&demoOrders, "demo-orders", true, "Seed the demo order scenario")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cmd.Flags().Changed("demo-orders") {
		cfg.DemoOrders = demoOrders
	}

	// Composition root: wire concrete adapters behind ports and start the
	// three simulation loops.
	routeCache, closeCache, err := buildRouteCache()
	if err != nil {
		return err
	}
	defer closeCache()

	provider := routing.NewOSRMProvider(cfg.OSRMURL, cfg.RouteCallTimeout.Std(), routeCache)
	tourSolver := solver.NewCompositeSolver(nil)

	world := sim.NewSimulator()
	for i := 0; i < cfg.DriverCount; i++ {
		d := domain.NewDriver(fmt.Sprintf("driver_%d", i+1), cfg.Home, cfg.DriverSpeedMPS)
		if err := world.AddDriver(d); err != nil {
			return fmt.Errorf("spawn drivers: %w", err)
		}
		log.Printf("component=main event=driver_created driver=%s lat=%.4f lon=%.4f", d.ID, cfg.Home.Lat, cfg.Home.Lon)
	}
	if cfg.DemoOrders {
		if err := world.CreateDemoOrders(); err != nil {
			return fmt.Errorf("seed demo orders: %w", err)
		}
	}

	dispatcher := sim.NewDispatcher(world, provider, tourSolver, cfg.Home,
		cfg.DispatchInterval.Std(), cfg.RouteCallTimeout.Std())
	reporter := report.NewReporter(world, cfg.ReportInterval.Std())
	mapBuilder := report.NewMapBuilder(world, 2*time.Second)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Reporting runs on a cron schedule; panics inside a report are
	// recovered so a bad report never kills the schedule.
	sched := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	if _, err := sched.AddFunc(fmt.Sprintf("@every %s", cfg.ReportInterval.Std()), reporter.Emit); err != nil {
		return fmt.Errorf("schedule reporter: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	go world.Run(ctx, cfg.MotionTick.Std())
	go dispatcher.Run(ctx)

	app := api.NewApp(world, dispatcher, mapBuilder)
	if !headless {
		go func() {
			log.Printf("component=main event=listening port=%s", cfg.Port)
			if err := app.Listen(":" + cfg.Port); err != nil {
				log.Printf("component=main event=server_error err=%v", err)
				cancel()
			}
		}()
	}

	<-ctx.Done()
	log.Println("component=main event=shutting_down")
	if !headless {
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Printf("component=main event=forced_shutdown err=%v", err)
		}
	}
	log.Println("component=main event=exited")
	return nil
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	// Environment overrides for deployment knobs.
	if v := os.Getenv("OSRM_SERVER_URL"); v != "" {
		cfg.OSRMURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	return cfg, nil
}

// buildRouteCache picks the route-estimate cache backend from the
// environment: Postgres when DATABASE_URL is set, Redis when REDIS_ADDR is
// set, otherwise no cache. The simulation runs fine without one.
func buildRouteCache() (ports.RouteCache, func(), error) {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		sqlDB, err := db.Open(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open route cache db: %w", err)
		}
		c := cache.NewSQLRouteCache(sqlDB)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.InitSchema(ctx); err != nil {
			sqlDB.Close()
			return nil, nil, err
		}
		log.Println("component=main event=route_cache backend=postgres")
		return c, func() { sqlDB.Close() }, nil
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		log.Println("component=main event=route_cache backend=redis")
		return cache.NewRedisRouteCache(client, 24*time.Hour), func() { client.Close() }, nil
	}

	return nil, func() {}, nil
}
