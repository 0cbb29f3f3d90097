package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/teetime-booking/internal/bookingsync"
	"github.com/iliyamo/teetime-booking/internal/clock"
	"github.com/iliyamo/teetime-booking/internal/config"
	"github.com/iliyamo/teetime-booking/internal/database"
	"github.com/iliyamo/teetime-booking/internal/handler"
	"github.com/iliyamo/teetime-booking/internal/holdstore"
	"github.com/iliyamo/teetime-booking/internal/logging"
	"github.com/iliyamo/teetime-booking/internal/middleware"
	"github.com/iliyamo/teetime-booking/internal/payment"
	"github.com/iliyamo/teetime-booking/internal/pricecache"
	"github.com/iliyamo/teetime-booking/internal/provider"
	"github.com/iliyamo/teetime-booking/internal/provider/golfmanager"
	"github.com/iliyamo/teetime-booking/internal/provider/teeone"
	"github.com/iliyamo/teetime-booking/internal/provider/zest"
	"github.com/iliyamo/teetime-booking/internal/queue"
	"github.com/iliyamo/teetime-booking/internal/repository"
	"github.com/iliyamo/teetime-booking/internal/router"
	"github.com/iliyamo/teetime-booking/internal/service"
)

// priceGrace keeps Redis price keys around after their logical expiry so
// checkout can tell an expired price from one that was never quoted.
const priceGrace = 5 * time.Minute

func main() {
	_ = godotenv.Load() // .env is optional; real environments set variables directly

	cfg := config.Load()
	logging.Init(cfg.LogLevel, cfg.IsDev())

	if err := run(cfg); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}

func run(cfg config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Error("closing db")
		}
	}()
	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrating db: %w", err)
	}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	clk := clock.NewSystem()
	courses := repository.NewCourseRepo(db)
	links := repository.NewLinkRepo(db)
	bookings := repository.NewBookingRepo(db)
	holds := holdstore.New(clk, cfg.HoldTTL)

	var (
		prices      pricecache.Cache
		memoryCache *pricecache.Memory
	)
	if rdb != nil {
		prices = pricecache.NewRedis(rdb, clk, cfg.PriceTTL, priceGrace)
	} else {
		memoryCache = pricecache.NewMemory(clk, cfg.PriceTTL)
		prices = memoryCache
	}

	adapters := provider.Registry{
		provider.KindGolfmanager: golfmanager.New(golfmanager.Config{
			BaseURL:                cfg.Golfmanager.BaseURL,
			APIKey:                 cfg.Golfmanager.APIKey,
			DefaultKickbackPercent: cfg.Golfmanager.DefaultKickback,
		}),
		provider.KindTeeOne: teeone.New(teeone.Config{
			BaseURL:  cfg.TeeOne.BaseURL,
			Username: cfg.TeeOne.Username,
			Password: cfg.TeeOne.Password,
		}),
		provider.KindZest: zest.New(zest.Config{
			BaseURL:  cfg.Zest.BaseURL,
			Username: cfg.Zest.Username,
			Password: cfg.Zest.Password,
		}),
	}

	wmLogger := logging.NewWatermillLogger(logrus.WithField("component", "watermill"))
	pub, sub, err := bookingsync.NewPubSub(rdb, wmLogger)
	if err != nil {
		return err
	}
	processor := bookingsync.NewProcessor(bookings, courses, bookingsync.NewDispatcher(links, adapters))
	msgRouter, err := bookingsync.NewRouter(wmLogger, sub, processor)
	if err != nil {
		return fmt.Errorf("creating message router: %w", err)
	}

	var notifier service.Notifier = queue.LogPublisher{}
	if cfg.RabbitMQURL != "" {
		notifier = queue.NewPublisher(cfg.RabbitMQURL)
	}

	vouchers := service.Vouchers{Secret: cfg.JWTSecret, BaseURL: cfg.PublicBaseURL}
	payments := payment.NewLocal(cfg.PublicBaseURL, clk)
	orders := service.NewOrderService(service.OrderDeps{
		Holds:    holds,
		Prices:   prices,
		Courses:  courses,
		Links:    links,
		Bookings: bookings,
		Sync:     bookingsync.NewRequester(pub),
		Notifier: notifier,
		Vouchers: vouchers,
		Clock:    clk,
	})
	availability := service.NewAvailabilityService(courses, links, adapters, prices)
	checkout := service.NewCheckoutService(prices, courses, holds, orders, payments, cfg.PublicBaseURL, clk)

	e := newEcho(cfg, db, rdb, routes{
		courses:  &handler.CourseHandler{Courses: courses, Availability: availability},
		orders:   &handler.OrderHandler{Orders: orders},
		checkout: &handler.CheckoutHandler{Checkout: checkout, Payments: payments},
		vouchers: &handler.VoucherHandler{Vouchers: vouchers, Orders: orders, Courses: courses},
		admin: &handler.AdminHandler{
			Email:    cfg.AdminEmail,
			PassHash: cfg.AdminPassHash,
			Secret:   cfg.JWTSecret,
			TTLMin:   cfg.AdminTTLMin,
			Orders:   orders,
			Holds:    holds,
		},
	})

	g, runCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runMessageRouter(runCtx, msgRouter)
	})
	g.Go(func() error {
		return holds.Run(runCtx, cfg.HoldSweepInterval, cfg.HoldRetention)
	})
	if memoryCache != nil {
		g.Go(func() error {
			return memoryCache.Run(runCtx, cfg.PriceSweepInterval)
		})
	}
	if cfg.RabbitMQURL != "" {
		g.Go(func() error {
			return queue.StartBookingConsumer(runCtx, cfg.RabbitMQURL, queue.LogMailer{})
		})
	}

	g.Go(func() error {
		// Sync requests published before the router subscribes would be lost
		// on the in-process transport.
		select {
		case <-msgRouter.Running():
		case <-runCtx.Done():
			return nil
		}
		addr := ":" + cfg.Port
		logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "redis": rdb != nil}).Info("starting http server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("starting http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-runCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		logrus.Info("shutting down http server")
		if err := e.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
		orders.Wait()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logrus.Info("shutdown complete")
	return nil
}

func runMessageRouter(ctx context.Context, r *message.Router) error {
	if err := r.Run(ctx); err != nil {
		return fmt.Errorf("running message router: %w", err)
	}
	return nil
}

type routes struct {
	courses  *handler.CourseHandler
	orders   *handler.OrderHandler
	checkout *handler.CheckoutHandler
	vouchers *handler.VoucherHandler
	admin    *handler.AdminHandler
}

func newEcho(cfg config.Config, db *sqlx.DB, rdb *redis.Client, r routes) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())

	rl := config.LoadRateLimitConfig()
	limiter := middleware.NewTokenBucket(rl, rdb)
	loginLimiter := middleware.NewTokenBucket(rl.Login(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e, &handler.HealthHandler{DB: db, Redis: rdb})
	router.RegisterPublic(e, r.courses, cache)
	router.RegisterBooking(e, r.orders, r.checkout, r.vouchers, limiter)
	router.RegisterAdmin(e, r.admin, cfg.JWTSecret, loginLimiter)
	return e
}
