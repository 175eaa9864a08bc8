package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"maxcal/api"
	"maxcal/config"
	"maxcal/handlers"
	"maxcal/internal/kvstore"
	"maxcal/internal/schedapi"
	"maxcal/services/booking"
	"maxcal/services/grid"
	"maxcal/services/guest"
	"maxcal/services/onboarding"
	"maxcal/services/reminder"
	"maxcal/services/slots"
	"maxcal/services/usersettings"
	"maxcal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("timezone", zap.Error(err))
	}

	store, err := kvstore.New(afero.NewOsFs(), cfg.StorageDir)
	if err != nil {
		logger.Fatal("storage", zap.Error(err))
	}

	sched := schedapi.NewClient(schedapi.Config{
		BaseURL:  cfg.SchedAPIBaseURL,
		InitData: cfg.BotInitData,
		Name:     cfg.BotName,
		Username: cfg.BotUsername,
	}, store, logger.Named("schedapi"))

	gridService := grid.New(logger.Named("grid"))
	slotsService := slots.New(sched, logger.Named("slots"), loc)
	guestService := guest.New(sched, logger.Named("guest"))
	bookingService := booking.New(sched, slotsService, slotsService, logger.Named("booking"))
	settingsService := usersettings.New(sched, store, logger.Named("settings"))
	onboardingService := onboarding.New(sched, store, logger.Named("onboarding"))

	reminderService := reminder.New(sched, reminder.Config{
		AlertSpec: cfg.AlertCronSpec,
		DailySpec: cfg.DailyCronSpec,
	}, logger.Named("reminder"))
	if err := reminderService.Start(); err != nil {
		logger.Fatal("reminder dispatcher", zap.Error(err))
	}
	defer reminderService.Stop()

	calendarHandler := handlers.NewCalendarHandler(gridService, slotsService, guestService)
	guestHandler := handlers.NewGuestHandler(guestService)
	bookingHandler := handlers.NewBookingHandler(bookingService, guestService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	onboardingHandler := handlers.NewOnboardingHandler(onboardingService)

	writeLimiter := api.NewClientRateLimiter(rate.Every(cfg.WriteRateEvery), cfg.WriteRateBurst)

	router := utils.NewRouter()
	router.HandleFunc("/version", handlers.NewVersionHandler().GetVersion).Methods(http.MethodGet)

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(api.UserIdentityMiddleware())

	// Calendar grid
	apiRouter.HandleFunc("/calendar", calendarHandler.GetCalendar).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/calendar/shared/{calendarID}", calendarHandler.GetSharedCalendar).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/calendar/prev", calendarHandler.PrevMonth).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/calendar/next", calendarHandler.NextMonth).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/calendar/today", calendarHandler.GoToday).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/calendar/select", calendarHandler.SelectDay).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/days/{date}", calendarHandler.GetDay).Methods(http.MethodGet, http.MethodOptions)

	// Own events and availability
	apiRouter.HandleFunc("/events", api.RateLimitHandlerFunc(writeLimiter, bookingHandler.CreateEvent)).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/events/{slotID}", api.RateLimitHandlerFunc(writeLimiter, bookingHandler.DeleteEvent)).Methods(http.MethodDelete, http.MethodOptions)
	apiRouter.HandleFunc("/availability", api.RateLimitHandlerFunc(writeLimiter, bookingHandler.CreateAvailability)).Methods(http.MethodPost, http.MethodOptions)

	// Guest session
	apiRouter.HandleFunc("/guest", guestHandler.State).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/guest/init", guestHandler.Init).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/guest/exit", guestHandler.Exit).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/guest/pause", guestHandler.Pause).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/guest/resume", guestHandler.Resume).Methods(http.MethodPost, http.MethodOptions)

	// Booking flow
	apiRouter.HandleFunc("/booking", bookingHandler.State).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/booking/day", bookingHandler.OpenDay).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/booking/range", bookingHandler.SelectRange).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/booking/submit", api.RateLimitHandlerFunc(writeLimiter, bookingHandler.Submit)).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/booking/close", bookingHandler.Close).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/booking/overlay/close", bookingHandler.CloseOverlay).Methods(http.MethodPost, http.MethodOptions)

	// Settings
	apiRouter.HandleFunc("/settings", settingsHandler.GetSettings).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/settings", settingsHandler.PatchSettings).Methods(http.MethodPatch)
	apiRouter.HandleFunc("/settings/working-days/toggle", settingsHandler.ToggleWorkingDay).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/settings/drafts/{feature}", settingsHandler.GetDraft).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/settings/drafts/{feature}", settingsHandler.SaveDraft).Methods(http.MethodPut)
	apiRouter.HandleFunc("/settings/drafts/{feature}", settingsHandler.ResetDraft).Methods(http.MethodDelete)

	// Onboarding
	apiRouter.HandleFunc("/onboarding", onboardingHandler.State).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/onboarding/advance", onboardingHandler.Advance).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/onboarding/skip", onboardingHandler.Skip).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/onboarding/complete", onboardingHandler.Complete).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/onboarding/reset", onboardingHandler.Reset).Methods(http.MethodPost, http.MethodOptions)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	sink := zapcore.AddSync(os.Stdout)
	if cfg.LogFile != "" {
		sink = zapcore.NewMultiWriteSyncer(sink, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSize,
			MaxBackups: cfg.LogBackups,
			Compress:   true,
		}))
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), sink, level)
	return zap.New(core), nil
}
