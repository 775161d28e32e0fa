package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/scenereveal/backend-go/internal/api"
	"github.com/scenereveal/backend-go/internal/asset"
	"github.com/scenereveal/backend-go/internal/auth"
	"github.com/scenereveal/backend-go/internal/bridge"
	"github.com/scenereveal/backend-go/internal/config"
	"github.com/scenereveal/backend-go/internal/deck"
	"github.com/scenereveal/backend-go/internal/height"
	mw "github.com/scenereveal/backend-go/internal/middleware"
	"github.com/scenereveal/backend-go/internal/reveal"
	"github.com/scenereveal/backend-go/internal/scene"
	"github.com/scenereveal/backend-go/internal/sequencer"
	"github.com/scenereveal/backend-go/internal/slide"
	"github.com/scenereveal/backend-go/internal/tween"
)

func main() {
	issue := flag.String("token", "", "print a bearer token for the given subject and exit")
	writeDeck := flag.String("write-deck", "", "write the active deck (DECK_PATH or the built-in one) as YAML to the given path and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	authService := auth.NewService(cfg.JWTSecret, cfg.AuthDisabled)

	d, err := deck.Load(cfg.DeckPath)
	if err != nil {
		slog.Error("load deck", "error", err, "path", cfg.DeckPath)
		os.Exit(1)
	}

	switch {
	case *issue != "":
		token, err := authService.IssueToken(*issue)
		if err != nil {
			slog.Error("issue token", "error", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	case *writeDeck != "":
		if err := deck.Write(d, *writeDeck); err != nil {
			slog.Error("write deck", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sc := scene.New(d, scene.Options{
		ExclusionMode: scene.ExclusionMode(cfg.ExclusionMode),
		FrameMargin:   500,
	})

	hub := bridge.NewHub(sc)
	sc.SetObserver(hub)
	go hub.Run(ctx)

	slides := slide.NewController(hub, hub, sc, slide.Config{
		Mode:          slide.Mode(cfg.TransitionMode),
		DimOpacity:    cfg.DimOpacity,
		CameraTimeout: cfg.CameraTimeout,
		SettleTimeout: cfg.SettleTimeout,
	})

	revealCfg := reveal.DefaultConfig()
	revealCfg.LeadIn = cfg.LeadIn
	revealCfg.PeakAlpha = cfg.FadePeak
	revealCfg.Clock = tween.RealTime(cfg.FrameInterval)
	revealCfg.Color = d.Mask.Color
	revealCfg.PathSize = d.Mask.PathSize
	revealCfg.OutlineWidth = d.Mask.OutlineWidth
	animator := reveal.NewAnimator(sc.Highlight(), sc, d.MaskPolygon(), revealCfg)

	seq := sequencer.New(sequencer.Deps{
		Deck:      d,
		Slides:    slides,
		Animator:  animator,
		Masker:    sc,
		Highlight: sc.Highlight(),
	}, sequencer.Config{
		MaskAnimationDuration: cfg.MaskAnimationDuration,
		RunTimeout:            cfg.RunTimeout,
	})

	heights := height.NewEngine()
	apiHandler := api.NewHandler(d, sc, seq, heights, hub, slides.Mode())
	assetHandler := asset.NewHandler(cfg.AssetDir, sc, heights, d.MaskPolygon().Extent().Center())

	var tokens bridge.TokenValidator
	if authService.Enabled() {
		tokens = authService
	}
	viewerHandler := bridge.NewHandler(hub, tokens, cfg.Origins())

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Model files are public so the viewer can load them directly
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	// Protected API routes
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(authService.AuthMiddleware)
	apiHandler.Routes(protected)

	r.Handle("/assets/upload", authService.AuthMiddleware(http.HandlerFunc(assetHandler.Upload))).Methods("POST", "OPTIONS")

	// Viewer WebSocket
	r.Handle("/ws/viewer", viewerHandler)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		if err := seq.Cancel(); err == nil {
			slog.Info("cancelled running presentation")
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "deck", d.WebSceneID, "mode", slides.Mode(), "auth", authService.Enabled())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
