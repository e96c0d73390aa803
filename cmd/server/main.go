package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/edgee-ai/matomo-component/internal/config"
	"github.com/edgee-ai/matomo-component/internal/enrich"
	"github.com/edgee-ai/matomo-component/internal/forward"
	"github.com/edgee-ai/matomo-component/internal/logger"
	"github.com/edgee-ai/matomo-component/internal/metrics"
	"github.com/edgee-ai/matomo-component/internal/server"

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
)

func main() {

	// ====================================================================
	// .env (로컬 개발용). 파일이 없으면 그냥 환경변수만 쓴다.
	// ====================================================================
	_ = godotenv.Load()

	// ====================================================================
	// CPU 설정
	// ====================================================================
	//
	// 컨테이너 vCPU 가 1 미만인 환경에서 GOMAXPROCS 기본값(호스트 코어 수)은
	// 스케줄링 낭비로 이어진다. 기본 1, GOMAXPROCS 로 재정의 가능.
	// ====================================================================
	if v := os.Getenv("GOMAXPROCS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			runtime.GOMAXPROCS(n)
		}
	} else {
		runtime.GOMAXPROCS(1)
	}

	// ====================================================================
	// Config / Logger / Metrics
	// ====================================================================
	cfg := config.Load()
	logger.Init(cfg)
	m := metrics.New()

	// 설정 오류는 요청마다 500 이 되므로 시작 시점에 먼저 알린다 (종료는 하지 않음).
	if _, err := config.ParseSettings(cfg.SettingsDict()); err != nil {
		zlog.Error().Err(err).Msg("matomo settings invalid, every event will fail")
	}

	// ====================================================================
	// GeoIP (선택)
	// ====================================================================
	var geo enrich.Locator
	if cfg.GeoIPDBPath != "" {
		g, err := enrich.OpenGeoIP(cfg.GeoIPDBPath)
		if err != nil {
			zlog.Fatal().Err(err).Msg("geoip init failed")
		}
		defer g.Close()
		geo = g
	}

	// ====================================================================
	// Forward dispatcher (선택)
	// ====================================================================
	//
	// 비활성화면 /v1/* 는 요청 명세만 돌려주고 실제 전송은 호스트가 한다.
	// ====================================================================
	var (
		dispatcher *forward.Dispatcher
		fwd        server.Enqueuer
	)
	if cfg.ForwardEnabled {
		dispatcher = forward.New(cfg, m)
		dispatcher.Start()
		fwd = dispatcher
	}

	// ====================================================================
	// HTTP
	// ====================================================================
	h := server.NewHandler(cfg, m, fwd, geo)

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Content-Encoding"}),
	)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      cors(server.NewRouter(h)),
		ReadTimeout:  8 * time.Second,
		WriteTimeout: 8 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ====================================================================
	// Graceful Shutdown
	// ====================================================================
	//
	// SIGTERM 수신 시 HTTP 서버를 먼저 멈추고(신규 요청 차단)
	// 이후 dispatcher 에 남은 요청을 모두 보낸 뒤 종료한다.
	// ====================================================================
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

		sig := <-sigCh
		zlog.Info().Str("signal", sig.String()).Msg("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			zlog.Error().Err(err).Msg("http shutdown")
		}
	}()

	zlog.Info().
		Str("addr", cfg.HTTPAddr).
		Bool("forward", cfg.ForwardEnabled).
		Bool("geoip", geo != nil).
		Msg("matomo component listening")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zlog.Fatal().Err(err).Msg("http server terminated")
	}
	<-done

	if dispatcher != nil {
		zlog.Info().Msg("draining forward queue")
		dispatcher.Shutdown()
	}
	zlog.Info().Str("metrics", m.String()).Msg("shutdown complete")
}
