package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bekzodm/murojaat-desk/internal/api"
	"github.com/bekzodm/murojaat-desk/internal/auth"
	"github.com/bekzodm/murojaat-desk/internal/config"
	"github.com/bekzodm/murojaat-desk/internal/domain"
	"github.com/bekzodm/murojaat-desk/internal/repository/kv"
	redisrepo "github.com/bekzodm/murojaat-desk/internal/repository/redis"
	"github.com/bekzodm/murojaat-desk/internal/service/desk"
	"github.com/bekzodm/murojaat-desk/internal/service/notify"
	"github.com/bekzodm/murojaat-desk/internal/service/tickets"
	transportHttp "github.com/bekzodm/murojaat-desk/internal/transport/http"
	"github.com/bekzodm/murojaat-desk/internal/transport/http/middleware"
	"github.com/bekzodm/murojaat-desk/internal/transport/websocket"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.LoadConfig()

	// Durable store: Redis when configured and reachable, file otherwise.
	var store kv.Store
	var redisStore *redisrepo.Store
	if cfg.RedisAddr != "" {
		s, err := redisrepo.New(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Printf("[REDIS] Unavailable (%v), falling back to file store", err)
		} else {
			redisStore = s
			store = s
		}
	}
	if store == nil {
		store = kv.NewFile(cfg.StoragePath)
	}
	if redisStore != nil {
		defer redisStore.Close()
	}

	tokenStore := auth.NewTokenStore(store, api.NewRefresher(cfg.BackendURL+"/api"),
		auth.WithSafetyWindow(cfg.RefreshSafetyWindow),
		auth.WithCacheTTL(cfg.ExpiryCacheTTL),
		auth.WithLogoutHook(func() {
			log.Println("[AUTH] Session expired, re-login required")
		}),
	)

	apiClient := api.NewClient(cfg.APIBaseURL, tokenStore)
	notifyStore := notify.NewStore(store, cfg.NotificationCap)
	ticketStore := tickets.NewStore()
	deskService := desk.New(apiClient, notifyStore, ticketStore, func(n domain.Notification) {
		log.Printf("[NOTIFY] New appeal from %s (session %s)", n.CitizenName, n.SessionUUID)
	})

	realtime := websocket.NewManager(cfg.WSBaseURL, tokenStore, cfg.ReconnectDelay)
	defer realtime.TeardownAll()

	// Channels come up once a staff profile is available. If nobody is
	// logged in yet, the desk still serves the proxy and waits.
	if pair := tokenStore.Pair(); pair.Refresh != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		profile, err := apiClient.StaffProfile(ctx)
		cancel()
		if err != nil {
			log.Printf("[DESK] Could not load staff profile: %v", err)
		} else {
			ctx := context.Background()
			if err := realtime.ConnectDepartment(ctx, profile.DepartmentID, deskService.HandleDepartmentEvent); err != nil {
				log.Printf("[WS] Department connect failed, reconnect scheduled: %v", err)
			}
			if profile.Role == domain.RoleVIP {
				if err := realtime.ConnectVIP(ctx, deskService.HandleVIPEvent); err != nil {
					log.Printf("[WS] VIP connect failed, reconnect scheduled: %v", err)
				}
			}
		}
	}

	proxy := transportHttp.NewProxyHandler(cfg.BackendURL)
	router := transportHttp.NewRouter(proxy, middleware.CORSMiddleware(cfg.AllowedOrigins))

	srv := &http.Server{
		Addr:    ":" + cfg.ProxyPort,
		Handler: router,
	}

	go func() {
		log.Printf("Proxy listening on :%s", cfg.ProxyPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Desk is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Desk exited gracefully")
}
