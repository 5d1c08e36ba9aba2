package main

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/pflag"
	"github.com/wavelink-chat/wavelink-relay/config"
	"github.com/wavelink-chat/wavelink-relay/globals"
	"github.com/wavelink-chat/wavelink-relay/ws"
)

var (
	configPath = pflag.StringP("config", "c", "", "path to config file or directory")
	addr       = pflag.String("addr", "", "listen address (host:port), overrides the configured port")

	upgrader websocket.Upgrader
)

func main() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	go func() {
		<-c
		log.Fatal("interrupted!")
	}()

	flagSet := config.GetFlagSet()
	pflag.CommandLine.AddFlagSet(flagSet)
	pflag.Parse()
	log.SetFlags(0)

	globalConfig, err := config.ReadConfiguration(*configPath, flagSet)
	if err != nil {
		panic(err)
	}

	if globalConfig.LogLevel != "" {
		globals.AppLogger.SetLevel(hclog.LevelFromString(globalConfig.LogLevel))
	}

	hub := ws.NewHub(globalConfig)

	if globalConfig.StatsInterval != "" {
		runner, err := hub.StartStatsReporter(globalConfig.StatsInterval)
		if err != nil {
			globals.AppLogger.Error("could not start stats reporter", "error", err)
		} else {
			defer runner.Stop()
		}
	}

	setupRoutes(hub, globalConfig)

	listenAddr := *addr
	if listenAddr == "" {
		listenAddr = globalConfig.Addr()
	}
	globals.AppLogger.Info("listening", "addr", listenAddr, "origins", globalConfig.AllowedOrigins())
	err = http.ListenAndServe(listenAddr, nil)
	globals.AppLogger.Error("stopped listening", "error", err)
}

func setupRoutes(hub *ws.Hub, cfg *config.Config) {
	checker := newOriginChecker(cfg.AllowedOrigins())
	upgrader.CheckOrigin = checker.allowRequest

	router := mux.NewRouter()
	router.Use(corsMiddleware(checker))
	router.HandleFunc("/socket", func(w http.ResponseWriter, r *http.Request) {
		websocketHandler(hub, w, r)
	}).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	router.HandleFunc("/api/online", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, hub.Presence.AllUserIDs())
	}).Methods(http.MethodGet)
	router.HandleFunc("/api/rooms", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, hub.Rooms.Counts())
	}).Methods(http.MethodGet)
	router.HandleFunc("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, hub.GetStats())
	}).Methods(http.MethodGet)
	router.HandleFunc("/api/recent", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, hub.RecentMessages())
	}).Methods(http.MethodGet)
	http.Handle("/", router)
}

// Handle incoming websockets
func websocketHandler(hub *ws.Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		globals.AppLogger.Error("websocket upgrade error", "error", err)
		return
	}

	client := ws.NewClient(hub, conn)
	hub.Register(client)
	go client.WriteLoop()
	// the read loop owns the connection; it unregisters the client and
	// triggers the presence/room cleanup when the connection drops
	client.ReadLoop()
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		globals.AppLogger.Error("could not write response", "error", err)
	}
}

// originChecker enforces the configured client-origin allow-list on both the
// websocket upgrade and the admin API.
type originChecker struct {
	allowAll bool
	origins  map[string]struct{}
}

func newOriginChecker(configured []string) *originChecker {
	checker := &originChecker{origins: make(map[string]struct{})}
	for _, origin := range configured {
		if origin == "*" {
			checker.allowAll = true
			continue
		}
		if normalized, ok := normalizeOrigin(origin); ok {
			checker.origins[normalized] = struct{}{}
		} else {
			globals.AppLogger.Warn("ignoring invalid configured origin", "origin", origin)
		}
	}
	return checker
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

func (oc *originChecker) allowOrigin(origin string) bool {
	if oc.allowAll {
		return true
	}
	normalized, ok := normalizeOrigin(origin)
	if !ok {
		return false
	}
	_, allowed := oc.origins[normalized]
	return allowed
}

func (oc *originChecker) allowRequest(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// non-browser clients do not send an Origin header
		return true
	}
	if oc.allowOrigin(origin) {
		return true
	}
	globals.AppLogger.Warn("blocked connection from disallowed origin", "origin", origin)
	return false
}

// corsMiddleware mirrors the configured origin back to the browser,
// credentials allowed, GET/POST only.
func corsMiddleware(checker *originChecker) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" && checker.allowOrigin(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST")
			}
			next.ServeHTTP(w, r)
		})
	}
}
