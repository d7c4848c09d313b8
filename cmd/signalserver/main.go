package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pairwire/match-app/internal/ban"
	"github.com/pairwire/match-app/internal/geo"
	"github.com/pairwire/match-app/internal/match"
	"github.com/pairwire/match-app/internal/messaging"
	"github.com/pairwire/match-app/internal/metrics"
	"github.com/pairwire/match-app/internal/moderation"
	"github.com/pairwire/match-app/internal/presence"
	"github.com/pairwire/match-app/internal/protocol"
	"github.com/pairwire/match-app/internal/ratelimit"
	"github.com/pairwire/match-app/internal/relay"
	"github.com/pairwire/match-app/internal/ws"
)

func main() {
	config := ws.DefaultServerConfig()

	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		config.ListenAddr = addr
	}
	if v := os.Getenv("WORKER_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.WorkerPoolSize = n
		}
	}
	if v := os.Getenv("MAX_CONNECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.MaxConnections = n
		}
	}
	if v := os.Getenv("READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.ReadTimeout = d
		}
	}
	if v := os.Getenv("WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.WriteTimeout = d
		}
	}

	metricsAddr := ":9090"
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		metricsAddr = v
	}

	matchConfig := match.DefaultConfig()
	if v := os.Getenv("GENDER_BROADEN_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			matchConfig.GenderBroadenDelay = d
		}
	}
	if v := os.Getenv("GLOBAL_BROADEN_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			matchConfig.GlobalBroadenDelay = d
		}
	}

	// --- NATS ---
	natsConfig := messaging.DefaultConfig()
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		natsConfig.URL = natsURL
	}
	natsConfig.Name = "pairwire-signalserver"
	natsClient, err := messaging.NewClient(natsConfig)
	if err != nil {
		log.Fatalf("failed to connect to NATS: %v", err)
	}

	// --- Redis ---
	redisAddr := "localhost:6379"
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		redisAddr = v
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	pingCancel()

	serverName, _ := os.Hostname()
	if v := os.Getenv("SERVER_NAME"); v != "" {
		serverName = v
	}
	if serverName == "" {
		serverName = "signal-1"
	}

	// --- Geography ---
	geoAPIURL := "http://ip-api.com/json"
	if v := os.Getenv("GEO_API_URL"); v != "" {
		geoAPIURL = v
	}
	var resolver geo.Resolver = geo.NewCache(rdb, geo.NewHTTPResolver(geoAPIURL))
	if v := os.Getenv("STATIC_COUNTRY"); v != "" {
		resolver = geo.Static(v)
	}

	// --- Moderation, presence, rate limiting ---
	banStore := ban.NewStore(rdb)
	gate := moderation.NewGate(banStore, natsClient)
	presenceStore := presence.NewStore(rdb, serverName)
	limiter := ratelimit.NewLimiter(rdb)

	log.Printf("Pairwire signaling server starting")
	log.Printf("  listen_addr:     %s", config.ListenAddr)
	log.Printf("  metrics_addr:    %s", metricsAddr)
	log.Printf("  worker_pool:     %d", config.WorkerPoolSize)
	log.Printf("  max_connections: %d", config.MaxConnections)
	log.Printf("  read_timeout:    %s", config.ReadTimeout)
	log.Printf("  write_timeout:   %s", config.WriteTimeout)
	log.Printf("  broaden_delays:  gender=%s global=%s", matchConfig.GenderBroadenDelay, matchConfig.GlobalBroadenDelay)
	log.Printf("  nats_url:        %s", natsConfig.URL)
	log.Printf("  redis_addr:      %s", redisAddr)
	log.Printf("  server_name:     %s", serverName)

	// Declare server early so closures can capture it.
	var server *ws.Server

	notifier := newClientNotifier(func(id string, data []byte) error {
		return server.SendMessage(id, data)
	}, presenceStore)
	hub := match.NewHub(matchConfig, gate, resolver, notifier, messaging.NewRecorder(natsClient))

	// The relay delivers opaque payloads to the target's connection under the
	// shared signal type with the sender in the "from" field.
	signalRelay := relay.New(hub, func(targetID, senderID string, payload json.RawMessage) error {
		data, err := protocol.NewServerMessage(protocol.TypeSignal, protocol.ServerSignalMsg{
			From:    senderID,
			Payload: payload,
		})
		if err != nil {
			return err
		}
		return server.SendMessage(targetID, data)
	})

	dispatcher := ws.NewMessageDispatcher(nil)

	sendError := func(conn *ws.Connection, code, message string) {
		data, err := protocol.NewServerMessage(protocol.TypeError, protocol.ErrorMsg{
			Code: code, Message: message,
		})
		if err != nil {
			return
		}
		_ = conn.WriteMessage(data)
	}

	// -----------------------------------------------------------------------
	// find_partner — enter the matching queue (or skip the current partner)
	// -----------------------------------------------------------------------
	dispatcher.Register(protocol.TypeFindPartner, func(conn *ws.Connection, msg interface{}) {
		findMsg, ok := msg.(protocol.FindPartnerMsg)
		if !ok {
			return
		}
		pid := conn.ID
		ctx := context.Background()

		if allowed, _ := limiter.Allow(ctx, pid, ratelimit.RuleFind); !allowed {
			sendError(conn, "rate_limited", "too many partner requests")
			return
		}

		filters := match.Filters{
			SelfGender:    match.ParseGender(findMsg.SelfGender),
			DesiredGender: match.ParseGender(findMsg.DesiredGender),
			SameCountry:   findMsg.SameCountry,
		}
		if err := hub.FindPartner(pid, filters); err != nil {
			log.Printf("find_partner participant=%s: %v", pid, err)
			sendError(conn, "not_registered", "participant not registered")
			return
		}

		ctx3, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_ = presenceStore.UpdateStatus(ctx3, pid, string(match.StatusQueued), "")
		cancel()

		log.Printf("find_partner participant=%s desired=%s same_country=%v",
			pid, filters.DesiredGender, filters.SameCountry)
	})

	// -----------------------------------------------------------------------
	// stop — leave the queue or end the current session
	// -----------------------------------------------------------------------
	dispatcher.Register(protocol.TypeStop, func(conn *ws.Connection, msg interface{}) {
		pid := conn.ID
		if err := hub.Stop(pid); err != nil {
			sendError(conn, "not_registered", "participant not registered")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_ = presenceStore.UpdateStatus(ctx, pid, string(match.StatusIdle), "")
		cancel()

		log.Printf("stop participant=%s", pid)
	})

	// -----------------------------------------------------------------------
	// signal — relay an opaque negotiation payload to the partner
	// -----------------------------------------------------------------------
	dispatcher.Register(protocol.TypeSignal, func(conn *ws.Connection, msg interface{}) {
		sigMsg, ok := msg.(protocol.SignalMsg)
		if !ok {
			return
		}
		pid := conn.ID

		if allowed, _ := limiter.Allow(context.Background(), pid, ratelimit.RuleSignal); !allowed {
			sendError(conn, "rate_limited", "too many signals")
			return
		}

		signalRelay.Relay(pid, sigMsg.TargetID, sigMsg.Payload)
	})

	// -----------------------------------------------------------------------
	// report — report another participant for abuse
	// -----------------------------------------------------------------------
	dispatcher.Register(protocol.TypeReport, func(conn *ws.Connection, msg interface{}) {
		repMsg, ok := msg.(protocol.ReportMsg)
		if !ok {
			return
		}
		pid := conn.ID
		ctx := context.Background()

		if allowed, _ := limiter.Allow(ctx, pid, ratelimit.RuleReport); !allowed {
			sendError(conn, "rate_limited", "too many reports")
			return
		}

		if err := hub.Report(ctx, pid, repMsg.TargetID, repMsg.Evidence); err != nil {
			if errors.Is(err, match.ErrNotFound) {
				sendError(conn, "not_registered", "participant not registered")
				return
			}
			log.Printf("report participant=%s target=%s: %v", pid, repMsg.TargetID, err)
			return
		}

		log.Printf("report participant=%s target=%s", pid, repMsg.TargetID)
	})

	// -----------------------------------------------------------------------
	// Admission — rate limit by address, consult the ban store, register.
	// -----------------------------------------------------------------------
	admit := func(conn *ws.Connection) (string, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		host, _, err := net.SplitHostPort(conn.RemoteAddr)
		if err != nil {
			host = conn.RemoteAddr
		}

		if allowed, _ := limiter.Allow(ctx, host, ratelimit.RuleConnect); !allowed {
			return "", fmt.Errorf("connection rate limit exceeded for %s", host)
		}

		// Register with the host only: ban records and offense counters are
		// keyed per client, and the ephemeral port changes every connect.
		pid, err := hub.Register(ctx, host)
		if err != nil {
			if errors.Is(err, match.ErrAdmissionDenied) {
				banned, remaining, reason := gate.BanInfo(ctx, host)
				if banned {
					data, berr := protocol.NewServerMessage(protocol.TypeBanned, protocol.BannedMsg{
						Duration: remaining,
						Reason:   reason,
					})
					if berr == nil {
						_ = conn.WriteMessage(data)
					}
				}
			}
			return "", err
		}

		pub, err := hub.Get(pid)
		if err != nil {
			return "", err
		}

		_ = presenceStore.Create(ctx, pid, pub.Country)

		data, err := protocol.NewServerMessage(protocol.TypeSessionCreated, protocol.SessionCreatedMsg{
			ParticipantID: pid,
			Country:       pub.Country,
		})
		if err == nil {
			if werr := conn.WriteMessage(data); werr != nil {
				log.Printf("failed to send session_created to %s: %v", pid, werr)
			}
		}

		return pid, nil
	}

	server = ws.NewServer(config, admit, dispatcher.Dispatch)
	dispatcher.SetServer(server)

	server.SetOnDisconnect(func(connID string) {
		hub.Disconnect(connID)

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := presenceStore.Delete(ctx, connID); err != nil {
			log.Printf("presence delete for %s: %v", connID, err)
		}
	})

	// -----------------------------------------------------------------------
	// Telemetry HTTP server: Prometheus metrics plus JSON snapshots.
	// -----------------------------------------------------------------------
	telemetryMux := http.NewServeMux()
	telemetryMux.Handle("/metrics", metrics.Handler())
	telemetryMux.HandleFunc("/telemetry/participants", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Count        int                      `json:"count"`
			QueueLen     int                      `json:"queue_len"`
			Participants []match.PublicParticipant `json:"participants"`
		}{
			Count:        hub.ParticipantCount(),
			QueueLen:     hub.QueueLen(),
			Participants: hub.Snapshot(),
		})
	})
	telemetryMux.HandleFunc("/telemetry/sessions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Recent []match.SessionClosed `json:"recent"`
		}{
			Recent: hub.RecentClosed(),
		})
	})

	telemetryServer := &http.Server{Addr: metricsAddr, Handler: telemetryMux}
	go func() {
		if err := telemetryServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("telemetry server error: %v", err)
		}
	}()

	// Graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, initiating graceful shutdown...", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = telemetryServer.Shutdown(shutdownCtx)
		cancel()

		natsClient.Close()
		if err := server.Shutdown(); err != nil {
			log.Printf("shutdown error: %v", err)
		}
		if err := rdb.Close(); err != nil {
			log.Printf("redis close error: %v", err)
		}
		os.Exit(0)
	}()

	if err := server.Start(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
