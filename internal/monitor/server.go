// Package monitor serves a read-only view of decoding sessions over HTTP.
package monitor

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/danmuck/prt7/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 5 * time.Second
	pingPeriod = 30 * time.Second
)

type Config struct {
	Addr        string
	CorsOrigins []string
}

type Server struct {
	cfg       Config
	hub       *Hub
	router    *gin.Engine
	upgrader  websocket.Upgrader
	startedAt time.Time
}

func NewServer(cfg Config, hub *Hub) *Server {
	gin.SetMode(gin.ReleaseMode)
	observability.RegisterMetrics()

	s := &Server{
		cfg:       cfg,
		hub:       hub,
		router:    gin.New(),
		startedAt: time.Now(),
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}

	s.router.Use(gin.Recovery())
	s.router.Use(observability.RequestLogger(log.Logger, func() string { return hub.Snapshot().Session }))
	s.router.Use(observability.RequestMetricsMiddleware())
	if len(cfg.CorsOrigins) > 0 {
		s.router.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CorsOrigins,
			AllowMethods: []string{"GET"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.startedAt).String(),
			"service": "prt7-monitor",
			"clients": s.hub.Clients(),
		})
	})
	s.router.GET("/state", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.hub.Snapshot())
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/ws", s.serveWS)
}

// Serve listens on cfg.Addr until ctx is done. The bound address is sent on
// ready, if non-nil, once the listener is open.
func (s *Server) Serve(ctx context.Context, ready chan<- net.Addr) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: s.router, ReadHeaderTimeout: 5 * time.Second}
	if ready != nil {
		ready <- ln.Addr()
	}
	log.Info().Str("addr", ln.Addr().String()).Msg("monitor_listen")

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) serveWS(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("monitor_upgrade_failed")
		return
	}
	events := s.hub.subscribe()
	log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("monitor_client_connected")

	go func() {
		defer s.hub.unsubscribe(events)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case ev, ok := <-events:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.cfg.CorsOrigins) == 0 {
		return true
	}
	for _, allowed := range s.cfg.CorsOrigins {
		if allowed == origin || allowed == "*" {
			return true
		}
	}
	return false
}
