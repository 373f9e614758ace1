// Package api provides the REST status API for joycon2midi
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/james-see/joycon2midi/pkg/bridge"
	"github.com/james-see/joycon2midi/pkg/joycon"
	"github.com/james-see/joycon2midi/pkg/translator"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title Joycon2MIDI API
// @version 1.0
// @description Status and translation API for the Joy-Con to MIDI bridge
// @host localhost:8080
// @BasePath /api/v1

// Translate request limits
const (
	maxTranslateSnapshots = 10000
	maxTranslateBytes     = 16 << 20
)

// Provider is the bridge state the API exposes
type Provider interface {
	Stats() bridge.Stats
	Channels() []translator.ChannelSpec
	MIDIChannel() int
}

// ChannelMapProvider serves a channel map without a running bridge
type ChannelMapProvider struct {
	Map     *translator.ChannelMap
	Channel int
}

func (p ChannelMapProvider) Stats() bridge.Stats                { return bridge.Stats{} }
func (p ChannelMapProvider) Channels() []translator.ChannelSpec { return p.Map.Specs() }
func (p ChannelMapProvider) MIDIChannel() int                   { return p.Channel }

type server struct {
	p   Provider
	log *zap.Logger
}

// NewRouter builds the API routes for p
func NewRouter(p Provider, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	s := &server{p: p, log: log}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/channels", s.listChannels)
		v1.GET("/status", s.status)
		v1.GET("/events", s.recentEvents)
		v1.POST("/translate", s.translate)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// StartServer serves the API on addr until the listener fails
func StartServer(addr string, p Provider, log *zap.Logger) error {
	return NewRouter(p, log).Run(addr)
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "joycon2midi",
	})
}

type channelResponse struct {
	Name        string `json:"name"`
	Mode        string `json:"mode"`
	Destination uint8  `json:"destination"`
	Gate        string `json:"gate,omitempty"`
}

// listChannels godoc
// @Summary List mapped channels
// @Description Returns the logical channels being translated and the recognized channel names
// @Tags info
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/channels [get]
func (s *server) listChannels(c *gin.Context) {
	specs := s.p.Channels()
	out := make([]channelResponse, 0, len(specs))
	for _, spec := range specs {
		r := channelResponse{Name: spec.Name, Mode: spec.Mode.String(), Destination: spec.Destination}
		if spec.Mode == translator.ModeGated {
			r.Gate = spec.Gate.String()
		}
		out = append(out, r)
	}
	c.JSON(http.StatusOK, gin.H{
		"midi_channel": s.p.MIDIChannel(),
		"channels":     out,
		"recognized":   translator.Describe(),
	})
}

// status godoc
// @Summary Bridge status
// @Description Returns battery, counters and the last snapshot of the running bridge
// @Tags status
// @Produce json
// @Success 200 {object} bridge.Stats
// @Router /api/v1/status [get]
func (s *server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.p.Stats())
}

// recentEvents godoc
// @Summary Recent events
// @Description Returns the most recently sent MIDI events, oldest first
// @Tags status
// @Produce json
// @Success 200 {object} map[string][]translator.Event
// @Router /api/v1/events [get]
func (s *server) recentEvents(c *gin.Context) {
	events := s.p.Stats().Recent
	if events == nil {
		events = []translator.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// translate godoc
// @Summary Translate snapshots
// @Description Runs a fresh engine over a list of status documents. The first document seeds the engine state; the events of every later document are returned.
// @Tags translate
// @Accept json
// @Produce json
// @Param snapshots body []object true "Status documents, oldest first"
// @Success 200 {object} map[string][][]translator.Event
// @Failure 400 {object} map[string]string
// @Failure 413 {object} map[string]string
// @Router /api/v1/translate [post]
func (s *server) translate(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxTranslateBytes)

	var raw []json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a JSON array of status documents"})
		return
	}
	if len(raw) == 0 || len(raw) > maxTranslateSnapshots {
		c.JSON(http.StatusBadRequest, gin.H{"error": "need between 1 and 10000 status documents"})
		return
	}

	snapshots := make([]joycon.Snapshot, len(raw))
	for i, doc := range raw {
		if err := json.Unmarshal(doc, &snapshots[i]); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "index": i})
			return
		}
	}

	cm, err := translator.Build(rawMapping(s.p.Channels()), modeOptions(s.p.Channels())...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	engine, err := translator.NewEngine(cm, s.p.MIDIChannel(), snapshots[0])
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	batches := make([][]translator.Event, 0, len(snapshots)-1)
	for _, snap := range snapshots[1:] {
		events := engine.Process(snap)
		if events == nil {
			events = []translator.Event{}
		}
		batches = append(batches, events)
	}
	c.JSON(http.StatusOK, gin.H{"batches": batches})
}

func rawMapping(specs []translator.ChannelSpec) map[string]int {
	m := make(map[string]int, len(specs))
	for _, spec := range specs {
		m[spec.Name] = int(spec.Destination)
	}
	return m
}

func modeOptions(specs []translator.ChannelSpec) []translator.Option {
	var opts []translator.Option
	for _, spec := range specs {
		if spec.Mode == translator.ModeContinuousAlways || spec.Mode == translator.ModeContinuousOnChange {
			opts = append(opts, translator.WithMode(spec.Name, spec.Mode))
		}
	}
	return opts
}
