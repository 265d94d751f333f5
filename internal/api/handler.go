package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mr1hm/go-resilience-dashboard/internal/locale"
	"github.com/mr1hm/go-resilience-dashboard/internal/mapview"
	"github.com/mr1hm/go-resilience-dashboard/internal/models"
	"github.com/mr1hm/go-resilience-dashboard/internal/stream"
)

type Handler struct {
	registry *mapview.Registry
	labels   *locale.Labels
	logger   *slog.Logger
}

func NewHandler(registry *mapview.Registry, labels *locale.Labels, logger *slog.Logger) *Handler {
	if labels == nil {
		labels = locale.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		registry: registry,
		labels:   labels,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/api/legend", h.legend)
	r.GET("/api/labels", h.getLabels)

	r.POST("/api/sessions", h.createSession)
	s := r.Group("/api/sessions/:id")
	s.GET("", h.getSession)
	s.DELETE("", h.deleteSession)
	s.POST("/retry", h.retry)
	s.GET("/map", h.getMap)
	s.GET("/search", h.getSearch)
	s.PUT("/search", h.putSearch)
	s.PUT("/panel", h.putPanel)
	s.PUT("/view", h.putView)
	s.POST("/select/:districtId", h.selectDistrict)
	s.POST("/features/:index/activate", h.activate)
	s.GET("/districts/:districtId", h.getDistrict)
	s.GET("/summary", h.getSummary)
	s.GET("/events", h.events)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": h.registry.Len()})
}

func (h *Handler) legend(c *gin.Context) {
	c.JSON(http.StatusOK, buildLegend(h.labels))
}

func (h *Handler) getLabels(c *gin.Context) {
	c.JSON(http.StatusOK, h.labels)
}

func (h *Handler) session(c *gin.Context) (*mapview.Session, bool) {
	s, err := h.registry.Get(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) createSession(c *gin.Context) {
	s, err := h.registry.Create(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service is shutting down"})
		return
	}
	c.JSON(http.StatusCreated, s.Status())
}

func (h *Handler) getSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Status())
}

func (h *Handler) deleteSession(c *gin.Context) {
	if err := h.registry.Delete(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) retry(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.Retry(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, s.Status())
}

func (h *Handler) getMap(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	fc, err := s.Render()
	if err != nil {
		h.respondError(c, err)
		return
	}
	writeGeoJSON(c, fc)
}

func (h *Handler) getSearch(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Picklist())
}

type searchRequest struct {
	Query string `json:"query"`
}

func (h *Handler) putSearch(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	p, err := s.SetQuery(req.Query)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// panelRequest without "open" toggles the panel.
type panelRequest struct {
	Open *bool `json:"open"`
}

func (h *Handler) putPanel(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req panelRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var (
		v   mapview.ViewState
		err error
	)
	if req.Open == nil {
		v, err = s.TogglePanel()
	} else {
		v, err = s.SetPanel(*req.Open)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

type viewRequest struct {
	Lat  *float64 `json:"lat" binding:"required,min=-90,max=90"`
	Lng  *float64 `json:"lng" binding:"required,min=-180,max=180"`
	Zoom *float64 `json:"zoom" binding:"required,min=0,max=22"`
}

func (h *Handler) putView(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req viewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	v, err := s.Pan(models.LatLng{Lat: *req.Lat, Lng: *req.Lng}, *req.Zoom)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) selectDistrict(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	id, err := strconv.Atoi(c.Param("districtId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid district id"})
		return
	}
	moved := s.FlyTo(id)
	c.JSON(http.StatusOK, gin.H{"moved": moved, "view": s.Status().View})
}

func (h *Handler) activate(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid feature index"})
		return
	}
	path, err := s.Activate(index)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if path == "" {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, gin.H{"navigate": path})
}

func (h *Handler) getDistrict(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	id, err := strconv.Atoi(c.Param("districtId"))
	if err != nil {
		h.respondError(c, mapview.ErrNotFound)
		return
	}
	d, err := s.Detail(id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) getSummary(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	sum, err := s.Summary()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// events streams session events as SSE. While at least one client is
// connected the session has a live map.
func (h *Handler) events(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	id, ch, err := s.Connect()
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer s.Disconnect(id)
	h.logger.Debug("stream client connected", "session_id", s.ID(), "client", id)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent(string(stream.EventState), s.Status())
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case e, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(string(e.Type), e.Data)
			return true
		case <-ctx.Done():
			return false
		}
	})
	h.logger.Debug("stream client disconnected", "session_id", s.ID(), "client", id)
}
