package proxy

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/feitianbubu/aistudio"
)

// Handler serves artifacts fetched through a Fetcher over HTTP
type Handler struct {
	fetcher *Fetcher
	logger  *log.Logger
}

// NewHandler creates a new handler
func NewHandler(fetcher *Fetcher, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Handler{fetcher: fetcher, logger: logger}
}

// Register mounts the proxy routes on r
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/api/download", h.Download)
	r.GET("/healthz", h.Healthz)
}

// NewRouter returns an engine with the proxy routes, request logging to
// logger and panic recovery
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.LoggerWithWriter(h.logger.Writer()), gin.Recovery())
	h.Register(r)
	return r
}

// Download handles GET /api/download?url=<artifact>
func (h *Handler) Download(c *gin.Context) {
	artifact, err := h.fetcher.Fetch(c.Request.Context(), c.Query("url"))
	if err != nil {
		status, msg := statusFor(err)
		h.logger.Printf("download failed (%d): %v", status, err)
		c.String(status, msg)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+artifact.Filename+`"`)
	c.Header("Content-Length", strconv.Itoa(len(artifact.Data)))
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET")
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

// Healthz handles GET /healthz
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// statusFor maps a fetch error onto the response status and body text
func statusFor(err error) (int, string) {
	var (
		validationErr  *aistudio.ValidationError
		contentTypeErr *aistudio.InvalidContentTypeError
		remoteErr      *aistudio.RemoteError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Message
	case errors.As(err, &contentTypeErr):
		return http.StatusBadRequest, "Invalid content type"
	case errors.Is(err, aistudio.ErrEmptyPayload):
		return http.StatusBadRequest, "Empty response received"
	case errors.As(err, &remoteErr):
		return remoteErr.Status, remoteErr.Message
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
