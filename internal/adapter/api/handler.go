package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/couchcryptid/weather-station-ingest/internal/domain"
	"github.com/couchcryptid/weather-station-ingest/internal/observability"
	"github.com/couchcryptid/weather-station-ingest/internal/pipeline"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sourceHTTP = "http"

// Handler serves the ingestion and lookup endpoints.
type Handler struct {
	ingester Ingester
	finder   RecordFinder
	uploads  UploadOptions
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewHandler creates a Handler.
func NewHandler(ingester Ingester, finder RecordFinder, uploads UploadOptions, logger *slog.Logger, metrics *observability.Metrics) *Handler {
	return &Handler{
		ingester: ingester,
		finder:   finder,
		uploads:  uploads,
		logger:   logger,
		metrics:  metrics,
	}
}

// Upload accepts a multipart form with an image in "file" and the flat sensor
// fields as form values.
func (h *Handler) Upload(c *gin.Context) {
	if h.uploads.MaxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploads.MaxBytes)
	}
	form, err := c.MultipartForm()
	if err != nil {
		h.reject(c, "malformed_form", err)
		return
	}

	headers := form.File["file"]
	if len(headers) == 0 {
		h.reject(c, "missing_file", ErrMissingFile)
		return
	}
	fields := formFields(form)
	if !hasMetadata(fields) {
		h.reject(c, "missing_metadata", ErrMissingMetadata)
		return
	}

	uploadID := uuid.NewString()
	stored, err := saveUpload(h.uploads, uploadID, headers[0])
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFile):
			h.reject(c, "missing_file", err)
		case errors.Is(err, ErrUnsupportedExtension):
			h.reject(c, "unsupported_extension", err)
		case errors.Is(err, ErrInvalidImage):
			h.reject(c, "invalid_image", err)
		default:
			h.logger.Error("save upload failed", "upload_id", uploadID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store upload"})
		}
		return
	}

	att := domain.Attachment{
		Source:     sourceHTTP,
		UploadID:   uploadID,
		Filename:   stored.Filename,
		StoredPath: stored.StoredPath,
		Image:      &stored.Image,
	}
	rec, err := h.ingester.Ingest(c.Request.Context(), fields, att)
	if err != nil {
		// A storage failure may follow a partial save that references the file.
		if rejected(err) {
			if rmErr := os.Remove(stored.StoredPath); rmErr != nil {
				h.logger.Warn("remove rejected upload", "path", stored.StoredPath, "error", rmErr)
			}
		}
		h.writeIngestError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// rejected reports whether err means the submission never reached a loader.
func rejected(err error) bool {
	var verr *domain.ValidationError
	return errors.As(err, &verr) || errors.Is(err, pipeline.ErrMalformedPayload)
}

// IngestReading accepts a flat JSON payload.
func (h *Handler) IngestReading(c *gin.Context) {
	fields, ok := h.decodeBody(c)
	if !ok {
		return
	}
	rec, err := h.ingester.Ingest(c.Request.Context(), domain.RawPayload(fields), domain.Attachment{Source: sourceHTTP})
	if err != nil {
		h.writeIngestError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// IngestRecord accepts an already nested candidate record.
func (h *Handler) IngestRecord(c *gin.Context) {
	candidate, ok := h.decodeBody(c)
	if !ok {
		return
	}
	rec, err := h.ingester.IngestStructured(c.Request.Context(), candidate, domain.Attachment{Source: sourceHTTP})
	if err != nil {
		h.writeIngestError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// ListRecords returns a sensor's newest records. The store applies the
// default and maximum limit.
func (h *Handler) ListRecords(c *gin.Context) {
	limit := 0
	if q := c.Query("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	sensorID := c.Param("id")
	records, err := h.finder.FindBySensorID(c.Request.Context(), sensorID, limit)
	if err != nil {
		h.logger.Error("find records failed", "sensor_id", sensorID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "record lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sensor_id": sensorID,
		"count":     len(records),
		"records":   records,
	})
}

func (h *Handler) decodeBody(c *gin.Context) (map[string]any, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.reject(c, "unreadable_body", err)
		return nil, false
	}
	fields, err := pipeline.DecodePayload(body)
	if err != nil {
		h.reject(c, "malformed_payload", err)
		return nil, false
	}
	return fields, true
}

func (h *Handler) reject(c *gin.Context, reason string, err error) {
	h.metrics.UploadsRejected.WithLabelValues(reason).Inc()
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (h *Handler) writeIngestError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "validation failed",
			"errors": verr.Errors,
		})
	case errors.Is(err, pipeline.ErrMalformedPayload):
		h.reject(c, "malformed_payload", err)
	case errors.Is(err, pipeline.ErrStore):
		c.JSON(http.StatusBadGateway, gin.H{"error": "storage unavailable"})
	default:
		h.logger.Error("ingest failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
