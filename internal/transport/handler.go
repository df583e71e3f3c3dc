package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anime-shed/image-quality-go/internal/config"
	apperrors "github.com/anime-shed/image-quality-go/internal/errors"
	"github.com/anime-shed/image-quality-go/internal/logger"
	"github.com/anime-shed/image-quality-go/internal/service"
	"github.com/anime-shed/image-quality-go/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Version is reported by the health endpoint.
var Version = "1.0.0"

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

const uploadField = "image"

func NewHandler(svc service.QualityService, cfg *config.Config) http.Handler {
	r := gin.Default()

	// Add middleware
	r.Use(
		requestID(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	r.GET("/metrics", metrics(svc))
	r.POST("/analyze", analyzeImage(svc, cfg))
	r.POST("/analyze/batch", analyzeBatch(svc, cfg))

	return r
}

func analyzeImage(svc service.QualityService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()
		log := logger.FromContext(ctx)

		var (
			resp *models.QualityResponse
			err  error
		)
		if isMultipart(c) {
			resp, err = analyzeUpload(ctx, c, svc)
		} else {
			var req models.AnalyzeRequest
			if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
				respondBindError(c, bindErr)
				return
			}
			if d, ok := detailedQuery(c); ok {
				req.Detailed = d
			}
			log.WithField("detailed", req.Detailed).Debug("Analyzing image by URL")
			resp, err = svc.Analyze(ctx, req)
		}
		if err != nil {
			c.Error(err).SetMeta("image analysis failed")
			return
		}

		log.WithFields(logrus.Fields{
			"quality":            resp.Quality,
			"accepted":           resp.Accepted,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Image analysis request completed")

		c.JSON(http.StatusOK, resp)
	}
}

func analyzeUpload(ctx context.Context, c *gin.Context, svc service.QualityService) (*models.QualityResponse, error) {
	fileHeader, err := c.FormFile(uploadField)
	if err != nil {
		if isBodyTooLarge(err) {
			return nil, apperrors.NewPayloadTooLargeError("request body too large", err)
		}
		return nil, apperrors.NewValidationError(fmt.Sprintf("multipart field %q is required", uploadField), err)
	}

	detailed, _ := strconv.ParseBool(c.PostForm("detailed"))
	if d, ok := detailedQuery(c); ok {
		detailed = d
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to open upload", err)
	}
	defer f.Close()

	logger.FromContext(ctx).WithFields(logrus.Fields{
		"filename": fileHeader.Filename,
		"size":     fileHeader.Size,
		"detailed": detailed,
	}).Debug("Analyzing uploaded image")
	return svc.AnalyzeUpload(ctx, fileHeader.Filename, f, detailed)
}

func analyzeBatch(svc service.QualityService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		if d, ok := detailedQuery(c); ok {
			req.Detailed = d
		}

		resp, err := svc.AnalyzeBatch(ctx, req)
		if err != nil {
			c.Error(err).SetMeta("batch analysis failed")
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func metrics(svc service.QualityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Metrics())
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "available",
		Version: Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/")
}

// detailedQuery reads ?detailed=, which takes precedence over the body.
func detailedQuery(c *gin.Context) (bool, bool) {
	v := c.Query("detailed")
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	return b, err == nil
}

// Middleware and helper functions

// requestID tags each request with an ID and stores a request-scoped log
// entry in its context.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)

		entry := logger.WithFields(logrus.Fields{
			"request_id": id,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"ip":         c.ClientIP(),
		})
		c.Request = c.Request.WithContext(logger.WithLogEntry(c.Request.Context(), entry))
		c.Next()
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// errorHandler renders the last error a handler attached with c.Error.
func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		last := c.Errors.Last()
		message, ok := last.Meta.(string)
		if !ok {
			message = "request processing failed"
		}
		appErr := apperrors.FromAnalysisError(last.Err)
		respondError(c, appErr.StatusCode, message, appErr)
	}
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func respondBindError(c *gin.Context, err error) {
	if isBodyTooLarge(err) {
		appErr := apperrors.NewPayloadTooLargeError("request body too large", err)
		respondError(c, appErr.StatusCode, "invalid request format", appErr)
		return
	}
	respondError(c, http.StatusBadRequest, "invalid request format", err)
}

func respondError(c *gin.Context, code int, message string, err error) {
	// Log the error with context
	entry := logger.FromContext(c.Request.Context()).WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request failed")
	}

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
