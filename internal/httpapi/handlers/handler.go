package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/suPer8Hu/pneuma-api/internal/common"
	"github.com/suPer8Hu/pneuma-api/internal/config"
	"github.com/suPer8Hu/pneuma-api/internal/discovery"
	"github.com/suPer8Hu/pneuma-api/internal/metrics"
	"github.com/suPer8Hu/pneuma-api/internal/querylog"
	"github.com/suPer8Hu/pneuma-api/internal/session"
)

// Handler carries the services every route needs. All fields are set once at
// startup; Recorder, QueryLog and Metrics may be nil.
type Handler struct {
	Discovery *discovery.Service
	Sessions  *session.Manager
	Recorder  querylog.Recorder
	QueryLog  *querylog.Repo
	Metrics   *metrics.Metrics
	Cfg       config.Config
	StartedAt time.Time
}

func NewHandler(cfg config.Config, disc *discovery.Service, sessions *session.Manager) *Handler {
	return &Handler{
		Discovery: disc,
		Sessions:  sessions,
		Cfg:       cfg,
		StartedAt: time.Now(),
	}
}

func fail(c *gin.Context, httpStatus int, code int, msg string) {
	common.Fail(c, httpStatus, code, msg)
}

// bindFailure reports a request that failed JSON decoding or validation. Only
// the offending field names reach the client.
func bindFailure(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, jsonName(fe))
		}
		fail(c, http.StatusBadRequest, common.CodeInvalidRequest, "invalid field: "+strings.Join(fields, ", "))
		return
	}
	fail(c, http.StatusBadRequest, common.CodeInvalidRequest, "invalid request body")
}

func jsonName(fe validator.FieldError) string {
	switch fe.Field() {
	case "IndexName":
		return "index_name"
	case "SessionID":
		return "session_id"
	case "SampleSize":
		return "sample_size"
	default:
		return strings.ToLower(fe.Field())
	}
}
