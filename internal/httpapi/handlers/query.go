package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/suPer8Hu/pneuma-api/internal/common"
	"github.com/suPer8Hu/pneuma-api/internal/discovery"
	"github.com/suPer8Hu/pneuma-api/internal/querylog"
	"github.com/suPer8Hu/pneuma-api/internal/session"
)

const (
	defaultK     = 5
	defaultN     = 5
	defaultAlpha = 0.5
)

type queryReq struct {
	Query     string   `json:"query" binding:"required"`
	IndexName string   `json:"index_name"`
	K         *int     `json:"k" binding:"omitnil,gte=1,lte=20"`
	N         *int     `json:"n" binding:"omitnil,gte=1,lte=20"`
	Alpha     *float64 `json:"alpha" binding:"omitnil,gte=0,lte=1"`
	SessionID *string  `json:"session_id"`
}

func (r queryReq) toRequest() discovery.Request {
	out := discovery.Request{
		Query:     r.Query,
		IndexName: strings.TrimSpace(r.IndexName),
		K:         defaultK,
		N:         defaultN,
		Alpha:     defaultAlpha,
	}
	if r.K != nil {
		out.K = *r.K
	}
	if r.N != nil {
		out.N = *r.N
	}
	if r.Alpha != nil {
		out.Alpha = *r.Alpha
	}
	if r.SessionID != nil {
		out.SessionID = strings.TrimSpace(*r.SessionID)
	}
	return out
}

func (h *Handler) Query(c *gin.Context) {
	var req queryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailure(c, err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		fail(c, http.StatusBadRequest, common.CodeInvalidRequest, "invalid field: query")
		return
	}

	ctx := c.Request.Context()
	dreq := req.toRequest()

	resp, err := h.Discovery.Query(ctx, dreq)
	if err != nil {
		if errors.Is(err, discovery.ErrEngineUnavailable) {
			h.Metrics.ObserveQuery("unavailable", 0)
			fail(c, http.StatusServiceUnavailable, common.CodeEngineUnavailable, "pneuma service not initialized")
			return
		}
		h.Metrics.ObserveQuery("error", 0)
		log.Ctx(ctx).Error().Err(err).Str("query", dreq.Query).Msg("query execution failed")
		fail(c, http.StatusInternalServerError, common.CodeInternal, "query failed")
		return
	}

	if dreq.SessionID != "" {
		h.Sessions.Append(ctx, dreq.SessionID, dreq.Query,
			session.NewSummary(resp.TotalResults, resp.SearchTimeMS, resp.TableNames()))
	}
	h.record(c, dreq, resp)
	h.Metrics.ObserveQuery("ok", time.Duration(resp.SearchTimeMS*float64(time.Millisecond)))

	log.Ctx(ctx).Info().
		Str("query", dreq.Query).
		Int("results_count", resp.TotalResults).
		Float64("search_time_ms", resp.SearchTimeMS).
		Msg("query executed successfully")

	c.JSON(http.StatusOK, resp)
}

// record hands the query to the query log. Failures are logged only.
func (h *Handler) record(c *gin.Context, req discovery.Request, resp *discovery.Response) {
	if h.Recorder == nil {
		return
	}
	ctx := c.Request.Context()
	index := req.IndexName
	if index == "" {
		index = h.Discovery.DefaultIndex()
	}
	ev, err := querylog.NewEvent(req.SessionID, index, req.Query, resp.TotalResults, resp.SearchTimeMS)
	if err == nil {
		err = h.Recorder.Record(ctx, ev)
	}
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("query event not recorded")
	}
}

func (h *Handler) SessionHistory(c *gin.Context) {
	sid := c.Param("session_id")
	c.JSON(http.StatusOK, gin.H{
		"session_id": sid,
		"queries":    h.Sessions.History(c.Request.Context(), sid),
	})
}
