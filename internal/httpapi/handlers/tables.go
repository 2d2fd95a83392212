package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/suPer8Hu/pneuma-api/internal/common"
	"github.com/suPer8Hu/pneuma-api/internal/discovery"
)

func (h *Handler) ListIndexes(c *gin.Context) {
	infos, err := h.Discovery.IndexInfos(c.Request.Context())
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to list indexes")
		fail(c, http.StatusInternalServerError, common.CodeInternal, "failed to retrieve indexes")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"indexes":       infos,
		"default_index": h.Discovery.DefaultIndex(),
	})
}

type tableQuery struct {
	IncludeSampleData *bool `form:"include_sample_data"`
	SampleSize        *int  `form:"sample_size" binding:"omitnil,gte=1,lte=100"`
}

func (h *Handler) TableDetails(c *gin.Context) {
	var q tableQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailure(c, err)
		return
	}
	include := true
	if q.IncludeSampleData != nil {
		include = *q.IncludeSampleData
	}
	size := 10
	if q.SampleSize != nil {
		size = *q.SampleSize
	}

	tableID := c.Param("table_id")
	t, err := h.Discovery.TableDetails(c.Request.Context(), tableID, include, size)
	if err != nil {
		if errors.Is(err, discovery.ErrTableNotFound) {
			fail(c, http.StatusNotFound, common.CodeTableNotFound, "table not found")
			return
		}
		log.Ctx(c.Request.Context()).Error().Err(err).Str("table_id", tableID).Msg("failed to get table details")
		fail(c, http.StatusInternalServerError, common.CodeInternal, "failed to retrieve table details")
		return
	}
	c.JSON(http.StatusOK, t)
}
