package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/lotteryengine/internal/server/http/dto"
	"github.com/polkiloo/lotteryengine/internal/usecase"
)

func abortWithError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Success: false, Error: err.Error()})
}

func internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	abortWithError(c, http.StatusInternalServerError, err)
}

func toUnitErrors(errs []usecase.UnitError) []dto.UnitError {
	out := make([]dto.UnitError, 0, len(errs))
	for _, e := range errs {
		out = append(out, dto.UnitError{ID: e.ID, Label: e.Label, Error: e.Message, Timestamp: e.At})
	}
	return out
}

func toDrawResult(r usecase.DrawResult) dto.DrawResult {
	var steps []string
	for _, s := range r.FailedSteps {
		steps = append(steps, string(s))
	}
	return dto.DrawResult{
		RoundID:       r.RoundID,
		RoundNumber:   r.RoundNumber,
		WinnerUserID:  r.WinnerUserID,
		WinningNumber: r.WinningNumber,
		DrawTime:      r.DrawTime.UTC(),
		FailedSteps:   steps,
	}
}

func toResourceChange(c *usecase.ResourceChange) *dto.ResourceChange {
	if c == nil {
		return nil
	}
	return &dto.ResourceChange{ID: c.ID, Before: c.Before, After: c.After}
}
