package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/lotteryengine/internal/domain/errors"
	"github.com/polkiloo/lotteryengine/internal/server/http/dto"
	"github.com/polkiloo/lotteryengine/internal/usecase"
)

// RoundHandler serves single round operations.
type RoundHandler struct {
	facade DrawFacade
}

// NewRoundHandler constructs RoundHandler.
func NewRoundHandler(facade DrawFacade) *RoundHandler {
	return &RoundHandler{facade: facade}
}

// Draw handles POST /api/rounds/:id/draw.
func (h *RoundHandler) Draw(c *gin.Context) {
	roundID, ok := roundParam(c)
	if !ok {
		return
	}

	result, err := h.facade.DrawRound(jobContext(c), roundID)
	if err != nil {
		var rejection *usecase.RoundRejection
		var settlementErr *usecase.SettlementError
		switch {
		case errors.As(err, &rejection) && rejection.Reason == usecase.RejectNotFound:
			abortWithError(c, http.StatusNotFound, err)
		case errors.As(err, &rejection) && rejection.Reason != usecase.RejectInconsistent:
			c.AbortWithStatusJSON(http.StatusConflict, dto.RejectionResponse{Error: err.Error(), Reason: string(rejection.Reason)})
		case errors.As(err, &settlementErr) && settlementErr.Kind == usecase.SettlementAlreadyProcessed:
			c.AbortWithStatusJSON(http.StatusConflict, dto.RejectionResponse{Error: err.Error(), Reason: string(settlementErr.Kind)})
		default:
			internalError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, dto.RoundDrawResponse{Success: true, Result: toDrawResult(*result)})
}

// Verification handles GET /api/rounds/:id/verification.
func (h *RoundHandler) Verification(c *gin.Context) {
	roundID, ok := roundParam(c)
	if !ok {
		return
	}

	verification, err := h.facade.VerifyRound(c.Request.Context(), roundID)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			abortWithError(c, http.StatusNotFound, err)
		case errors.Is(err, domainErrors.ErrNotEligible):
			abortWithError(c, http.StatusConflict, err)
		case errors.Is(err, domainErrors.ErrInvalidDrawRecord):
			abortWithError(c, http.StatusUnprocessableEntity, err)
		default:
			internalError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, dto.VerificationResponse{Success: true, RoundID: roundID, Verification: *verification})
}

func roundParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, errors.New("invalid round id"))
		return uuid.Nil, false
	}
	return id, true
}
