package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/lotteryengine/internal/server/http/dto"
)

// JobHandler triggers batch jobs on behalf of an external scheduler.
type JobHandler struct {
	draws      DrawFacade
	reclaims   ReclaimFacade
	reconciles ReconcileFacade
}

// NewJobHandler constructs JobHandler.
func NewJobHandler(draws DrawFacade, reclaims ReclaimFacade, reconciles ReconcileFacade) *JobHandler {
	return &JobHandler{draws: draws, reclaims: reclaims, reconciles: reconciles}
}

// jobContext keeps the request values but drops its cancellation. A job
// started by a trigger runs its batch to the end even if the caller
// disconnects or times out.
func jobContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

// AutoDraw handles /api/jobs/auto-draw.
func (h *JobHandler) AutoDraw(c *gin.Context) {
	summary, err := h.draws.RunDraws(jobContext(c))
	if err != nil {
		internalError(c, err)
		return
	}

	results := make([]dto.DrawResult, 0, len(summary.Results))
	for _, r := range summary.Results {
		results = append(results, toDrawResult(r))
	}

	c.JSON(http.StatusOK, dto.DrawResponse{
		Success:   true,
		Message:   fmt.Sprintf("drew %d of %d rounds (%d failed, %d skipped)", summary.Successful, summary.TotalFound, summary.Failed, summary.Skipped),
		Processed: summary.Successful,
		Summary: dto.DrawSummary{
			TotalFound: summary.TotalFound,
			Processed:  summary.Processed,
			Successful: summary.Successful,
			Failed:     summary.Failed,
			Skipped:    summary.Skipped,
		},
		Results: results,
		Errors:  toUnitErrors(summary.Errors),
	})
}

// ReleaseExpiredOrders handles /api/jobs/release-expired-orders.
func (h *JobHandler) ReleaseExpiredOrders(c *gin.Context) {
	summary, err := h.reclaims.ReleaseExpiredOrders(jobContext(c))
	if err != nil {
		internalError(c, err)
		return
	}

	results := make([]dto.ReclaimResult, 0, len(summary.Results))
	for _, r := range summary.Results {
		results = append(results, dto.ReclaimResult{
			OrderID:     r.OrderID,
			OrderNumber: r.OrderNumber,
			Quantity:    r.Quantity,
			Product:     toResourceChange(r.Product),
			Round:       toResourceChange(r.Round),
		})
	}

	c.JSON(http.StatusOK, dto.ReclaimResponse{
		Success: true,
		Message: fmt.Sprintf("released %d of %d expired orders (%d failed, %d skipped)", summary.Successful, summary.TotalFound, summary.Failed, summary.Skipped),
		Summary: dto.ReclaimSummary{
			TotalFound:       summary.TotalFound,
			Processed:        summary.Processed,
			Successful:       summary.Successful,
			Failed:           summary.Failed,
			Skipped:          summary.Skipped,
			ProcessingTimeMs: summary.ProcessingTime.Milliseconds(),
		},
		Results: results,
		Errors:  toUnitErrors(summary.Errors),
	})
}

// ReconcileSettlements handles /api/jobs/reconcile-settlements.
func (h *JobHandler) ReconcileSettlements(c *gin.Context) {
	summary, err := h.reconciles.ReconcileSettlements(jobContext(c))
	if err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ReconcileResponse{
		Success: true,
		Message: fmt.Sprintf("resolved %d of %d settlement followups", summary.Resolved, summary.TotalFound),
		Summary: dto.ReconcileSummary{
			TotalFound: summary.TotalFound,
			Resolved:   summary.Resolved,
			Retrying:   summary.Retrying,
			Abandoned:  summary.Abandoned,
		},
		Errors: toUnitErrors(summary.Errors),
	})
}
