package controller

import (
	"campuswell_backend/internal/service"
	"campuswell_backend/internal/util"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	Outcomes  *service.OutcomeService
	Analytics *service.AnalyticsService
}

func NewAdminController(outcomes *service.OutcomeService, analytics *service.AnalyticsService) *AdminController {
	return &AdminController{Outcomes: outcomes, Analytics: analytics}
}

// RunOutcomeSweep godoc
// @Summary Trigger the outcome sweep manually
// @Description Same batch the daily scheduler runs; refuses to overlap a running sweep
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.SweepStats}
// @Failure 409 {object} util.Response
// @Router /admin/outcome-sweep [post]
func (c *AdminController) RunOutcomeSweep(ctx *gin.Context) {
	stats, err := c.Outcomes.RunSweep(ctx.Request.Context())
	if err != nil {
		if errors.Is(err, util.ErrSweepAlreadyRunning) {
			util.Conflict(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// Stats godoc
// @Summary Program-level counters for the admin dashboard
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.AdminStats}
// @Router /admin/stats [get]
func (c *AdminController) Stats(ctx *gin.Context) {
	stats, err := c.Analytics.AdminStats()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// WellnessTrends godoc
// @Summary Daily population wellness trend
// @Description Risk profiles aggregated per calendar day and mapped to a 0-100 wellness score
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param days query int false "window in days (7-365)"
// @Success 200 {object} util.Response
// @Router /admin/wellness-trends [get]
func (c *AdminController) WellnessTrends(ctx *gin.Context) {
	days, _ := strconv.Atoi(ctx.DefaultQuery("days", "30"))

	points, err := c.Analytics.WellnessTrends(days)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, points)
}
