package controller

import (
	"campuswell_backend/internal/service"
	"campuswell_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	Analytics *service.AnalyticsService
	Outcomes  *service.OutcomeService
	Crisis    *service.CrisisService
}

func NewAnalyticsController(analytics *service.AnalyticsService, outcomes *service.OutcomeService, crisis *service.CrisisService) *AnalyticsController {
	return &AnalyticsController{Analytics: analytics, Outcomes: outcomes, Crisis: crisis}
}

// Dashboard godoc
// @Summary Counselor dashboard summary
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.DashboardSummary}
// @Router /analytics/dashboard [get]
func (c *AnalyticsController) Dashboard(ctx *gin.Context) {
	summary, err := c.Analytics.Dashboard()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// OutcomeSummary godoc
// @Summary Intervention outcome summary
// @Description Measured outcomes compared against the baseline engagement rate
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.OutcomeSummary}
// @Router /analytics/outcomes [get]
func (c *AnalyticsController) OutcomeSummary(ctx *gin.Context) {
	summary, err := c.Outcomes.Summary()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// StudentOutcomes godoc
// @Summary Measured outcomes for one student
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param id path int true "student id"
// @Success 200 {object} util.Response
// @Router /students/{id}/outcomes [get]
func (c *AnalyticsController) StudentOutcomes(ctx *gin.Context) {
	outcomes, err := c.Outcomes.ListByStudent(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, outcomes)
}

// CrisisReport godoc
// @Summary Crisis report detail
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param id path int true "report id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /crisis-reports/{id} [get]
func (c *AnalyticsController) CrisisReport(ctx *gin.Context) {
	report, err := c.Crisis.GetReport(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, report)
}

// StudentCrisisReports godoc
// @Summary Crisis reports for one student
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param id path int true "student id"
// @Success 200 {object} util.Response
// @Router /students/{id}/crisis-reports [get]
func (c *AnalyticsController) StudentCrisisReports(ctx *gin.Context) {
	reports, err := c.Crisis.ListReports(util.MustParseUint(ctx.Param("id")), 10)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, reports)
}
