package controller

import (
	"campuswell_backend/internal/service"
	"campuswell_backend/internal/util"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

type StudentController struct {
	Students *service.StudentService
}

func NewStudentController(students *service.StudentService) *StudentController {
	return &StudentController{Students: students}
}

// List godoc
// @Summary List monitored students
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param page query int false "page"
// @Param limit query int false "page size"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /students [get]
func (c *StudentController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	students, total, err := c.Students.List(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: students, Total: total, Page: page, Limit: limit})
}

// Overview godoc
// @Summary Student detail with latest risk and recent patterns
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path int true "student id"
// @Success 200 {object} util.Response{data=service.StudentOverview}
// @Failure 404 {object} util.Response
// @Router /students/{id} [get]
func (c *StudentController) Overview(ctx *gin.Context) {
	studentID := util.MustParseUint(ctx.Param("id"))

	overview, err := c.Students.Overview(studentID)
	if err != nil {
		if errors.Is(err, util.ErrStudentNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, overview)
}

// Baseline godoc
// @Summary Behavioral baseline for a student
// @Description 404 until enough sessions have established the baseline
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path int true "student id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /students/{id}/baseline [get]
func (c *StudentController) Baseline(ctx *gin.Context) {
	baseline, err := c.Students.Baseline(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		if errors.Is(err, util.ErrStudentNotFound) || errors.Is(err, util.ErrBaselineNotEstablished) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, baseline)
}

// Consent godoc
// @Summary Record monitoring consent for the calling student
// @Tags students
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /students/consent [post]
func (c *StudentController) Consent(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	student, err := c.Students.GetByUserID(claims.UserID)
	if err != nil {
		util.NotFound(ctx)
		return
	}

	if err := c.Students.RecordConsent(student.ID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"consent": true})
}
