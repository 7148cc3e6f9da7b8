package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/teacher-portal/internal/middleware"
	"github.com/iliyamo/teacher-portal/internal/repository"
	"github.com/iliyamo/teacher-portal/internal/service"
)

// StudentHandler exposes the grade ledger over the JSON API. The auth gate
// has already attached the acting teacher; handlers pass that identity and
// the client IP down explicitly.
type StudentHandler struct {
	Ledger *service.GradeLedger
}

func NewStudentHandler(ledger *service.GradeLedger) *StudentHandler {
	return &StudentHandler{Ledger: ledger}
}

// ----- DTOs -----

// Marks fields are pointers so an absent value is distinguishable from a
// legitimate zero.
type addStudentReq struct {
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Marks   *int   `json:"marks"`
}
type updateMarksReq struct {
	StudentID uint64 `json:"student_id"`
	Marks     *int   `json:"marks"`
}
type deleteStudentReq struct {
	StudentID uint64 `json:"student_id"`
}

// Home returns the student list ordered by (name, subject).
func (h *StudentHandler) Home(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	students, err := h.Ledger.List(ctx)
	if err != nil {
		log.Printf("list students failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load students"})
	}
	return c.JSON(http.StatusOK, echo.Map{"students": students})
}

// AddStudent creates a student or merges marks onto an existing
// (name, subject) record.
func (h *StudentHandler) AddStudent(c echo.Context) error {
	var req addStudentReq
	if err := c.Bind(&req); err != nil {
		return failJSON(c, "Invalid request body")
	}
	if req.Name == "" || req.Subject == "" {
		return failJSON(c, "Name and subject are required")
	}
	if req.Marks == nil {
		return failJSON(c, "Marks must be between 0 and 100")
	}
	teacher, ok := middleware.CurrentTeacher(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	msg, err := h.Ledger.AddOrMerge(ctx, req.Name, req.Subject, *req.Marks, teacher, c.RealIP())
	if err != nil {
		return mutationError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": msg})
}

// UpdateMarks sets a student's marks to an absolute value.
func (h *StudentHandler) UpdateMarks(c echo.Context) error {
	var req updateMarksReq
	if err := c.Bind(&req); err != nil {
		return failJSON(c, "Invalid request body")
	}
	if req.StudentID == 0 || req.Marks == nil {
		return failJSON(c, "Missing required fields")
	}
	teacher, ok := middleware.CurrentTeacher(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	msg, err := h.Ledger.UpdateMarks(ctx, req.StudentID, *req.Marks, teacher, c.RealIP())
	if err != nil {
		return mutationError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": msg})
}

// DeleteStudent removes a student record.
func (h *StudentHandler) DeleteStudent(c echo.Context) error {
	var req deleteStudentReq
	if err := c.Bind(&req); err != nil {
		return failJSON(c, "Invalid request body")
	}
	if req.StudentID == 0 {
		return failJSON(c, "Student ID required")
	}
	teacher, ok := middleware.CurrentTeacher(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	msg, err := h.Ledger.Delete(ctx, req.StudentID, teacher, c.RealIP())
	if err != nil {
		return mutationError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": msg})
}

// mutationError turns ledger errors into the API's JSON envelope. Business
// outcomes stay HTTP 200 with success:false; anything unexpected is logged
// and answered with a generic message so internals never leak.
func mutationError(c echo.Context, err error) error {
	var vErr *service.ValidationError
	var capErr *service.CapacityError
	switch {
	case errors.As(err, &vErr):
		return failJSON(c, vErr.Msg)
	case errors.As(err, &capErr):
		return failJSON(c, capErr.Error())
	case errors.Is(err, repository.ErrNotFound):
		return failJSON(c, "Student not found")
	default:
		log.Printf("student mutation failed: %v", err)
		return failJSON(c, "Something went wrong, please try again")
	}
}

func failJSON(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, echo.Map{"success": false, "error": msg})
}

func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}
