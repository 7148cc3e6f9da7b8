package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/teacher-portal/internal/auth"
	"github.com/iliyamo/teacher-portal/internal/middleware"
)

type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword lets a signed-in teacher rotate their own password. The
// current password is re-verified so a hijacked session alone is not enough
// to lock the owner out.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusOK, echo.Map{"success": false, "error": "Invalid request body"})
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return c.JSON(http.StatusOK, echo.Map{"success": false, "error": "Current and new password are required"})
	}
	teacher, ok := middleware.CurrentTeacher(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if _, err := h.Creds.Verify(ctx, teacher.Username, req.CurrentPassword); err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			return c.JSON(http.StatusOK, echo.Map{"success": false, "error": "Current password is incorrect"})
		}
		log.Printf("change password: verify failed: %v", err)
		return c.JSON(http.StatusOK, echo.Map{"success": false, "error": "Something went wrong, please try again"})
	}
	if err := h.Creds.SetPassword(ctx, teacher.ID, req.NewPassword); err != nil {
		log.Printf("change password: set failed: %v", err)
		return c.JSON(http.StatusOK, echo.Map{"success": false, "error": "Something went wrong, please try again"})
	}

	// A credential change invalidates every outstanding session. Creating a
	// new one revokes the rest, so only this client stays signed in.
	token, err := h.Sessions.Create(ctx, teacher.ID)
	if err != nil {
		log.Printf("change password: rotate session failed: %v", err)
		_ = h.Store.Clear(c.Request(), c.Response())
		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Password updated successfully, please sign in again"})
	}
	if err := h.Store.SaveToken(c.Request(), c.Response(), token); err != nil {
		log.Printf("change password: save session failed: %v", err)
		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Password updated successfully, please sign in again"})
	}
	if err := h.issueCSRF(c, token); err != nil {
		log.Printf("change password: issue csrf token failed: %v", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Password updated successfully"})
}
