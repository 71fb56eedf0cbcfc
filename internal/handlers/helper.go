package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userIDKey = "user_id"

func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := strings.TrimSpace(c.Param(param))
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return idStr
}

// requireUserID returns the authenticated user, answering 401 when absent.
func requireUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(userIDKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return "", false
	}
	return userID, true
}

// optionalUserID returns the authenticated user, or nil for anonymous respondents.
func optionalUserID(c *gin.Context) *string {
	userID := c.GetString(userIDKey)
	if userID == "" {
		return nil
	}
	return &userID
}
