package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/acadplan/timetable-api/internal/middleware"
	"github.com/acadplan/timetable-api/internal/models"
	appErrors "github.com/acadplan/timetable-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// parseTermScope reads the semester/year query pair shared by the schedule
// endpoints. Both values are required and must be positive.
func parseTermScope(c *gin.Context) (int, int, error) {
	semester, err := strconv.Atoi(c.Query("semester"))
	if err != nil || semester < 1 || semester > 2 {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "semester must be 1 or 2")
	}
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 1 {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "year must be a positive integer")
	}
	return semester, year, nil
}
