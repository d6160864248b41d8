package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nodue/internal/auth"
)

// Routes registers the API surface on the given engine. Register, login,
// check and upload are open; listing and status mutation need a faculty token.
func Routes(r *gin.Engine, h *Handler) {
	r.POST("/students/register", h.Register)
	r.POST("/students/login", h.Login)
	r.GET("/students/check/:usn", h.Check)
	r.POST("/upload", h.Upload)
	r.POST("/faculty/login", h.FacultyLogin)

	facultyGroup := r.Group("/", auth.RequireRole(h.key, h.issuer, auth.RoleFaculty))
	facultyGroup.GET("/students/list", h.List)
	facultyGroup.POST("/students/update/:id", h.UpdateStatus)

	// Uploaded assignments are served back read-only.
	r.StaticFS("/uploads", gin.Dir(h.files.Dir(), false))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route Not Found"})
	})
}
