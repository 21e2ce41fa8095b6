package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BuildExport assembles the full compliance registry and records the
// export in the audit trail.
func (s *Server) BuildExport(c *gin.Context) {
	registry, err := s.exportSvc.BuildRegistry(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": registry})
}

func (s *Server) ListExports(c *gin.Context) {
	entries, err := s.exportSvc.ListExports(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}
