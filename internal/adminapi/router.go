// Package adminapi is the HTTP surface operators use to watch and
// manage a running ACS: list active SC connections, kick one, browse
// the audit log, and obtain a bearer token. It never touches the SIP2
// wire protocol itself — it reads from internal/sip2.Registry and
// internal/audit.Store only.
package adminapi

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/sip2-acs-server/internal/audit"
	"github.com/yourusername/sip2-acs-server/internal/sip2"
)

// Deps are the collaborators the admin router reads from; it never
// owns or mutates them beyond Registry.Kick.
type Deps struct {
	Registry *sip2.Registry
	Audit    audit.Store
}

// NewRouter builds the gin engine, grounded on the same
// Recovery+otelgin+CORS+auth middleware stack the teacher's gateway
// assembles in setupRouter.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("sip2-acs-admin"))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-API-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "time": time.Now()})
	})

	r.POST("/api/auth/login", handleLogin)

	api := r.Group("/api")
	api.Use(requireBearer())
	api.GET("/sessions", handleListSessions(deps))
	api.POST("/sessions/:id/kick", handleKickSession(deps))
	api.GET("/audit", handleListAudit(deps))

	return r
}

// adminLoginRequest credentials for the one built-in admin operator
// account, configured via ADMIN_USERNAME/ADMIN_PASSWORD_HASH. A real
// deployment would back this with the same account store the rest of
// the server uses; the scope here is a single operator login.
type adminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func handleLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	wantUser := os.Getenv("ADMIN_USERNAME")
	wantHash := os.Getenv("ADMIN_PASSWORD_HASH")
	if wantUser == "" || wantHash == "" || req.Username != wantUser || bcrypt.CompareHashAndPassword([]byte(wantHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := issueToken(req.Username, "admin")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "token": token})
}

func handleListSessions(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sessions": deps.Registry.List()})
	}
}

func handleKickSession(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if !deps.Registry.Kick(id) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no such session"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "kicked"})
	}
}

func handleListAudit(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 100
		entries, err := deps.Audit.Recent(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries})
	}
}
