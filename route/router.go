package route

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"photoshare/controller"
	"photoshare/services"
)

type Deps struct {
	Users  *services.UserService
	Photos *services.PhotoService
	Likes  *services.LikeService
	DB     controller.Pinger

	Secret       string
	MaxBodyBytes int64
	CORSOrigins  []string
	// StaticDir is served at /uploads when renditions live on local disk.
	StaticDir string
}

func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(d.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = d.CORSOrigins
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool {
			return strings.HasPrefix(origin, "http://localhost:") ||
				strings.HasPrefix(origin, "http://127.0.0.1:")
		}
	}
	router.Use(cors.New(corsConfig))

	if d.StaticDir != "" {
		router.Static("/uploads", d.StaticDir)
	}

	Unprotected(router, d)
	Protected(router, d)
	return router
}
