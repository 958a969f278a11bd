package ops

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewEngine builds the ops HTTP engine with the health and metrics
// endpoints. The engine carries no request logging middleware; scrapes every
// few seconds would drown the interaction logs.
func NewEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// NewServer wraps the ops engine in an http.Server bound to the given port,
// with conservative timeouts.
func NewServer(port string) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           NewEngine(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
