package app

import "github.com/gin-gonic/gin"

// Module defines the contract for a self-registering business module.
// Public routes are mounted on /api/v1 as is; protected routes sit behind
// bearer authentication.
type Module interface {
	RegisterRoutes(public *gin.RouterGroup, protected *gin.RouterGroup)
}
