package api

import (
	"github.com/gin-gonic/gin"
)

// errorResponse 返回错误响应
func errorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"error": message,
	})
}

// errorResponseWithDetail 返回带详情的错误响应
func errorResponseWithDetail(c *gin.Context, code int, message string, detail interface{}) {
	c.JSON(code, gin.H{
		"error":  message,
		"detail": detail,
	})
}

// notFoundResponse 返回 404 响应
func notFoundResponse(c *gin.Context, resource string) {
	c.JSON(404, gin.H{
		"error": resource + " not found",
	})
}
