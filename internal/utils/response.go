package utils

import "github.com/gin-gonic/gin"

// Error writes the error envelope every endpoint shares.
func Error(c *gin.Context, code int, detail string) {
	c.JSON(code, gin.H{
		"status": "error",
		"detail": detail,
	})
}

// Success writes a success envelope with the given fields.
func Success(c *gin.Context, data gin.H) {
	out := gin.H{"status": "success"}
	for k, v := range data {
		out[k] = v
	}
	c.JSON(200, out)
}
