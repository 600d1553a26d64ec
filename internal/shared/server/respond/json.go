package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the success wrapper every API response uses.
type Envelope struct {
	Status string      `json:"status"`
	Result interface{} `json:"result"`
}

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK writes a 200 OK response wrapping result in the standard envelope.
func OK(c *gin.Context, result interface{}) {
	JSON(c, http.StatusOK, Envelope{Status: "OK", Result: result})
}

// Created writes a 201 response wrapping result in the standard envelope.
func Created(c *gin.Context, result interface{}) {
	JSON(c, http.StatusCreated, Envelope{Status: "OK", Result: result})
}
