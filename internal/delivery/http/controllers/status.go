package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Features reports which optional backends the server was started with.
type Features struct {
	Backend string `json:"backend"`
	Search  bool   `json:"search"`
	Avatars bool   `json:"avatars"`
}

type StatusHandler struct {
	features Features
}

func NewStatusHandler(features Features) *StatusHandler {
	return &StatusHandler{features: features}
}

func (h *StatusHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "Available", "features": h.features})
}
