package main

import (
	"errors"
	"io/fs"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/kena741/zuluskills-admin/internal/app"
	"github.com/kena741/zuluskills-admin/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("can not read .env: %s", err)
	}
	gin.SetMode(gin.ReleaseMode)
	cfg := config.MustLoad()
	app.Run(cfg)
}
