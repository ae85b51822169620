// cmd/main.go
package main

import (
	"vidstream-api/app"
)

// @title           Vidstream User API
// @version         1.0
// @description     User-account backend for a video-sharing application.

// @host      localhost:8080
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
