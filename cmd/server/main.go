package main

import (
	"github.com/eleven-am/newsdesk/internal/bootstrap"
)

// @title Newsdesk API
// @version 1.0.0
// @description News aggregation backend with live anchor broadcasts

// @host api.newsdesk.example.com
// @BasePath /v1

func main() {
	bootstrap.Run()
}
