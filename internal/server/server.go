// Package server contain implementation of go-gin-server and each route handlers
package server

import (
	"fmt"
	"net/http"
	"time"

	"UniJobBoard-backend/internal/application"
	"UniJobBoard-backend/internal/config"
	"UniJobBoard-backend/internal/database"
	"UniJobBoard-backend/internal/jobposting"
	"UniJobBoard-backend/internal/notification"
)

// MyServer holds the engine components the HTTP routes are served from.
type MyServer struct {
	Config *config.Config
	DB     *database.DBinstanceStruct

	Jobs         *jobposting.Store
	Applications *application.Workflow
	Inbox        *notification.Inbox
}

// NewServer construct new http.Server serving the routes of s
func NewServer(s *MyServer) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Config.Port),
		Handler:           s.RegisterRoutes(),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
}
