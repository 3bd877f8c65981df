package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/taskhub/taskhub-api/internal/api"
	apiMiddleware "github.com/taskhub/taskhub-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware. It accepts the application dependencies to create handlers
// and register routes. Returns the configured router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(
		app.userService,
		app.jwtService,
		app.passwordVerifier,
		app.loginLimiter,
		app.tokenStore,
		&app.config.Auth,
	)
	userHandler := api.NewUserHandler(app.userService)
	workspaceHandler := api.NewWorkspaceHandler(app.workspaceService)
	taskHandler := api.NewTaskHandler(app.taskService)
	commentHandler := api.NewCommentHandler(app.commentService)
	notificationHandler := api.NewNotificationHandler(app.notificationService)
	auditHandler := api.NewAuditHandler(app.auditService, app.userService)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService, app.tokenStore)

	r.Route("/api/v1", func(r chi.Router) {
		if app.rateLimiter != nil {
			r.Use(apiMiddleware.NewRateLimitMiddleware(app.rateLimiter).Throttle)
		}

		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.Refresh)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/auth/logout", authHandler.Logout)

			// User endpoints
			r.Get("/users", userHandler.ListUsers)
			r.Get("/users/me", userHandler.GetMe)
			r.Put("/users/me", userHandler.UpdateMe)
			r.Post("/users/me/password", userHandler.ChangePassword)
			r.Get("/users/{userID}", userHandler.GetUser)
			r.Delete("/users/{userID}", userHandler.DeleteUser)

			// Workspace and membership endpoints
			r.Post("/workspaces", workspaceHandler.CreateWorkspace)
			r.Get("/workspaces", workspaceHandler.ListWorkspaces)
			r.Get("/workspaces/{workspaceID}", workspaceHandler.GetWorkspace)
			r.Put("/workspaces/{workspaceID}", workspaceHandler.UpdateWorkspace)
			r.Delete("/workspaces/{workspaceID}", workspaceHandler.DeleteWorkspace)
			r.Get("/workspaces/{workspaceID}/members", workspaceHandler.ListMembers)
			r.Post("/workspaces/{workspaceID}/members", workspaceHandler.AddMember)
			r.Put("/workspaces/{workspaceID}/members/{userID}", workspaceHandler.UpdateMemberRole)
			r.Delete("/workspaces/{workspaceID}/members/{userID}", workspaceHandler.RemoveMember)

			// Task endpoints
			r.Post("/workspaces/{workspaceID}/tasks", taskHandler.CreateTask)
			r.Get("/workspaces/{workspaceID}/tasks", taskHandler.ListTasks)
			r.Get("/tasks/{taskID}", taskHandler.GetTask)
			r.Put("/tasks/{taskID}", taskHandler.UpdateTask)
			r.Delete("/tasks/{taskID}", taskHandler.DeleteTask)
			r.Post("/tasks/{taskID}/assign", taskHandler.AssignTask)
			r.Post("/tasks/{taskID}/status", taskHandler.SetTaskStatus)

			// Comment endpoints
			r.Post("/tasks/{taskID}/comments", commentHandler.CreateComment)
			r.Get("/tasks/{taskID}/comments", commentHandler.ListComments)
			r.Delete("/comments/{commentID}", commentHandler.DeleteComment)

			// Notification endpoints
			r.Get("/notifications", notificationHandler.ListNotifications)
			r.Get("/notifications/unread-count", notificationHandler.CountUnread)
			r.Post("/notifications/{notificationID}/read", notificationHandler.MarkRead)
			r.Post("/notifications/read-all", notificationHandler.MarkAllRead)

			// Audit log endpoints (admin only)
			r.Get("/audit/entities/{entityType}/{entityID}", auditHandler.ListByEntity)
			r.Get("/audit/actors/{actorID}", auditHandler.ListByActor)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
