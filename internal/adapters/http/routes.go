package http

import "github.com/gofiber/fiber/v2"

// Register mounts the API on app. The subdomain proxy runs first so app
// hosts never reach the API routes.
func Register(app *fiber.App, apps *AppHandler, streams *StreamHandler, proxy *ProxyHandler, metrics fiber.Handler) {
	if proxy != nil {
		app.Use(proxy.ProxyRequest)
	}
	if metrics != nil {
		app.Get("/metrics", metrics)
	}

	api := app.Group("/api")
	v1 := api.Group("/v1")
	v1.Get("/ping", apps.Ping)

	a := v1.Group("/apps")
	a.Get("/", apps.ListApps)
	a.Post("/", apps.CreateApp)
	a.Post("/template/:name", apps.CreateFromTemplate)
	a.Get("/streams/:id", streams.Stream)
	a.Get("/:name", apps.GetApp)
	a.Delete("/:name", apps.RemoveApp)
	a.Get("/:name/logs", apps.GetAppLogs)
}
