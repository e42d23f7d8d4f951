package internal

import (
	"net/http"
	"timekeeper/internal/controllers"
	"timekeeper/internal/providers"
)

func InitRoutes(
	events *controllers.EventController,
	users *controllers.UserController,
	convert *controllers.ConvertController,
	admin *controllers.AdminController,
) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/events", http.HandlerFunc(events.ListEvents))
	routers.Get("/events/expired", http.HandlerFunc(events.ListExpiredEvents))
	routers.Get("/event", http.HandlerFunc(events.GetEvent))
	routers.Post("/event/delete", http.HandlerFunc(events.DeleteEvent))
	routers.Post("/import", http.HandlerFunc(events.Import))
	routers.Get("/export", http.HandlerFunc(events.Export))
	routers.Get("/export/event", http.HandlerFunc(events.ExportEvent))

	routers.Get("/user", http.HandlerFunc(users.GetUser))
	routers.Get("/presets", http.HandlerFunc(users.GetPresets))
	routers.Post("/presets", http.HandlerFunc(users.InsertPreset))
	routers.Get("/preset", http.HandlerFunc(users.GetPreset))
	routers.Post("/preset/delete", http.HandlerFunc(users.DeletePreset))
	routers.Post("/timezone", http.HandlerFunc(users.SetTimezone))
	routers.Post("/premium", http.HandlerFunc(users.SetPremium))

	routers.Get("/convert/start", http.HandlerFunc(convert.Start))
	routers.Post("/convert/submit", http.HandlerFunc(convert.Submit))

	routers.Get("/admin/stats", http.HandlerFunc(admin.Stats))
	return routers
}
