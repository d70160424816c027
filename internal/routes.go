package internal

import (
	"net/http"

	"glucolog/internal/controllers"
	"glucolog/internal/providers"
	"glucolog/internal/structures"
)

func InitRoutes(readingsController *controllers.ReadingsController, backupController *controllers.BackupController, conf *structures.Config) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/readings", http.HandlerFunc(readingsController.List))
	routers.Post("/readings", http.HandlerFunc(readingsController.Create))
	routers.Put("/readings/{id}", http.HandlerFunc(readingsController.Update))
	routers.Delete("/readings/{id}", http.HandlerFunc(readingsController.Delete))
	routers.Get("/prefs", http.HandlerFunc(readingsController.GetPrefs))
	routers.Put("/prefs", http.HandlerFunc(readingsController.SetPref))

	routers.Post("/backup", http.HandlerFunc(backupController.Backup))
	routers.Get("/backup/candidates", http.HandlerFunc(backupController.Candidates))
	routers.Post("/restore", http.HandlerFunc(backupController.Restore))
	routers.Post("/import", http.HandlerFunc(backupController.Import))
	return routers
}
