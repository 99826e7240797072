package internal

import (
	"net/http"

	"enduro/internal/controllers"
	"enduro/internal/providers"
	"enduro/internal/structures"
)

func InitRoutes(apiController *controllers.ApiController, conf *structures.Config) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/activities", http.HandlerFunc(apiController.GetActivities))
	routers.Get("/status", http.HandlerFunc(apiController.GetStatus))
	routers.Post("/refresh", http.HandlerFunc(apiController.Refresh))
	routers.Post("/cache/purge", http.HandlerFunc(apiController.PurgeCache))
	routers.Get("/weekly", http.HandlerFunc(apiController.GetWeekly))
	routers.Get("/monthly", http.HandlerFunc(apiController.GetMonthly))
	routers.Get("/yearly", http.HandlerFunc(apiController.GetYearly))
	routers.Get("/sports", http.HandlerFunc(apiController.GetSports))
	routers.Get("/athlete", http.HandlerFunc(apiController.GetAthlete))
	return routers
}
