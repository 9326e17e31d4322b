package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/ghuser/itemcatalog/pkg/app"
	"github.com/ghuser/itemcatalog/services/item/application/handlers"
	appsvcs "github.com/ghuser/itemcatalog/services/item/application/services"
)

// ItemRoutes registers item endpoints on the provided chi router.
func ItemRoutes(r chi.Router, a *app.Application) {
	Mount(r, appsvcs.New(a), a)
}

// Mount registers item endpoints backed by an already wired service container.
func Mount(r chi.Router, svcs *appsvcs.Services, a *app.Application) {
	r.Group(func(r chi.Router) {
		r.Route("/items", func(r chi.Router) {
			r.Get("/", handlers.NewListItemsHandler(svcs, a.Logger).Execute)
			r.Post("/", handlers.NewPostItemHandler(svcs, a.Logger).Execute)
			r.Put("/", handlers.NewPutItemHandler(svcs, a.Logger).Execute)
			r.Get("/{id}", handlers.NewGetItemHandler(svcs, a.Logger).Execute)
			r.Delete("/{id}", handlers.NewDeleteItemHandler(svcs, a.Logger).Execute)
		})
	})
}
