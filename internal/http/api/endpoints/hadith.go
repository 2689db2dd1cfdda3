package endpoints

import (
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/salah/internal/hadith"
	"github.com/Nixie-Tech-LLC/salah/internal/http/api"
	"github.com/Nixie-Tech-LLC/salah/internal/http/api/packets"
)

type HadithController struct {
	store *hadith.Store
}

// HadithModule mounts the public /hadiths endpoints.
func HadithModule(store *hadith.Store) api.Module {
	ctl := &HadithController{store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_GET("/hadiths", ctl.search)
		c.PUBLIC_GET("/hadiths/books", ctl.books)
		c.PUBLIC_GET("/hadiths/categories", ctl.categories)
		c.PUBLIC_GET("/hadiths/:id", ctl.get)
	})
}

// GET /api/hadiths?q=&book=&category=&narrator=
func (h *HadithController) search(ctx *gin.Context) (any, *api.APIError) {
	var request packets.HadithSearchQuery
	if err := ctx.ShouldBindQuery(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	found := h.store.Search(request.Query, hadith.Filters{
		Book:     request.Book,
		Category: request.Category,
		Narrator: request.Narrator,
	})
	return packets.HadithSearchResponse{Count: len(found), Hadiths: found}, nil
}

// GET /api/hadiths/:id
func (h *HadithController) get(ctx *gin.Context) (any, *api.APIError) {
	rec, ok := h.store.Get(ctx.Param("id"))
	if !ok {
		return nil, api.NotFound("hadith not found")
	}
	return rec, nil
}

func (h *HadithController) books(ctx *gin.Context) (any, *api.APIError) {
	return h.store.Books(), nil
}

func (h *HadithController) categories(ctx *gin.Context) (any, *api.APIError) {
	return h.store.Categories(), nil
}
