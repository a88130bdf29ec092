package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/csaharvest/internal/apperr"
)

// Handler holds API route handlers.
type Handler struct {
	svc *Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// ListHauls handles GET /api/hauls.
//
//	@Summary		List hauls in chronological order
//	@Tags			hauls
//	@Produce		json
//	@Param			year	query		int	false	"Only hauls from this year"
//	@Param			limit	query		int	false	"Page size"
//	@Param			offset	query		int	false	"Page offset"
//	@Success		200		{object}	HaulListResponse
//	@Security		BearerAuth
//	@Router			/hauls [get]
func (h *Handler) ListHauls(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, _ := strconv.Atoi(q.Get("year"))
	limit, offset := paging(r)

	resp, err := h.svc.ListHauls(year, limit, offset)
	if err != nil {
		slog.Error("list hauls failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetHaul handles GET /api/hauls/{title}.
//
//	@Summary		Get one haul by title
//	@Tags			hauls
//	@Produce		json
//	@Param			title	path		string	true	"Haul title"
//	@Success		200		{object}	HaulDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/hauls/{title} [get]
func (h *Handler) GetHaul(w http.ResponseWriter, r *http.Request) {
	title := chi.URLParam(r, "title")
	haul, err := h.svc.GetHaul(title)
	if err != nil {
		h.lookupFailed(w, "get haul", title, err)
		return
	}
	writeJSON(w, http.StatusOK, haul)
}

// ListRecipes handles GET /api/recipes.
//
//	@Summary		List recipes by id
//	@Tags			recipes
//	@Produce		json
//	@Param			item	query		string	false	"Only recipes using this item alias"
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{object}	RecipeListResponse
//	@Security		BearerAuth
//	@Router			/recipes [get]
func (h *Handler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	limit, offset := paging(r)
	resp, err := h.svc.ListRecipes(r.URL.Query().Get("item"), limit, offset)
	if err != nil {
		slog.Error("list recipes failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetRecipe handles GET /api/recipes/{id}.
//
//	@Summary		Get every occurrence of a recipe
//	@Tags			recipes
//	@Produce		json
//	@Param			id	path		string	true	"Recipe id"
//	@Success		200	{object}	RecipeDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recipes/{id} [get]
func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	recipe, err := h.svc.GetRecipe(id)
	if err != nil {
		h.lookupFailed(w, "get recipe", id, err)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

// ItemRecipes handles GET /api/items/{alias}/recipes.
//
//	@Summary		List recipes using an item or ingredient
//	@Tags			items
//	@Produce		json
//	@Param			alias	path		string	true	"Item alias"
//	@Success		200		{object}	ItemRecipesResponse
//	@Security		BearerAuth
//	@Router			/items/{alias}/recipes [get]
func (h *Handler) ItemRecipes(w http.ResponseWriter, r *http.Request) {
	alias := chi.URLParam(r, "alias")
	resp, err := h.svc.RecipesUsing(alias)
	if err != nil {
		slog.Error("item recipes failed", slog.String("alias", alias), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across hauls and recipes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	resp, err := h.svc.Search(q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("q", q), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) lookupFailed(w http.ResponseWriter, op, key string, err error) {
	if errors.Is(err, apperr.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	slog.Error(op+" failed", slog.String("key", key), slog.String("error", err.Error()))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func paging(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit, _ = strconv.Atoi(q.Get("limit"))
	offset, _ = strconv.Atoi(q.Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
