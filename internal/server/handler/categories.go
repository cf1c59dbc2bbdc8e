package handler

import (
	"net/http"

	"github.com/alanyoungcy/marketsbot/internal/domain"
)

type categoryResponse struct {
	Label       string   `json:"label"`
	TagID       string   `json:"tag_id"`
	Emoji       string   `json:"emoji"`
	Description string   `json:"description"`
	SubTypes    []string `json:"sub_types,omitempty"`
}

// CategoriesHandler lists the browsable categories.
type CategoriesHandler struct {
	categories func() []domain.Category
}

// NewCategoriesHandler creates a CategoriesHandler over the given source,
// typically (*browse.Service).Categories.
func NewCategoriesHandler(categories func() []domain.Category) *CategoriesHandler {
	if categories == nil {
		categories = domain.Categories
	}
	return &CategoriesHandler{categories: categories}
}

// ListCategories returns every category with its upstream tag.
// GET /api/categories
func (h *CategoriesHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats := h.categories()
	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		info := c.Info()
		resp := categoryResponse{
			Label:       info.Label,
			TagID:       info.TagID,
			Emoji:       info.Emoji,
			Description: info.Description,
		}
		if c == domain.CategoryBasketball {
			for _, st := range domain.SubTypes() {
				resp.SubTypes = append(resp.SubTypes, st.Key())
			}
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": out,
		"total":      len(out),
	})
}
