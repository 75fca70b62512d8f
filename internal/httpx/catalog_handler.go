package httpx

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-catalog-orders/internal/apperr"
	"github.com/ariefcatur/go-catalog-orders/internal/catalog"
	"github.com/ariefcatur/go-catalog-orders/internal/pricing"
	"github.com/go-chi/chi/v5"
)

type CatalogHandler struct {
	Catalog *catalog.Service
	Pricing *pricing.Aggregator
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.listCategories)
		r.Post("/", h.createCategory)
		r.Get("/{id}", h.getCategory)
		r.Patch("/{id}", h.renameCategory)
		r.Post("/{id}/move", h.moveCategory)
		r.Delete("/{id}", h.deleteCategory)
		r.Get("/{id}/average-price", h.averagePrice)
	})
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Post("/bulk", h.ingest)
		r.Get("/{id}", h.getProduct)
		r.Patch("/{id}", h.updateProduct)
		r.Delete("/{id}", h.deactivateProduct)
		r.Post("/{id}/stock", h.adjustStock)
	})
}

func (h *CatalogHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	tree, err := h.Catalog.Tree(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tree.Nested())
}

func (h *CatalogHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	var in catalog.CategoryInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.Catalog.CreateCategory(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

type categoryView struct {
	catalog.Category
	FullPath string             `json:"full_path"`
	Children []catalog.Category `json:"children"`
}

func (h *CatalogHandler) getCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	tree, err := h.Catalog.Tree(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	c, found := tree.Category(id)
	if !found {
		writeError(w, apperr.Wrap(apperr.KindNotFound, "httpx.getCategory", fmt.Errorf("%w: %d", catalog.ErrCategoryNotFound, id)))
		return
	}
	path, err := tree.PathString(id)
	if err != nil {
		writeError(w, err)
		return
	}
	children, err := tree.Children(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if children == nil {
		children = []catalog.Category{}
	}
	writeJSON(w, http.StatusOK, categoryView{Category: c, FullPath: path, Children: children})
}

func (h *CatalogHandler) renameCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &body) {
		return
	}
	c, err := h.Catalog.RenameCategory(r.Context(), id, body.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CatalogHandler) moveCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		ParentID *int64 `json:"parent_id"`
	}
	if !decode(w, r, &body) {
		return
	}
	c, err := h.Catalog.MoveCategory(r.Context(), id, body.ParentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CatalogHandler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	n, err := h.Catalog.DeleteCategory(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted_categories": n})
}

func (h *CatalogHandler) averagePrice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res, err := h.Pricing.AveragePrice(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	activeOnly := true
	if v := r.URL.Query().Get("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid active flag", Kind: "validation"})
			return
		}
		activeOnly = b
	}
	ps, err := h.Catalog.Products(r.Context(), activeOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	if ps == nil {
		ps = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *CatalogHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if !decode(w, r, &in) {
		return
	}
	p, err := h.Catalog.CreateProduct(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *CatalogHandler) ingest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Products []catalog.IngestItem `json:"products"`
	}
	if !decode(w, r, &body) {
		return
	}
	res, err := h.Catalog.Ingest(r.Context(), body.Products)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.Catalog.Product(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var upd catalog.ProductUpdate
	if !decode(w, r, &upd) {
		return
	}
	p, err := h.Catalog.UpdateProduct(r.Context(), id, upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) deactivateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.Catalog.Deactivate(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) adjustStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Delta int `json:"delta"`
	}
	if !decode(w, r, &body) {
		return
	}
	qty, err := h.Catalog.AdjustStock(r.Context(), id, body.Delta)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product_id": id, "stock_quantity": qty})
}
