package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/apperr"
	"storefront-service/internal/products"
	"storefront-service/pkg/paginate"
)

func (h *Handler) ListProducts(c *gin.Context) {
	page := paginate.FromQuery(c.Request.URL.Query())
	list, total, err := h.catalog.ListProducts(c.Request.Context(), page)
	if err != nil {
		fail(c, "An error occurred while listing products.", err)
		return
	}
	if len(list) == 0 {
		fail(c, "No products found.", fmt.Errorf("%w: page %d is empty", apperr.ErrNotFound, page.Number))
		return
	}
	respond(c, http.StatusOK, "Products retrieved successfully.", paginate.NewResult(list, total, page, c.Request.URL))
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		fail(c, "Product not found.", err)
		return
	}
	p, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		fail(c, "Product not found.", err)
		return
	}
	respond(c, http.StatusOK, "Product retrieved successfully.", p)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var np products.NewProduct
	if err := h.bind(c, &np); err != nil {
		fail(c, "Invalid data.", err)
		return
	}
	if err := np.Check(); err != nil {
		fail(c, "Invalid data.", fmt.Errorf("%w: %s", apperr.ErrValidation, err.Error()))
		return
	}
	p, err := h.catalog.CreateProduct(c.Request.Context(), np)
	if err != nil {
		fail(c, "An error occurred while creating the product.", err)
		return
	}
	respond(c, http.StatusCreated, "Product created successfully.", p)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		fail(c, "Product not found.", err)
		return
	}
	var up products.UpdateProduct
	if err := h.bind(c, &up); err != nil {
		fail(c, "Invalid data.", err)
		return
	}
	if err := up.Check(); err != nil {
		fail(c, "Invalid data.", fmt.Errorf("%w: %s", apperr.ErrValidation, err.Error()))
		return
	}
	p, err := h.catalog.UpdateProduct(c.Request.Context(), id, up)
	if err != nil {
		fail(c, "An error occurred while updating the product.", err)
		return
	}
	respond(c, http.StatusOK, "Product updated successfully.", p)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		fail(c, "Product not found.", err)
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		fail(c, "An error occurred while deleting the product.", err)
		return
	}
	respond(c, http.StatusOK, "Product deleted successfully.", nil)
}

func (h *Handler) ListCategories(c *gin.Context) {
	list, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		fail(c, "An error occurred while listing categories.", err)
		return
	}
	if len(list) == 0 {
		fail(c, "No categories found.", fmt.Errorf("%w: no categories", apperr.ErrNotFound))
		return
	}
	respond(c, http.StatusOK, "Categories retrieved successfully.", list)
}

func (h *Handler) FeaturedCategories(c *gin.Context) {
	list, err := h.catalog.FeaturedCategories(c.Request.Context())
	if err != nil {
		fail(c, "An error occurred while listing featured categories.", err)
		return
	}
	if len(list) == 0 {
		fail(c, "No featured categories found.", fmt.Errorf("%w: no featured categories", apperr.ErrNotFound))
		return
	}
	respond(c, http.StatusOK, "Featured categories retrieved successfully.", list)
}

func (h *Handler) GetCategory(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		fail(c, "Category not found.", err)
		return
	}
	cat, err := h.catalog.GetCategory(c.Request.Context(), id)
	if err != nil {
		fail(c, "Category not found.", err)
		return
	}
	respond(c, http.StatusOK, "Category retrieved successfully.", cat)
}

// ProductsByCategory lists products of the category whose slug is in the path.
func (h *Handler) ProductsByCategory(c *gin.Context) {
	page := paginate.FromQuery(c.Request.URL.Query())
	list, total, err := h.catalog.ListByCategorySlug(c.Request.Context(), c.Param("id"), page)
	if err != nil {
		fail(c, "Category not found.", err)
		return
	}
	if len(list) == 0 {
		fail(c, "No products found in this category.", fmt.Errorf("%w: page %d is empty", apperr.ErrNotFound, page.Number))
		return
	}
	respond(c, http.StatusOK, "Products retrieved successfully.", paginate.NewResult(list, total, page, c.Request.URL))
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var nc products.NewCategory
	if err := h.bind(c, &nc); err != nil {
		fail(c, "Invalid data.", err)
		return
	}
	cat, err := h.catalog.CreateCategory(c.Request.Context(), nc)
	if err != nil {
		fail(c, "An error occurred while creating the category.", err)
		return
	}
	respond(c, http.StatusCreated, "Category created successfully.", cat)
}

func (h *Handler) ListReviews(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		fail(c, "Product not found.", err)
		return
	}
	page := paginate.FromQuery(c.Request.URL.Query())
	list, total, err := h.catalog.ListReviews(c.Request.Context(), id, page)
	if err != nil {
		fail(c, "An error occurred while listing reviews.", err)
		return
	}
	respond(c, http.StatusOK, "Reviews retrieved successfully.", paginate.NewResult(list, total, page, c.Request.URL))
}

func (h *Handler) GetReview(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		fail(c, "Review not found.", err)
		return
	}
	r, err := h.catalog.GetReview(c.Request.Context(), id)
	if err != nil {
		fail(c, "Review not found.", err)
		return
	}
	respond(c, http.StatusOK, "Review retrieved successfully.", r)
}

func (h *Handler) CreateReview(c *gin.Context) {
	userID, err := userIDOf(c)
	if err != nil {
		fail(c, "User not found.", err)
		return
	}
	var nr products.NewReview
	if err := h.bind(c, &nr); err != nil {
		fail(c, "Invalid data.", err)
		return
	}
	r, err := h.catalog.CreateReview(c.Request.Context(), userID, nr)
	if err != nil {
		fail(c, "An error occurred while creating the review.", err)
		return
	}
	respond(c, http.StatusCreated, "Review created successfully.", r)
}

func (h *Handler) UpdateReview(c *gin.Context) {
	userID, err := userIDOf(c)
	if err != nil {
		fail(c, "User not found.", err)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		fail(c, "Review not found or you do not have permission to update it.", err)
		return
	}
	var ur products.UpdateReview
	if err := h.bind(c, &ur); err != nil {
		fail(c, "Invalid data.", err)
		return
	}
	r, err := h.catalog.UpdateReview(c.Request.Context(), userID, id, ur)
	if err != nil {
		fail(c, "Review not found or you do not have permission to update it.", err)
		return
	}
	respond(c, http.StatusOK, "Review updated successfully.", r)
}

func (h *Handler) DeleteReview(c *gin.Context) {
	userID, err := userIDOf(c)
	if err != nil {
		fail(c, "User not found.", err)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		fail(c, "Review not found or you do not have permission to delete it.", err)
		return
	}
	if err := h.catalog.DeleteReview(c.Request.Context(), userID, id); err != nil {
		fail(c, "Review not found or you do not have permission to delete it.", err)
		return
	}
	respond(c, http.StatusOK, "Review deleted successfully.", nil)
}
