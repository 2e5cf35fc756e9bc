package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/about"
	"storefront-service/internal/apperr"
)

func (h *Handler) BrandStory(c *gin.Context) {
	a, err := h.content.BrandStory(c.Request.Context())
	if err != nil {
		fail(c, "About info not available.", err)
		return
	}
	respond(c, http.StatusOK, "About info retrieved successfully.", a)
}

func (h *Handler) LegalPage(c *gin.Context) {
	f, err := about.ParseLegalField(c.Param("field"))
	if err != nil {
		fail(c, "Page not found.", err)
		return
	}
	text, err := h.content.LegalText(c.Request.Context(), f)
	if errors.Is(err, apperr.ErrNotFound) {
		fail(c, fmt.Sprintf("Owner is too lazy to configure %s.", f.Title()), err)
		return
	}
	if err != nil {
		fail(c, "An error occurred while retrieving the page.", err)
		return
	}
	respond(c, http.StatusOK, fmt.Sprintf("%s retrieved successfully.", capitalize(f.Title())),
		gin.H{string(f): text})
}

func (h *Handler) Testimonials(c *gin.Context) {
	list, err := h.content.Testimonials(c.Request.Context())
	if err != nil {
		fail(c, "An error occurred while listing testimonials.", err)
		return
	}
	respond(c, http.StatusOK, "Testimonials retrieved successfully.", list)
}

func (h *Handler) Socials(c *gin.Context) {
	s, err := h.content.Socials(c.Request.Context())
	if err != nil {
		fail(c, "Social media links not available.", err)
		return
	}
	respond(c, http.StatusOK, "Social media links retrieved successfully.", s)
}

func (h *Handler) SaveBrandStory(c *gin.Context) {
	var a about.About
	if err := h.bind(c, &a); err != nil {
		fail(c, "Invalid data.", err)
		return
	}
	saved, err := h.content.SaveAbout(c.Request.Context(), a)
	if err != nil {
		fail(c, "Failed to save about info.", err)
		return
	}
	respond(c, http.StatusOK, "About info saved successfully.", saved)
}

func (h *Handler) SaveLegal(c *gin.Context) {
	var l about.Legal
	if err := h.bind(c, &l); err != nil {
		fail(c, "Invalid data.", err)
		return
	}
	saved, err := h.content.SaveLegal(c.Request.Context(), l)
	if err != nil {
		fail(c, "Failed to save legal pages.", err)
		return
	}
	respond(c, http.StatusOK, "Legal pages saved successfully.", saved)
}

func (h *Handler) CreateTestimonial(c *gin.Context) {
	var t about.Testimonial
	if err := h.bind(c, &t); err != nil {
		fail(c, "Invalid data.", err)
		return
	}
	saved, err := h.content.CreateTestimonial(c.Request.Context(), t)
	if err != nil {
		fail(c, "Failed to create testimonial.", err)
		return
	}
	respond(c, http.StatusCreated, "Testimonial created successfully.", saved)
}

func (h *Handler) SaveSocials(c *gin.Context) {
	var in about.NewSocials
	if err := h.bind(c, &in); err != nil {
		fail(c, "Invalid data.", err)
		return
	}
	saved, err := h.content.SaveSocials(c.Request.Context(), in)
	if err != nil {
		fail(c, "Failed to save social media links.", err)
		return
	}
	respond(c, http.StatusOK, "Social media links saved successfully.", saved)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
