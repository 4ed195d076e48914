package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/handler/response"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

const imageFormField = "image"

type ProductHandler struct {
	products       service.ProductService
	log            logger.Logger
	maxUploadBytes int64
}

func NewProductHandler(products service.ProductService, log logger.Logger, maxUploadBytes int64) *ProductHandler {
	return &ProductHandler{products: products, log: log.Named("ProductHTTPHandler"), maxUploadBytes: maxUploadBytes}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	list, err := h.products.List(r.Context(), r.URL.Query().Get("category"), page, limit)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, "Products retrieved", list)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, "Product retrieved", product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateProductInput
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, h.log, err)
		return
	}
	product, err := h.products.Create(r.Context(), req)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.Created(w, "Product created", product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateProductInput
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, h.log, err)
		return
	}
	product, err := h.products.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, "Product updated", product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, "Product deleted", nil)
}

func (h *ProductHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Fail(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("image must be at most %d bytes", h.maxUploadBytes))
			return
		}
		response.FromError(w, h.log, fmt.Errorf("%w: expected multipart form with an %q file", service.ErrValidation, imageFormField))
		return
	}
	file, header, err := r.FormFile(imageFormField)
	if err != nil {
		response.FromError(w, h.log, fmt.Errorf("%w: missing %q file", service.ErrValidation, imageFormField))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.FromError(w, h.log, fmt.Errorf("could not read uploaded image: %w", err))
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	product, err := h.products.UploadImage(r.Context(), chi.URLParam(r, "id"), header.Filename, contentType, data)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, "Image uploaded", product)
}
