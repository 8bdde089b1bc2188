package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/shamsfin/shamsi/internal/cache"
	"github.com/shamsfin/shamsi/internal/context"
	"github.com/shamsfin/shamsi/internal/errHandler"
	"github.com/shamsfin/shamsi/internal/models"
	"github.com/shamsfin/shamsi/internal/repository"
	"github.com/shamsfin/shamsi/internal/request"
	"github.com/shamsfin/shamsi/internal/response"
	"github.com/shamsfin/shamsi/internal/stream"
	"github.com/shamsfin/shamsi/internal/validator"
)

const (
	ProductAuditCreatedAction = "product.created"
	ProductAuditUpdatedAction = "product.updated"

	productListCacheKey = "products:active"
	productCacheTTL     = 5 * time.Minute
)

func productCacheKey(id string) string {
	return "products:" + id
}

type ProductResponseData struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	PanelCount  int     `json:"panel_count"`
	CapacityKW  float64 `json:"capacity_kw"`
	PriceSAR    float64 `json:"price_sar"`
	Active      bool    `json:"active"`
}

type ProductHandler struct {
	ProductRepo repository.ProductRepository
	Cache       *cache.Tiered
	Kafka       *stream.KafkaStream
	ErrHandler  *errHandler.ErrorRepository
}

func NewProductHandler(handler *ProductHandler) *ProductHandler {
	return &ProductHandler{
		ProductRepo: handler.ProductRepo,
		Cache:       handler.Cache,
		Kafka:       handler.Kafka,
		ErrHandler:  handler.ErrHandler,
	}
}

// HandleListProducts serves the public catalog. The list is read on every
// visit to the storefront, so it is cached and only invalidated when an
// admin changes the catalog.
func (h *ProductHandler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	message := "Data retrieved successfully"

	if cached, found := h.Cache.Get(productListCacheKey); found {
		var data []*ProductResponseData
		if err := json.Unmarshal([]byte(cached), &data); err == nil {
			err = response.JSONOkResponse(w, data, message, nil)
			if err != nil {
				h.ErrHandler.ServerError(w, r, err)
			}
			return
		}
	}

	products, err := h.ProductRepo.GetAllActive()
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*ProductResponseData, len(products))
	for i := range products {
		data[i] = newProductResponse(&products[i])
	}

	if encoded, err := json.Marshal(data); err == nil {
		if err := h.Cache.Set(productListCacheKey, string(encoded), productCacheTTL); err != nil {
			log.Printf("Error caching product list: %v", err)
		}
	}

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *ProductHandler) HandleSingleProduct(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("id")
	message := "Data retrieved successfully"

	if cached, found := h.Cache.Get(productCacheKey(productID)); found {
		var data ProductResponseData
		if err := json.Unmarshal([]byte(cached), &data); err == nil {
			err = response.JSONOkResponse(w, &data, message, nil)
			if err != nil {
				h.ErrHandler.ServerError(w, r, err)
			}
			return
		}
	}

	product, found, err := h.ProductRepo.GetOne(productID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found || !product.Active {
		h.ErrHandler.NotFound(w, r)
		return
	}

	data := newProductResponse(product)

	if encoded, err := json.Marshal(data); err == nil {
		if err := h.Cache.Set(productCacheKey(productID), string(encoded), productCacheTTL); err != nil {
			log.Printf("Error caching product: %v", err)
		}
	}

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *ProductHandler) HandleCreateProduct(w http.ResponseWriter, r *http.Request) {
	admin := context.ContextGetAuthenticatedUser(r)

	input, ok := h.decodeProductInput(w, r)
	if !ok {
		return
	}

	product := &models.Product{
		Name:        input.Name,
		Slug:        slugify(input.Name),
		Description: input.Description,
		PanelCount:  input.PanelCount,
		CapacityKW:  input.CapacityKW,
		PriceSAR:    input.PriceSAR,
		Active:      input.Active,
	}

	productID, err := h.ProductRepo.Insert(product)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	product.ID = productID

	h.invalidateCatalogCache()
	h.auditCatalogChange(admin.ID, productID, ProductAuditCreatedAction)

	message := "Product created successfully"
	err = response.JSONCreatedResponse(w, newProductResponse(product), message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *ProductHandler) HandleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("id")
	admin := context.ContextGetAuthenticatedUser(r)

	input, ok := h.decodeProductInput(w, r)
	if !ok {
		return
	}

	product := &models.Product{
		Name:        input.Name,
		Slug:        slugify(input.Name),
		Description: input.Description,
		PanelCount:  input.PanelCount,
		CapacityKW:  input.CapacityKW,
		PriceSAR:    input.PriceSAR,
		Active:      input.Active,
	}

	updated, err := h.ProductRepo.Update(productID, product)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !updated {
		h.ErrHandler.NotFound(w, r)
		return
	}
	product.ID = productID

	h.invalidateCatalogCache()
	if err := h.Cache.Delete(productCacheKey(productID)); err != nil {
		log.Printf("Error invalidating product cache: %v", err)
	}
	h.auditCatalogChange(admin.ID, productID, ProductAuditUpdatedAction)

	message := "Product updated successfully"
	err = response.JSONOkResponse(w, newProductResponse(product), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

type productInput struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	PanelCount  int                 `json:"panel_count"`
	CapacityKW  float64             `json:"capacity_kw"`
	PriceSAR    float64             `json:"price_sar"`
	Active      bool                `json:"active"`
	Validator   validator.Validator `json:"-"`
}

func (h *ProductHandler) decodeProductInput(w http.ResponseWriter, r *http.Request) (*productInput, bool) {
	var input productInput

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return nil, false
	}

	input.Validator.Check(validator.NotBlank(input.Name), "Name is required")
	input.Validator.Check(validator.NotBlank(input.Description), "Description is required")
	input.Validator.Check(input.PanelCount > 0, "Panel count must be positive")
	input.Validator.Check(input.CapacityKW > 0, "Capacity must be positive")
	input.Validator.Check(input.PriceSAR > 0, "Price must be positive")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return nil, false
	}

	return &input, true
}

func (h *ProductHandler) invalidateCatalogCache() {
	if err := h.Cache.Delete(productListCacheKey); err != nil {
		log.Printf("Error invalidating product cache: %v", err)
	}
}

func (h *ProductHandler) auditCatalogChange(adminID, productID, action string) {
	publishAudit(h.Kafka, &AuditTrailEvent{
		ActorID:  adminID,
		Entity:   repository.AuditProductEntity,
		EntityID: productID,
		Action:   action,
	})
}

func newProductResponse(product *models.Product) *ProductResponseData {
	return &ProductResponseData{
		ID:          product.ID,
		Name:        product.Name,
		Slug:        product.Slug,
		Description: product.Description,
		PanelCount:  product.PanelCount,
		CapacityKW:  product.CapacityKW,
		PriceSAR:    product.PriceSAR,
		Active:      product.Active,
	}
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "-")

	var b strings.Builder
	for _, r := range slug {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}

	return b.String()
}
