package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/scanprice/internal/importer"
	productdomain "github.com/smallbiznis/scanprice/internal/product/domain"
)

type createProductRequest struct {
	Name               string   `json:"name"`
	Price              float64  `json:"price"`
	Discount           *float64 `json:"discount"`
	DiscountExpiration *string  `json:"discountExpiration"`
	Description        string   `json:"description"`
	Stock              *int64   `json:"stock"`
	ImageURL           string   `json:"imageUrl"`
}

// updateProductRequest carries the edit form. Omitted fields keep their
// current value; an empty discountExpiration clears it.
type updateProductRequest struct {
	Name               *string  `json:"name"`
	Price              *float64 `json:"price"`
	Discount           *float64 `json:"discount"`
	DiscountExpiration *string  `json:"discountExpiration"`
	Description        *string  `json:"description"`
	Stock              *int64   `json:"stock"`
	ImageURL           *string  `json:"imageUrl"`
}

type bulkScanRequest struct {
	IDs []string `json:"ids"`
}

type decrementRequest struct {
	Quantity int64 `json:"quantity"`
}

type salesRequest struct {
	Entries []productdomain.SaleEntry `json:"entries"`
}

type batchRequest struct {
	Rows []productdomain.UploadRow `json:"rows"`
}

func (s *Server) ListProducts(c *gin.Context) {
	status := productdomain.Status(strings.TrimSpace(c.Query("status")))

	items := s.productSvc.List(c.Request.Context())
	if status != "" {
		filtered := make([]productdomain.WithStatus, 0, len(items))
		for _, item := range items {
			if item.Status == status {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) GetProductByID(c *gin.Context) {
	item, err := s.productSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": s.withURL(item)})
}

func (s *Server) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	expiration, _, err := parseOptionalDate(req.DiscountExpiration)
	if err != nil {
		AbortWithError(c, newValidationError("discountExpiration", "invalid_discount_expiration", "invalid discount expiration"))
		return
	}

	draft := productdomain.Draft{
		Name:               strings.TrimSpace(req.Name),
		Price:              req.Price,
		Discount:           req.Discount,
		DiscountExpiration: expiration,
		Description:        strings.TrimSpace(req.Description),
		Stock:              req.Stock,
		ImageURL:           strings.TrimSpace(req.ImageURL),
	}
	if err := productdomain.ValidateDraft(draft); err != nil {
		AbortWithError(c, err)
		return
	}

	created, ok := s.productSvc.AddProduct(c.Request.Context(), draft)
	if !ok {
		AbortWithError(c, productdomain.ErrStoreWrite)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": s.withURL(productdomain.WithStatus{
		Product: created,
		Status:  productdomain.DeriveStatus(created),
	})})
}

func (s *Server) UpdateProduct(c *gin.Context) {
	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	current, err := s.productSvc.Get(ctx, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	next := current.Product
	if req.Name != nil {
		next.Name = strings.TrimSpace(*req.Name)
	}
	if req.Price != nil {
		next.Price = *req.Price
	}
	if req.Discount != nil {
		next.Discount = *req.Discount
	}
	if req.Description != nil {
		next.Description = strings.TrimSpace(*req.Description)
	}
	if req.Stock != nil {
		next.Stock = *req.Stock
	}
	if req.ImageURL != nil {
		next.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if req.DiscountExpiration != nil {
		expiration, _, err := parseOptionalDate(req.DiscountExpiration)
		if err != nil {
			AbortWithError(c, newValidationError("discountExpiration", "invalid_discount_expiration", "invalid discount expiration"))
			return
		}
		next.DiscountExpiration = expiration
	}
	if err := productdomain.ValidateProduct(next); err != nil {
		AbortWithError(c, err)
		return
	}

	if !s.productSvc.EditProduct(ctx, next) {
		AbortWithError(c, productdomain.ErrStoreWrite)
		return
	}

	s.respondWithProduct(c, next.ID)
}

func (s *Server) DeleteProduct(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := s.productSvc.Get(ctx, id); err != nil {
		AbortWithError(c, err)
		return
	}

	if !s.productSvc.DeleteProduct(ctx, id) {
		AbortWithError(c, productdomain.ErrStoreWrite)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ScanProduct(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := s.productSvc.Get(ctx, id); err != nil {
		AbortWithError(c, err)
		return
	}

	if !s.productSvc.IncrementScan(ctx, id) {
		AbortWithError(c, productdomain.ErrStoreWrite)
		return
	}

	s.respondWithProduct(c, id)
}

func (s *Server) BulkScanProducts(c *gin.Context) {
	var req bulkScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(req.IDs) == 0 {
		AbortWithError(c, newValidationError("ids", "required", "ids is required"))
		return
	}

	if !s.productSvc.BulkIncrementScan(c.Request.Context(), req.IDs) {
		AbortWithError(c, productdomain.ErrStoreWrite)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": s.productSvc.List(c.Request.Context())})
}

func (s *Server) DecrementProductStock(c *gin.Context) {
	var req decrementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Quantity <= 0 {
		AbortWithError(c, newValidationError("quantity", "invalid_quantity", "quantity must be positive"))
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := s.productSvc.Get(ctx, id); err != nil {
		AbortWithError(c, err)
		return
	}

	if !s.productSvc.DecrementStock(ctx, id, req.Quantity) {
		AbortWithError(c, productdomain.ErrStoreWrite)
		return
	}

	s.respondWithProduct(c, id)
}

func (s *Server) RecordSales(c *gin.Context) {
	var req salesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(req.Entries) == 0 {
		AbortWithError(c, newValidationError("entries", "required", "entries is required"))
		return
	}

	if !s.productSvc.ProcessSales(c.Request.Context(), req.Entries) {
		AbortWithError(c, productdomain.ErrStoreWrite)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": s.productSvc.List(c.Request.Context())})
}

func (s *Server) BatchUpsertProducts(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(req.Rows) == 0 {
		AbortWithError(c, newValidationError("rows", "required", "rows is required"))
		return
	}
	for i := range req.Rows {
		req.Rows[i].ID = strings.TrimSpace(req.Rows[i].ID)
		req.Rows[i].Name = strings.TrimSpace(req.Rows[i].Name)
		if err := productdomain.ValidateUploadRow(req.Rows[i]); err != nil {
			AbortWithError(c, err)
			return
		}
	}

	if !s.productSvc.AddProductsBatch(c.Request.Context(), req.Rows) {
		AbortWithError(c, productdomain.ErrStoreWrite)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": s.productSvc.List(c.Request.Context())})
}

func (s *Server) RefreshProducts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.productSvc.Refresh(c.Request.Context())})
}

func (s *Server) GetDashboard(c *gin.Context) {
	ctx := c.Request.Context()

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"summary":       s.productSvc.Summary(ctx),
		"notifications": notificationViews(s.notificationSvc.List(ctx)),
	}})
}

type productResponse struct {
	productdomain.WithStatus
	URL string `json:"url"`
}

func (s *Server) withURL(item productdomain.WithStatus) productResponse {
	return productResponse{WithStatus: item, URL: s.catalogSvc.URL(item.ID)}
}

func (s *Server) respondWithProduct(c *gin.Context, id string) {
	item, err := s.productSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s.withURL(item)})
}

// parseOptionalDate accepts the same date formats as spreadsheet imports.
// The second result reports whether a value was present; an empty string
// clears.
func parseOptionalDate(value *string) (*time.Time, bool, error) {
	if value == nil {
		return nil, false, nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil, true, nil
	}
	parsed, err := importer.ParseDate(trimmed)
	if err != nil {
		return nil, true, err
	}
	return &parsed, true, nil
}
