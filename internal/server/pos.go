package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type addCartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

func (s *Server) CreateCart(c *gin.Context) {
	c.JSON(http.StatusCreated, gin.H{"data": s.posSvc.Create(c.Request.Context())})
}

func (s *Server) GetCart(c *gin.Context) {
	view, err := s.posSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (s *Server) AddCartItem(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	view, err := s.posSvc.Add(c.Request.Context(), c.Param("id"), strings.TrimSpace(req.ProductID), req.Quantity)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (s *Server) RemoveCartItem(c *gin.Context) {
	view, err := s.posSvc.Remove(c.Request.Context(), c.Param("id"), c.Param("productId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (s *Server) CheckoutCart(c *gin.Context) {
	view, err := s.posSvc.Checkout(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": view})
}
