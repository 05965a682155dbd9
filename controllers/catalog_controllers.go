package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/utils"
)

// CatalogController serves seating locations, suppliers and brands.
type CatalogController struct {
	Catalog *services.CatalogService
}

func NewCatalogController(catalog *services.CatalogService) *CatalogController {
	return &CatalogController{Catalog: catalog}
}

func (cc *CatalogController) GetLocations(c *gin.Context) {
	locations, err := cc.Catalog.ListLocations(c.Request.Context())
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of locations", locations)
}

func (cc *CatalogController) CreateLocation(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required,max=50"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	location, err := cc.Catalog.CreateLocation(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Location created", location)
}

func (cc *CatalogController) UpdateLocation(c *gin.Context) {
	id, ok := paramID(c, "location_id")
	if !ok {
		return
	}
	var req struct {
		Name        *string `json:"name" binding:"omitempty,min=1,max=50"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	location, err := cc.Catalog.UpdateLocation(c.Request.Context(), id, req.Name, req.Description)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Location updated", location)
}

func (cc *CatalogController) DeleteLocation(c *gin.Context) {
	id, ok := paramID(c, "location_id")
	if !ok {
		return
	}
	if err := cc.Catalog.DeleteLocation(c.Request.Context(), id); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Location deleted", gin.H{"id": id})
}

func (cc *CatalogController) GetSuppliers(c *gin.Context) {
	suppliers, err := cc.Catalog.ListSuppliers(c.Request.Context())
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of suppliers", suppliers)
}

func (cc *CatalogController) CreateSupplier(c *gin.Context) {
	var req struct {
		Name    string `json:"name" binding:"required,max=100"`
		TaxID   string `json:"tax_id" binding:"max=20"`
		Email   string `json:"email" binding:"omitempty,email"`
		Phone   string `json:"phone" binding:"max=20"`
		Address string `json:"address"`
		Notes   string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	supplier, err := cc.Catalog.CreateSupplier(c.Request.Context(), models.Supplier{
		Name:    req.Name,
		TaxID:   req.TaxID,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		Notes:   req.Notes,
	})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Supplier created", supplier)
}

func (cc *CatalogController) DeleteSupplier(c *gin.Context) {
	id, ok := paramID(c, "supplier_id")
	if !ok {
		return
	}
	if err := cc.Catalog.DeleteSupplier(c.Request.Context(), id); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Supplier deleted", gin.H{"id": id})
}

func (cc *CatalogController) GetBrands(c *gin.Context) {
	brands, err := cc.Catalog.ListBrands(c.Request.Context())
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of brands", brands)
}

func (cc *CatalogController) CreateBrand(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required,max=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	brand, err := cc.Catalog.CreateBrand(c.Request.Context(), req.Name)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Brand created", brand)
}

func (cc *CatalogController) DeleteBrand(c *gin.Context) {
	id, ok := paramID(c, "brand_id")
	if !ok {
		return
	}
	if err := cc.Catalog.DeleteBrand(c.Request.Context(), id); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Brand deleted", gin.H{"id": id})
}
