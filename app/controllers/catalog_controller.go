package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/orderdesk/app/resources"
	"github.com/shashiranjanraj/orderdesk/app/services"
	"github.com/shashiranjanraj/orderdesk/pkg/bind"
	"github.com/shashiranjanraj/orderdesk/pkg/resource"
	"github.com/shashiranjanraj/orderdesk/pkg/response"
)

// CatalogController serves customers and their products.
type CatalogController struct {
	service *services.CatalogService
}

func NewCatalogController(service *services.CatalogService) *CatalogController {
	return &CatalogController{service: service}
}

func (c *CatalogController) Customers(w http.ResponseWriter, r *http.Request) {
	customers, err := c.service.Customers(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, resource.Collection(resources.CustomerOption, customers))
}

func (c *CatalogController) StoreCustomer(w http.ResponseWriter, r *http.Request) {
	var in services.CustomerInput
	if err := bind.Decode(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	customer, err := c.service.CreateCustomer(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	resource.RespondCreated(w, resources.CustomerOption, customer)
}

// CustomerProducts lists the products a customer's orders may contain.
func (c *CatalogController) CustomerProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		response.NotFound(w)
		return
	}
	products, err := c.service.Products(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, resource.Collection(resources.ProductOption, products))
}

func (c *CatalogController) StoreProduct(w http.ResponseWriter, r *http.Request) {
	var in services.ProductInput
	if err := bind.Decode(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	product, err := c.service.CreateProduct(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	resource.RespondCreated(w, resources.ProductOption, product)
}
