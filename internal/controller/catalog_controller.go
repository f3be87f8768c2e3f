package controller

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jt828/go-http-template/pkg/apperror"
	"github.com/jt828/go-http-template/pkg/model"
)

// CatalogController serves fixed data. It exists so the service has real
// routes to instrument.
type CatalogController struct {
	products     []model.Product
	supermarkets []model.Supermarket
}

func NewCatalogController() *CatalogController {
	return &CatalogController{
		products: []model.Product{
			{Name: "banana", Price: 1.2},
			{Name: "maçã", Price: 2.3},
		},
		supermarkets: []model.Supermarket{
			{Name: "Pingo Doce", Location: "Lisboa"},
			{Name: "Continente", Location: "Porto"},
		},
	}
}

func (ctrl *CatalogController) Home(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, http.StatusOK, map[string]string{"message": "API em execução"})
}

func (ctrl *CatalogController) ListProducts(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, http.StatusOK, ctrl.products)
}

func (ctrl *CatalogController) ListSupermarkets(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, http.StatusOK, ctrl.supermarkets)
}

func (ctrl *CatalogController) CreateOrder(w http.ResponseWriter, r *http.Request) error {
	var order model.Order
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		return fmt.Errorf("decode order: %v: %w", err, apperror.ErrInvalidArgument)
	}
	if order.Supermarket == "" {
		return fmt.Errorf("supermercado is required: %w", apperror.ErrInvalidArgument)
	}
	if len(order.Products) == 0 {
		return fmt.Errorf("produtos is required: %w", apperror.ErrInvalidArgument)
	}
	for _, line := range order.Products {
		if line.Quantity <= 0 {
			return fmt.Errorf("quantidade for %q must be greater than 0: %w", line.Product, apperror.ErrInvalidArgument)
		}
	}

	return writeJSON(w, http.StatusCreated, map[string]string{"status": "Encomenda criada com sucesso"})
}

func (ctrl *CatalogController) Impact(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, http.StatusOK, map[string]string{"impacto": "baixo"})
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}
