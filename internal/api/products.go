package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/orientwatch/backend/internal/currency"
	"github.com/orientwatch/backend/internal/domain"
	"github.com/orientwatch/backend/internal/excel"
	"github.com/orientwatch/backend/internal/repository"
)

// productPayload is the admin create/update body. Price arrives in sums and
// is converted to tiyin at this boundary.
type productPayload struct {
	Name            string            `json:"name"`
	Collection      string            `json:"collection"`
	Price           decimal.Decimal   `json:"price"`
	Image           string            `json:"image"`
	Images          []string          `json:"images"`
	Description     string            `json:"description"`
	Features        []string          `json:"features"`
	Specs           map[string]string `json:"specs"`
	InStock         bool              `json:"inStock"`
	StockQuantity   int               `json:"stockQuantity"`
	SKU             string            `json:"sku"`
	Movement        string            `json:"movement"`
	CaseMaterial    string            `json:"caseMaterial"`
	DialColor       string            `json:"dialColor"`
	WaterResistance string            `json:"waterResistance"`
	SEOTitle        string            `json:"seoTitle"`
	SEODescription  string            `json:"seoDescription"`
}

func (p *productPayload) toDomain() (*domain.Product, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	price, err := currency.ToTiyin(p.Price)
	if err != nil {
		return nil, err
	}

	images, _ := json.Marshal(orEmpty(p.Images))
	features, _ := json.Marshal(orEmpty(p.Features))
	specs := p.Specs
	if specs == nil {
		specs = map[string]string{}
	}
	specsJSON, _ := json.Marshal(specs)

	return &domain.Product{
		Name:            p.Name,
		Collection:      p.Collection,
		Price:           price,
		Image:           p.Image,
		Images:          string(images),
		Description:     p.Description,
		Features:        string(features),
		Specs:           string(specsJSON),
		InStock:         p.InStock,
		StockQuantity:   p.StockQuantity,
		SKU:             p.SKU,
		Movement:        p.Movement,
		CaseMaterial:    p.CaseMaterial,
		DialColor:       p.DialColor,
		WaterResistance: p.WaterResistance,
		SEOTitle:        p.SEOTitle,
		SEODescription:  p.SEODescription,
	}, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ListProducts serves the public catalog with filters and pagination.
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.ProductFilter{
		Search:          q.Get("search"),
		Collection:      q.Get("collection"),
		MinPrice:        parseInt64(q.Get("minPrice")),
		MaxPrice:        parseInt64(q.Get("maxPrice")),
		Movement:        q.Get("movement"),
		CaseMaterial:    q.Get("caseMaterial"),
		DialColor:       q.Get("dialColor"),
		WaterResistance: q.Get("waterResistance"),
		Page:            parseIntDefault(q.Get("page"), 1),
		Limit:           parseIntDefault(q.Get("limit"), 20),
	}

	products, total, err := h.products.List(filter)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"data": products,
		"pagination": map[string]int{
			"page":  filter.Page,
			"limit": filter.Limit,
			"total": total,
		},
	})
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	p, err := h.products.GetByID(id)
	if errors.Is(err, sql.ErrNoRows) {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var payload productPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	p, err := payload.toDomain()
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.products.Insert(p); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusCreated, p)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var payload productPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	p, err := payload.toDomain()
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p.ID = id

	if err := h.products.Update(p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.products.Delete(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// --- collections ---

func (h *Handlers) ListCollections(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") == ""
	collections, err := h.collections.List(activeOnly)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": collections})
}

func (h *Handlers) UpsertCollection(w http.ResponseWriter, r *http.Request) {
	var c domain.Collection
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if c.ID == "" || c.Name == "" {
		h.writeError(w, http.StatusBadRequest, "id and name are required")
		return
	}

	if err := h.collections.Upsert(&c); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

func (h *Handlers) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.collections.Delete(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.writeError(w, http.StatusNotFound, "collection not found")
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "collection deleted"})
}

// --- excel export / import ---

func (h *Handlers) ExportProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.All()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	buf, err := excel.Export(products)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="products.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.log.Error().Err(err).Msg("write export")
	}
}

func (h *Handlers) ImportProducts(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "file field is required: "+err.Error())
		return
	}
	defer file.Close()

	result, err := excel.Import(file, h.products)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}
