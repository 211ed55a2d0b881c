package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/orientwatch/backend/internal/domain"
)

type ProductRepo struct {
	db *sql.DB
}

func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

func (r *ProductRepo) Insert(p *domain.Product) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	res, err := r.db.Exec(
		`INSERT INTO products
		 (name, collection, price, image, images, description, features, specs,
		  in_stock, stock_quantity, sku, movement, case_material, dial_color,
		  water_resistance, seo_title, seo_description, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.Name, p.Collection, p.Price, p.Image, p.Images, p.Description,
		p.Features, p.Specs, boolToInt(p.InStock), p.StockQuantity, p.SKU,
		p.Movement, p.CaseMaterial, p.DialColor, p.WaterResistance,
		p.SEOTitle, p.SEODescription,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	p.ID, _ = res.LastInsertId()
	return nil
}

func (r *ProductRepo) Update(p *domain.Product) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := r.db.Exec(
		`UPDATE products SET name=?, collection=?, price=?, image=?, images=?,
		 description=?, features=?, specs=?, in_stock=?, stock_quantity=?,
		 sku=?, movement=?, case_material=?, dial_color=?, water_resistance=?,
		 seo_title=?, seo_description=?, updated_at=? WHERE id=?`,
		p.Name, p.Collection, p.Price, p.Image, p.Images, p.Description,
		p.Features, p.Specs, boolToInt(p.InStock), p.StockQuantity, p.SKU,
		p.Movement, p.CaseMaterial, p.DialColor, p.WaterResistance,
		p.SEOTitle, p.SEODescription,
		p.UpdatedAt.Format(time.RFC3339), p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *ProductRepo) Delete(id int64) error {
	res, err := r.db.Exec("DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *ProductRepo) GetByID(id int64) (*domain.Product, error) {
	row := r.db.QueryRow(selectProduct+" WHERE id = ?", id)
	return scanProductRow(row)
}

func (r *ProductRepo) GetBySKU(sku string) (*domain.Product, error) {
	row := r.db.QueryRow(selectProduct+" WHERE sku = ?", sku)
	return scanProductRow(row)
}

func (r *ProductRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM products").Scan(&count)
	return count, err
}

type ProductFilter struct {
	Search          string
	Collection      string
	MinPrice        int64
	MaxPrice        int64
	Movement        string
	CaseMaterial    string
	DialColor       string
	WaterResistance string
	InStockOnly     bool
	Page            int
	Limit           int
}

func (r *ProductRepo) List(f ProductFilter) ([]domain.Product, int, error) {
	where, args := buildProductWhere(f)

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM products"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	rows, err := r.db.Query(selectProduct+where+" ORDER BY id LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProductRows(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		products = append(products, *p)
	}
	return products, total, rows.Err()
}

// All returns every product, for export and the sitemap.
func (r *ProductRepo) All() ([]domain.Product, error) {
	rows, err := r.db.Query(selectProduct + " ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProductRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// --- helpers ---

const selectProduct = `SELECT id, name, collection, price, image, images,
	description, features, specs, in_stock, stock_quantity, sku, movement,
	case_material, dial_color, water_resistance, seo_title, seo_description,
	created_at, updated_at FROM products`

func buildProductWhere(f ProductFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.Search != "" {
		clauses = append(clauses, "name LIKE ?")
		args = append(args, "%"+f.Search+"%")
	}
	if f.Collection != "" {
		clauses = append(clauses, "collection = ?")
		args = append(args, f.Collection)
	}
	if f.MinPrice > 0 {
		clauses = append(clauses, "price >= ?")
		args = append(args, f.MinPrice)
	}
	if f.MaxPrice > 0 {
		clauses = append(clauses, "price <= ?")
		args = append(args, f.MaxPrice)
	}
	if f.Movement != "" {
		clauses = append(clauses, "movement = ?")
		args = append(args, f.Movement)
	}
	if f.CaseMaterial != "" {
		clauses = append(clauses, "case_material = ?")
		args = append(args, f.CaseMaterial)
	}
	if f.DialColor != "" {
		clauses = append(clauses, "dial_color = ?")
		args = append(args, f.DialColor)
	}
	if f.WaterResistance != "" {
		clauses = append(clauses, "water_resistance = ?")
		args = append(args, f.WaterResistance)
	}
	if f.InStockOnly {
		clauses = append(clauses, "in_stock = 1")
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func scanProductRow(row *sql.Row) (*domain.Product, error) {
	var p domain.Product
	var inStock int
	var createdAt, updatedAt string
	err := row.Scan(&p.ID, &p.Name, &p.Collection, &p.Price, &p.Image,
		&p.Images, &p.Description, &p.Features, &p.Specs, &inStock,
		&p.StockQuantity, &p.SKU, &p.Movement, &p.CaseMaterial, &p.DialColor,
		&p.WaterResistance, &p.SEOTitle, &p.SEODescription,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	p.InStock = inStock != 0
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

func scanProductRows(rows *sql.Rows) (*domain.Product, error) {
	var p domain.Product
	var inStock int
	var createdAt, updatedAt string
	err := rows.Scan(&p.ID, &p.Name, &p.Collection, &p.Price, &p.Image,
		&p.Images, &p.Description, &p.Features, &p.Specs, &inStock,
		&p.StockQuantity, &p.SKU, &p.Movement, &p.CaseMaterial, &p.DialColor,
		&p.WaterResistance, &p.SEOTitle, &p.SEODescription,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	p.InStock = inStock != 0
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}
