// Package catalog loads the furniture catalog from its CSV source and turns
// rows into validated domain products. Bad rows are rejected individually;
// the load as a whole fails only when nothing valid remains.
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/furnimatch/furnimatch/internal/domain"
	"github.com/furnimatch/furnimatch/internal/domain/product"
)

// Reject describes a catalog row excluded during loading.
type Reject struct {
	Line   int
	ID     string
	Reason string
}

// Loader reads catalog CSV files.
type Loader struct {
	path   string
	logger *zap.Logger
}

// NewLoader creates a catalog loader for the given CSV path.
func NewLoader(path string, logger *zap.Logger) *Loader {
	return &Loader{path: path, logger: logger}
}

// Load reads and validates the catalog, logging every rejected row.
// Duplicate uniq_id rows keep the first occurrence. Returns
// domain.ErrEmptyCatalog when no valid records remain.
func (l *Loader) Load() ([]product.Product, error) {
	f, err := os.Open(filepath.Clean(l.path))
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", l.path, err)
	}
	defer f.Close()

	products, rejects, err := l.read(f)
	if err != nil {
		return nil, err
	}

	for _, r := range rejects {
		l.logger.Warn("Catalog row rejected",
			zap.Int("line", r.Line),
			zap.String("uniq_id", r.ID),
			zap.String("reason", r.Reason),
		)
	}

	if len(products) == 0 {
		return nil, fmt.Errorf("%s: %w", l.path, domain.ErrEmptyCatalog)
	}

	l.logger.Info("Catalog loaded",
		zap.String("path", l.path),
		zap.Int("products", len(products)),
		zap.Int("rejected", len(rejects)),
	)
	return products, nil
}

func (l *Loader) read(f io.Reader) ([]product.Product, []Reject, error) {
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged rows are handled per-field

	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read catalog header: %w", err)
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return nil, nil, err
	}

	var products []product.Product
	var rejects []Reject
	seen := make(map[string]struct{})

	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rejects = append(rejects, Reject{Line: line, Reason: "malformed csv row: " + err.Error()})
			continue
		}

		p, reject := buildProduct(row, cols, seen)
		if reject != "" {
			rejects = append(rejects, Reject{Line: line, ID: cols.field(row, cols.uniqID), Reason: reject})
			continue
		}

		seen[p.ID()] = struct{}{}
		products = append(products, p)
	}

	return products, rejects, nil
}

// buildProduct converts a CSV row into a validated product.
// Returns a non-empty reject reason on failure.
func buildProduct(row []string, cols columns, seen map[string]struct{}) (product.Product, string) {
	id := cols.field(row, cols.uniqID)
	if id == "" {
		return product.Product{}, "missing uniq_id"
	}
	if _, dup := seen[id]; dup {
		return product.Product{}, "duplicate uniq_id"
	}

	price, err := parsePrice(cols.field(row, cols.price))
	if err != nil {
		return product.Product{}, err.Error()
	}

	p, err := product.New(
		id,
		cols.field(row, cols.title),
		normalizeBrand(cols.field(row, cols.brand)),
		cols.field(row, cols.description),
		price,
		parseCategories(cols.field(row, cols.categories)),
		cols.field(row, cols.material),
		cols.field(row, cols.color),
		extractFirstImage(cols.field(row, cols.images)),
	)
	if err != nil {
		return product.Product{}, err.Error()
	}

	return p.WithProvenance(
		cols.field(row, cols.manufacturer),
		cols.field(row, cols.countryOfOrigin),
	), ""
}

// columns holds resolved header indexes (-1 = column absent).
type columns struct {
	uniqID          int
	title           int
	brand           int
	price           int
	categories      int
	description     int
	images          int
	material        int
	color           int
	manufacturer    int
	countryOfOrigin int
}

func (c columns) field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func resolveColumns(header []string) (columns, error) {
	cols := columns{
		uniqID: -1, title: -1, brand: -1, price: -1, categories: -1,
		description: -1, images: -1, material: -1, color: -1,
		manufacturer: -1, countryOfOrigin: -1,
	}
	for i, name := range header {
		switch name {
		case "uniq_id":
			cols.uniqID = i
		case "title":
			cols.title = i
		case "brand":
			cols.brand = i
		case "price":
			cols.price = i
		case "categories":
			cols.categories = i
		case "description":
			cols.description = i
		case "images":
			cols.images = i
		case "material":
			cols.material = i
		case "color":
			cols.color = i
		case "manufacturer":
			cols.manufacturer = i
		case "country_of_origin":
			cols.countryOfOrigin = i
		}
	}

	for name, idx := range map[string]int{
		"uniq_id": cols.uniqID, "title": cols.title, "price": cols.price,
	} {
		if idx < 0 {
			return columns{}, fmt.Errorf("catalog header missing required column %q", name)
		}
	}
	return cols, nil
}
