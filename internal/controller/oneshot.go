package controller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/claude/planform/internal/models"
)

// CatalogView is the option catalog plus, in derived mode, its focus index.
type CatalogView struct {
	Focus       []string            `json:"focus"`
	Subcategory []string            `json:"subcategory"`
	Access      []string            `json:"access"`
	Index       map[string][]string `json:"index,omitempty"`
}

// Catalog returns the catalog part of the view.
func (v *CatalogView) Catalog() *models.OptionCatalog {
	return &models.OptionCatalog{Focus: v.Focus, Subcategory: v.Subcategory, Access: v.Access}
}

// DescribeCatalog reads the catalog from src and indexes it for mode.
func DescribeCatalog(ctx context.Context, src Source, mode Mode) (*CatalogView, error) {
	catalog, err := src.FetchOptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading options: %w", err)
	}
	view := &CatalogView{
		Focus:       catalog.Focus,
		Subcategory: catalog.Subcategory,
		Access:      catalog.Access,
	}
	if mode == ModeDerived {
		idx, err := models.BuildSubcategoryIndex(catalog.Subcategory)
		if err != nil {
			return nil, fmt.Errorf("indexing subcategories: %w", err)
		}
		view.Index = idx.Map()
	}
	return view, nil
}

// Generate runs a single submission on a throwaway controller. In derived mode
// an empty subcategory is filled the way the form would fill it: the first
// subcategory of the focus, or the focus itself when it has none.
func Generate(ctx context.Context, src Source, mode Mode, sel models.FormSelection, log *slog.Logger) (*Submission, error) {
	ctl := New(src, mode, log)
	if mode == ModeDerived && sel.Subcategory == "" {
		if err := ctl.Initialize(ctx); err != nil {
			return nil, err
		}
		sel.Subcategory = ctl.FocusChanged(sel.Focus).Selected
	}
	if sel.Days == "" {
		sel.Days = DefaultDays
	}
	return ctl.Submit(ctx, sel)
}
