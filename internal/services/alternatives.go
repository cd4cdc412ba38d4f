package services

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"

	"greenlens/internal/models"
	"greenlens/internal/repositories"
)

// minAlternatives is the result size below which the search is broadened
const minAlternatives = 2

// Alternatives returns lower-impact substitutes for a stored product
func (s *productService) Alternatives(ctx context.Context, barcode string) ([]models.Alternative, error) {
	product, err := s.GetProduct(ctx, barcode)
	if err != nil {
		return nil, err
	}
	return s.findAlternatives(ctx, product), nil
}

// findAlternatives never fails; lookup errors yield an empty list
func (s *productService) findAlternatives(ctx context.Context, product *models.Product) []models.Alternative {
	alternatives := []models.Alternative{}
	if !product.EcoScore.NeedsAlternatives() {
		return alternatives
	}
	keyword := product.PrimaryCategory()
	if keyword == "" {
		return alternatives
	}

	limit := s.config.MaxAlternatives
	if limit <= 0 {
		limit = 3
	}

	found, err := s.productRepo.FindAlternatives(ctx, repositories.AlternativeQuery{
		CategoryContains: keyword,
		FootprintBelow:   product.CarbonFootprint,
		Grades:           models.DefaultEcoGrades,
		ExcludeBarcodes:  []string{product.Barcode},
		Limit:            limit,
	})
	if err != nil {
		s.logger.Warn("Alternative search failed", zap.String("barcode", product.Barcode), zap.Error(err))
		return alternatives
	}

	if len(found) < minAlternatives && len(found) < limit {
		exclude := []string{product.Barcode}
		for _, p := range found {
			exclude = append(exclude, p.Barcode)
		}
		broader, err := s.productRepo.FindAlternatives(ctx, repositories.AlternativeQuery{
			CategoryContains:    firstWord(keyword),
			RawCategoryContains: keyword,
			FootprintBelow:      product.CarbonFootprint,
			Grades:              models.DefaultEcoGrades,
			ExcludeBarcodes:     exclude,
			Limit:               limit - len(found),
		})
		if err != nil {
			s.logger.Warn("Broadened alternative search failed", zap.String("barcode", product.Barcode), zap.Error(err))
		} else {
			found = append(found, broader...)
		}
	}

	for _, alt := range found {
		alternatives = append(alternatives, models.Alternative{
			Product:         alt,
			CarbonReduction: carbonReduction(product.CarbonFootprint, alt.CarbonFootprint),
		})
	}
	return alternatives
}

// carbonReduction is the saving in whole percent of the original footprint
func carbonReduction(original, alternative float64) int {
	if original <= 0 {
		return 0
	}
	return int(math.Round((original - alternative) / original * 100))
}

func firstWord(s string) string {
	if fields := strings.Fields(s); len(fields) > 0 {
		return fields[0]
	}
	return s
}
