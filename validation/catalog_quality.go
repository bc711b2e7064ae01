package validation

import (
	"fmt"

	"github.com/qubesight-bit/gosafe.lat-sub000/catalog"
	"github.com/qubesight-bit/gosafe.lat-sub000/interfaces"
	"github.com/qubesight-bit/gosafe.lat-sub000/logging"
)

// ReportCatalogQuality lists the gaps a reviewer of the curated data should
// look at. None of them stop the service from starting.
func ReportCatalogQuality(c *catalog.Catalog) *interfaces.CatalogQualityReport {
	report := &interfaces.CatalogQualityReport{}

	for _, s := range c.Substances() {
		if len(s.Sources) == 0 {
			report.SubstancesWithoutSources = append(report.SubstancesWithoutSources, s.Name)
		}
	}

	for _, r := range c.Interactions() {
		label := fmt.Sprintf("%s + %s", r.SubstanceA, r.SubstanceB)
		if len(r.Sources) == 0 {
			report.InteractionsWithoutSources = append(report.InteractionsWithoutSources, label)
		}
		if r.AnecdotalOnly() {
			report.AnecdotalOnlyInteractions = append(report.AnecdotalOnlyInteractions, label)
		}
		for _, side := range []string{r.SubstanceA, r.SubstanceB} {
			if _, ok := c.Substance(side); !ok {
				report.UnknownInteractionNames = append(report.UnknownInteractionNames, side)
			}
		}
	}

	if m := c.Matrix(); m != nil && len(m.Substances()) > 1 {
		grid := m.Grid()
		total, documented := 0, 0
		for i := range grid {
			for j := i + 1; j < len(grid[i]); j++ {
				total++
				if grid[i][j].State == catalog.CellDocumented {
					documented++
				}
			}
		}
		report.MissingMatrixCells = total - documented
		report.MatrixCoverage = float64(documented) / float64(total)
	}

	return report
}

// LogCatalogQuality writes the report at warn level where something is missing
func LogCatalogQuality(report *interfaces.CatalogQualityReport) {
	if len(report.SubstancesWithoutSources) > 0 {
		logging.Warn("Substances without sources",
			"count", len(report.SubstancesWithoutSources),
			"names", report.SubstancesWithoutSources,
		)
	}

	if len(report.InteractionsWithoutSources) > 0 {
		logging.Warn("Interactions without sources",
			"count", len(report.InteractionsWithoutSources),
			"pairs", report.InteractionsWithoutSources,
		)
	}

	if len(report.AnecdotalOnlyInteractions) > 0 {
		logging.Warn("Interactions backed only by anecdotal sources",
			"count", len(report.AnecdotalOnlyInteractions),
			"pairs", report.AnecdotalOnlyInteractions,
		)
	}

	if len(report.UnknownInteractionNames) > 0 {
		logging.Info("Interaction names without a substance profile",
			"count", len(report.UnknownInteractionNames),
			"names", report.UnknownInteractionNames,
		)
	}

	logging.Info("Combination matrix coverage",
		"coverage", fmt.Sprintf("%.1f%%", report.MatrixCoverage*100),
		"missing_cells", report.MissingMatrixCells,
	)
}
