package vocab

import (
	"github.com/example/wortschatz/internal/database"
	"github.com/example/wortschatz/pkg/models"
)

// ViewFromRow composes the read model for one user word. Per-user overrides
// always win; catalog values fill in only where no override exists. The
// example override replaces text and translation together.
func ViewFromRow(row *database.UserWordRow, topics []string) *models.UserWordView {
	view := &models.UserWordView{
		ID:        row.ID,
		Word:      row.Word,
		WordType:  row.WordType,
		English:   row.English,
		Level:     row.Level,
		Topics:    topics,
		Fails:     row.Fails,
		Success:   row.Success,
		LastShown: row.LastShown,
	}
	if view.Topics == nil {
		view.Topics = []string{}
	}

	if row.CatalogExample.Valid {
		view.Example = row.CatalogExample.String
		view.ExampleTranslation = row.CatalogExampleTranslation.String
	}
	if row.OverrideLevel.Valid {
		view.Level = row.OverrideLevel.String
	}
	if row.OverrideTranslation.Valid {
		view.English = row.OverrideTranslation.String
	}
	if row.OverrideExample.Valid {
		view.Example = row.OverrideExample.String
		view.ExampleTranslation = row.OverrideExampleTranslation.String
	}
	return view
}
