// Package persona загружает синтетических респондентов из выгрузок реальных
// отзывов и управляет их состоянием в течение прогона опроса.
package persona

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"survey-server/internal/models"
)

// DataSourceEmployee - источник отзывов сотрудников. Все остальные источники
// трактуются как отзывы о продуктах.
const DataSourceEmployee = "glassdoor"

// stringOrList принимает как строку, так и массив строк - выгрузки из разных
// источников не согласованы в этом месте.
type stringOrList []string

func (s *stringOrList) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*s = nil
		return nil
	}
	if data[0] == '"' {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		if single == "" {
			*s = nil
		} else {
			*s = []string{single}
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*s = list
	return nil
}

func (s stringOrList) joined() string {
	return strings.Join(s, ", ")
}

// rawRecord - плоская запись отзыва из JSON-файла источника данных.
type rawRecord struct {
	Name   string   `json:"name"`
	Date   string   `json:"date"`
	Title  string   `json:"title"`
	Rating *float64 `json:"rating"`

	Role             string `json:"role"`
	Location         string `json:"location"`
	EmploymentStatus string `json:"employment_status"`
	Recommend        *bool  `json:"recommend"`
	CEOApproval      *bool  `json:"ceo_approval"`
	BusinessOutlook  *bool  `json:"business_outlook"`

	Pros        stringOrList `json:"pros"`
	Cons        stringOrList `json:"cons"`
	Themes      []string     `json:"themes"`
	Suggestions []string     `json:"suggestions"`

	Product         map[string]any `json:"product"`
	UserContext     map[string]any `json:"user_context"`
	PublicationDate string         `json:"publication_date"`

	AdviceToManagement string `json:"advice_to_management"`
	Summary            string `json:"summary"`
}

// LoadProfiles читает файл источника данных и строит профили персон.
// Идентификаторы - порядковые номера записей: они стабильны между перезапусками,
// пока не меняется сам файл.
func LoadProfiles(path, dataSource string) ([]*models.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", models.ErrPersonaDataNotFound, path)
		}
		return nil, fmt.Errorf("ошибка чтения файла персон '%s': %w", path, err)
	}

	var records []rawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("ошибка разбора файла персон '%s': %w", path, err)
	}

	profiles := make([]*models.Profile, 0, len(records))
	for idx, rec := range records {
		profiles = append(profiles, buildProfile(strconv.Itoa(idx), dataSource, rec))
	}
	return profiles, nil
}

func buildProfile(id, dataSource string, rec rawRecord) *models.Profile {
	p := &models.Profile{
		ID:                  id,
		Name:                rec.Name,
		Date:                rec.Date,
		Title:               rec.Title,
		Rating:              rec.Rating,
		ConversationHistory: []models.HistoryEntry{},
	}
	if p.Name == "" {
		p.Name = "Anonymous"
	}

	if dataSource == DataSourceEmployee {
		p.Type = models.ProfileTypeEmployee
		p.Employee = &models.EmployeeProfile{
			Role:               rec.Role,
			Location:           rec.Location,
			EmploymentStatus:   rec.EmploymentStatus,
			Pros:               rec.Pros.joined(),
			Cons:               rec.Cons.joined(),
			Recommend:          rec.Recommend,
			CEOApproval:        rec.CEOApproval,
			BusinessOutlook:    rec.BusinessOutlook,
			AdviceToManagement: rec.AdviceToManagement,
		}
		return p
	}

	p.Type = models.ProfileTypeProduct
	p.Product = &models.ProductReviewProfile{
		Pros:            rec.Pros,
		Cons:            rec.Cons,
		Themes:          rec.Themes,
		Suggestions:     rec.Suggestions,
		Recommend:       rec.Recommend,
		Product:         rec.Product,
		UserContext:     rec.UserContext,
		PublicationDate: rec.PublicationDate,
		Summary:         rec.Summary,
	}
	return p
}
