package models

// ProfileType - дискриминатор типа профиля персоны.
type ProfileType string

const (
	ProfileTypeEmployee ProfileType = "employee"
	ProfileTypeProduct  ProfileType = "product"
)

// HistoryEntry - одна запись истории разговора персоны: вопрос и краткое
// резюме ответа. История append-only и живет в пределах одного прогона.
type HistoryEntry struct {
	Question string `json:"question"`
	Summary  string `json:"summary"`
}

// Profile - синтетический респондент, полученный из одного реального отзыва.
// Общий конверт (идентичность, история, резюме личности) плюс ровно один из
// вариантных блоков Employee/Product, выбираемый по Type.
type Profile struct {
	ID     string      `json:"id"`
	Type   ProfileType `json:"type"`
	Name   string      `json:"name"`
	Date   string      `json:"date"`
	Title  string      `json:"title"`
	Rating *float64    `json:"rating,omitempty"`

	Employee *EmployeeProfile      `json:"employee,omitempty"`
	Product  *ProductReviewProfile `json:"product,omitempty"`

	ConversationHistory []HistoryEntry `json:"conversation_history"`
	PersonalitySummary  string         `json:"personality_summary,omitempty"`
}

// EmployeeProfile - атрибуты персоны, построенной из отзыва сотрудника.
type EmployeeProfile struct {
	Role               string `json:"role"`
	Location           string `json:"location"`
	EmploymentStatus   string `json:"employment_status"`
	Pros               string `json:"pros"`
	Cons               string `json:"cons"`
	Recommend          *bool  `json:"recommend,omitempty"`
	CEOApproval        *bool  `json:"ceo_approval,omitempty"`
	BusinessOutlook    *bool  `json:"business_outlook,omitempty"`
	AdviceToManagement string `json:"advice_to_management"`
}

// ProductReviewProfile - атрибуты персоны, построенной из отзыва о продукте.
type ProductReviewProfile struct {
	Pros            []string       `json:"pros"`
	Cons            []string       `json:"cons"`
	Themes          []string       `json:"themes,omitempty"`
	Suggestions     []string       `json:"suggestions,omitempty"`
	Recommend       *bool          `json:"recommend,omitempty"`
	Product         map[string]any `json:"product,omitempty"`
	UserContext     map[string]any `json:"user_context,omitempty"`
	PublicationDate string         `json:"publication_date,omitempty"`
	Summary         string         `json:"summary,omitempty"`
}

// Аксессоры для полей, живущих во вложенных словарях исходных отзывов.
// Словарные ключи не нормализованы между источниками данных, поэтому
// отсутствующее значение - это пустая строка, а не ошибка.

func (p *ProductReviewProfile) ProductName() string  { return stringField(p.Product, "name") }
func (p *ProductReviewProfile) Category() string     { return stringField(p.Product, "category") }
func (p *ProductReviewProfile) Manufacturer() string { return stringField(p.Product, "manufacturer") }

func (p *ProductReviewProfile) Location() string       { return stringField(p.UserContext, "location") }
func (p *ProductReviewProfile) UseCase() string        { return stringField(p.UserContext, "use_case") }
func (p *ProductReviewProfile) TechnicalLevel() string {
	return stringField(p.UserContext, "technical_level")
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
