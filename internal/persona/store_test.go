package persona_test

import (
	"os"
	"path/filepath"
	"testing"

	"survey-server/internal/config"
	"survey-server/internal/models"
	"survey-server/internal/persona"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const glassdoorFixture = `[
	{
		"name": "Alice",
		"date": "2024-01-15",
		"title": "Great place to grow",
		"rating": 4.5,
		"role": "Software Engineer",
		"location": "Berlin",
		"employment_status": "Current Employee",
		"recommend": true,
		"pros": "Smart colleagues",
		"cons": ["Slow promotions", "Constant reorgs"]
	},
	{
		"date": "2023-11-02",
		"title": "Mixed feelings",
		"rating": 2.0,
		"role": "Account Manager",
		"employment_status": "Former Employee",
		"pros": ["Decent benefits"],
		"cons": "Too many meetings"
	}
]`

const amazonFixture = `[
	{
		"name": "Bob",
		"rating": 5,
		"title": "Works as advertised",
		"pros": ["Battery life"],
		"cons": [],
		"themes": ["reliability"],
		"product": {"name": "SmartCam 3", "category": "Home Security", "manufacturer": "Acme"},
		"user_context": {"location": "US", "use_case": "home monitoring", "technical_level": "novice"},
		"publication_date": "2024-03-01",
		"summary": "Happy customer overall"
	}
]`

func writeFixture(t *testing.T, dataSource, content string) *config.Config {
	t.Helper()
	dataDir := t.TempDir()
	err := os.WriteFile(filepath.Join(dataDir, dataSource+".json"), []byte(content), 0644)
	require.NoError(t, err)
	return &config.Config{
		PersonaDataDir:    dataDir,
		DefaultDataSource: dataSource,
		PromptVariantSeed: 1,
	}
}

func TestNewStore_LoadsEmployeeProfiles(t *testing.T) {
	cfg := writeFixture(t, "glassdoor", glassdoorFixture)

	store, err := persona.NewStore(cfg, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 2, store.Count())

	// Идентификаторы - порядковые номера записей
	first, err := store.Get("0")
	require.NoError(t, err)
	assert.Equal(t, "Alice", first.Name)
	assert.Equal(t, models.ProfileTypeEmployee, first.Type)
	require.NotNil(t, first.Employee)
	assert.Equal(t, "Software Engineer", first.Employee.Role)
	// pros строкой, cons списком: оба варианта входных данных валидны
	assert.Equal(t, "Smart colleagues", first.Employee.Pros)
	assert.Equal(t, "Slow promotions, Constant reorgs", first.Employee.Cons)

	second, err := store.Get("1")
	require.NoError(t, err)
	assert.Equal(t, "Anonymous", second.Name)

	_, err = store.Get("2")
	assert.ErrorIs(t, err, models.ErrPersonaNotFound)
}

func TestNewStore_LoadsProductProfiles(t *testing.T) {
	cfg := writeFixture(t, "amazon", amazonFixture)

	store, err := persona.NewStore(cfg, zap.NewNop())
	require.NoError(t, err)

	p, err := store.Get("0")
	require.NoError(t, err)
	assert.Equal(t, models.ProfileTypeProduct, p.Type)
	require.NotNil(t, p.Product)
	assert.Equal(t, "SmartCam 3", p.Product.ProductName())
	assert.Equal(t, "Home Security", p.Product.Category())
	assert.Equal(t, "Acme", p.Product.Manufacturer())
	assert.Equal(t, "home monitoring", p.Product.UseCase())
	assert.Equal(t, "novice", p.Product.TechnicalLevel())
}

func TestNewStore_MissingFile(t *testing.T) {
	cfg := &config.Config{
		PersonaDataDir:    t.TempDir(),
		DefaultDataSource: "glassdoor",
	}

	_, err := persona.NewStore(cfg, zap.NewNop())
	assert.ErrorIs(t, err, models.ErrPersonaDataNotFound)
}

func TestNewStore_EmptyFile(t *testing.T) {
	cfg := writeFixture(t, "glassdoor", `[]`)

	_, err := persona.NewStore(cfg, zap.NewNop())
	assert.ErrorIs(t, err, models.ErrPersonaDataNotFound)
}

func TestStore_SnapshotIsolation(t *testing.T) {
	cfg := writeFixture(t, "glassdoor", glassdoorFixture)
	store, err := persona.NewStore(cfg, zap.NewNop())
	require.NoError(t, err)

	snap := store.Snapshot(1)
	require.Len(t, snap, 1)

	// Мутации копии не должны протекать в хранилище
	persona.UpdatePersonalitySummary(snap[0], "mutated")
	persona.UpdateConversationHistory(snap[0], "Q?", models.Distribution{"Yes": 1.0}, []string{"Yes", "No"})
	snap[0].Employee.Role = "mutated"

	original, err := store.Get("0")
	require.NoError(t, err)
	assert.Empty(t, original.PersonalitySummary)
	assert.Empty(t, original.ConversationHistory)
	assert.Equal(t, "Software Engineer", original.Employee.Role)
}

func TestStore_SnapshotLimit(t *testing.T) {
	cfg := writeFixture(t, "glassdoor", glassdoorFixture)
	store, err := persona.NewStore(cfg, zap.NewNop())
	require.NoError(t, err)

	assert.Len(t, store.Snapshot(0), 2)
	assert.Len(t, store.Snapshot(5), 2)
	assert.Len(t, store.Snapshot(1), 1)
}

func TestUpdateConversationHistory(t *testing.T) {
	p := &models.Profile{ID: "0"}

	persona.UpdateConversationHistory(p, "Do you enjoy your work?",
		models.Distribution{"Yes": 0.73, "No": 0.27}, []string{"Yes", "No"})

	require.Len(t, p.ConversationHistory, 1)
	entry := p.ConversationHistory[0]
	assert.Equal(t, "Do you enjoy your work?", entry.Question)
	assert.Equal(t, "When asked 'Do you enjoy your work?', leaned 73% towards 'Yes'", entry.Summary)
}
