package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debtorbatch/internal/debtor"
)

func present(p *Presenter, message string) PresentedError {
	return p.Present(debtor.ValidationError{RowIndex: 2, ExternalKey: "1710034065", Message: message})
}

func TestPresentInfersFieldAndRule(t *testing.T) {
	p := NewPresenter()

	tests := []struct {
		message   string
		wantField string
		wantRule  string
	}{
		{"ExternalKey/Identificación is required", "Identificación", "Requerido"},
		{"FirstName/Nombres is required", "Nombres", "Requerido"},
		{"Amount must be > 0", "Monto Deuda", "Mayor a 0"},
		{"DueDate is invalid or missing", "Fecha Vencimiento", "Fecha válida"},
		{"Invalid email format", "Email", "Formato válido"},
		{"Invalid phone format", "Teléfono", "Formato válido"},
		{"Invalid identification for algorithm MOD_01_EC", "Identificación", "Formato / Algoritmo"},
		{"something unexpected", "Dato", "Validación"},
	}
	for _, tc := range tests {
		got := present(p, tc.message)
		assert.Equal(t, tc.wantField, got.Field, "message %q", tc.message)
		assert.Equal(t, tc.wantRule, got.Rule, "message %q", tc.message)
		assert.Equal(t, tc.message, got.Technical)
	}
}

func TestPresentFallbackTexts(t *testing.T) {
	p := NewPresenter()

	got := present(p, "FirstName/Nombres is required")
	assert.Equal(t, "Nombres es obligatorio.", got.Friendly)
	assert.Contains(t, got.Hint, `"Nombres"`)

	got = present(p, "Amount must be > 0")
	assert.Equal(t, "Monto inválido.", got.Friendly)
	assert.NotEmpty(t, got.Hint)

	got = present(p, "Invalid email format")
	assert.Equal(t, "Correo inválido.", got.Friendly)

	// Unmapped messages pass through with a generic hint.
	got = present(p, "duplicate debtor externalId")
	assert.Equal(t, "duplicate debtor externalId", got.Friendly)
	assert.Equal(t, "Revisa el valor ingresado y vuelve a intentar.", got.Hint)
}

func TestPresentMappingWinsAndOverrides(t *testing.T) {
	p := newPresenter([]ErrorMapping{
		{Contains: "duplicate", Field: "Identificación", Rule: "Deudor duplicado",
			Friendly: "El deudor ya existe.", Hint: "Elimina la fila repetida.", Priority: 10},
	})

	got := present(p, "duplicate debtor externalId")
	assert.Equal(t, "Identificación", got.Field)
	assert.Equal(t, "Deudor duplicado", got.Rule)
	assert.Equal(t, "El deudor ya existe.", got.Friendly)
	assert.Equal(t, "Elimina la fila repetida.", got.Hint)
}

func TestPresentMappingPriorityOrder(t *testing.T) {
	p := newPresenter([]ErrorMapping{
		{Contains: "amount", Friendly: "broad", Priority: 50},
		{Contains: "amount must be", Friendly: "specific", Priority: 10},
	})

	got := present(p, "Amount must be > 0")
	assert.Equal(t, "specific", got.Friendly)
	// Mapping without field/rule keeps the inferred names.
	assert.Equal(t, "Monto Deuda", got.Field)
	assert.Equal(t, "Mayor a 0", got.Rule)
}

func TestLoadPresenterFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.yaml")
	doc := `mappings:
  - contains: "saldo"
    field: "Saldo"
    rule: "Saldo positivo"
    friendly: "Saldo inválido."
    hint: "Revisa el saldo."
    priority: 5
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	p, err := LoadPresenter(path)
	require.NoError(t, err)

	got := present(p, "saldo insuficiente")
	assert.Equal(t, "Saldo", got.Field)
	assert.Equal(t, "Saldo positivo", got.Rule)
	assert.Equal(t, "Saldo inválido.", got.Friendly)
	assert.Equal(t, "Revisa el saldo.", got.Hint)
}

func TestLoadPresenterRejectsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mappings: []\n"), 0o644))

	_, err := LoadPresenter(path)
	assert.Error(t, err)
}
