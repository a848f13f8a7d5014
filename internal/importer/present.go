package importer

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"debtorbatch/internal/debtor"
)

// ErrorMapping rewrites a validation message into report-friendly text.
// Messages are matched by substring; lower Priority values are tried first so
// specific mappings can shadow broad ones. Field and Rule are optional
// overrides for the inferred names.
type ErrorMapping struct {
	Contains string `yaml:"contains"`
	Field    string `yaml:"field"`
	Rule     string `yaml:"rule"`
	Friendly string `yaml:"friendly"`
	Hint     string `yaml:"hint"`
	Priority int    `yaml:"priority"`
}

// PresentedError is one validation finding decorated for the error report:
// the inferred field and rule, a friendly description, a correction hint,
// and the untouched technical message.
type PresentedError struct {
	RowIndex    int
	ExternalKey string
	Field       string
	Rule        string
	Friendly    string
	Hint        string
	Technical   string
}

// Presenter turns raw validation errors into presented ones using an
// ordered mapping table plus built-in fallbacks.
type Presenter struct {
	mappings []ErrorMapping
}

// NewPresenter returns a presenter with no mapping table: every message is
// handled by inference and the built-in fallbacks.
func NewPresenter() *Presenter {
	return newPresenter(nil)
}

// LoadPresenter reads a mapping table from a YAML file.
func LoadPresenter(path string) (*Presenter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read error mappings: %w", err)
	}

	var doc struct {
		Mappings []ErrorMapping `yaml:"mappings"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse error mappings: %w", err)
	}
	if len(doc.Mappings) == 0 {
		return nil, fmt.Errorf("error mappings file %s defines no mappings", path)
	}

	return newPresenter(doc.Mappings), nil
}

func newPresenter(mappings []ErrorMapping) *Presenter {
	sorted := make([]ErrorMapping, len(mappings))
	copy(sorted, mappings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	return &Presenter{mappings: sorted}
}

// Present decorates one validation error for the report.
func (p *Presenter) Present(e debtor.ValidationError) PresentedError {
	tech := strings.TrimSpace(e.Message)
	field, rule := inferFieldAndRule(tech)
	friendly, hint := p.applyMappingsOrFallback(tech, &field, &rule)

	return PresentedError{
		RowIndex:    e.RowIndex,
		ExternalKey: e.ExternalKey,
		Field:       field,
		Rule:        rule,
		Friendly:    friendly,
		Hint:        hint,
		Technical:   tech,
	}
}

// inferFieldAndRule derives display names from the technical message. The
// validator writes required-field messages as "Key/Nombre is required", with
// the Spanish column name after the slash.
func inferFieldAndRule(tech string) (field, rule string) {
	lower := strings.ToLower(tech)

	if strings.Contains(lower, " is required") && strings.Contains(tech, "/") {
		_, after, _ := strings.Cut(tech, "/")
		name := after
		if i := strings.Index(strings.ToLower(after), "is required"); i >= 0 {
			name = after[:i]
		}
		name = strings.TrimSpace(name)
		if name == "" {
			name = "Campo"
		}
		return name, "Requerido"
	}

	switch {
	case strings.HasPrefix(lower, "amount"):
		return "Monto Deuda", "Mayor a 0"
	case strings.HasPrefix(lower, "duedate"):
		return "Fecha Vencimiento", "Fecha válida"
	case strings.Contains(lower, "invalid email format"):
		return "Email", "Formato válido"
	case strings.Contains(lower, "invalid phone format"):
		return "Teléfono", "Formato válido"
	case strings.Contains(lower, "invalid identification"):
		return "Identificación", "Formato / Algoritmo"
	}
	return "Dato", "Validación"
}

// applyMappingsOrFallback resolves the friendly text and hint. A configured
// mapping wins outright and may also override the inferred field and rule;
// otherwise a per-field fallback applies.
func (p *Presenter) applyMappingsOrFallback(tech string, field, rule *string) (friendly, hint string) {
	lower := strings.ToLower(tech)
	for _, m := range p.mappings {
		if m.Contains == "" || !strings.Contains(lower, strings.ToLower(m.Contains)) {
			continue
		}
		if m.Field != "" {
			*field = m.Field
		}
		if m.Rule != "" {
			*rule = m.Rule
		}
		return m.Friendly, m.Hint
	}

	if strings.EqualFold(*rule, "Requerido") {
		return fmt.Sprintf("%s es obligatorio.", *field),
			fmt.Sprintf("Completa la columna %q y vuelve a intentar.", *field)
	}

	switch *field {
	case "Monto Deuda":
		return "Monto inválido.", "El monto debe ser mayor a 0. Ejemplo: 25.50"
	case "Fecha Vencimiento":
		return "Fecha inválida.", "Usa formato YYYY-MM-DD (ej: 2026-02-12)."
	case "Email":
		return "Correo inválido.", "Ejemplo válido: usuario@dominio.com (sin espacios)."
	case "Teléfono":
		return "Teléfono inválido.", "Ejemplo: +593987654321 o 0987654321 (sin espacios)."
	}
	return tech, "Revisa el valor ingresado y vuelve a intentar."
}
