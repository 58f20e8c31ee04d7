package metadata

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ugel-ilo/sgd-backend/internal/core"
	"github.com/ugel-ilo/sgd-backend/internal/models"
)

// maxPromptChars bounds the document text submitted to the LLM.
const maxPromptChars = 4000

// maxPromptLineChars drops lines at or above this length before prompting;
// such lines are almost always OCR garbage, not prose.
const maxPromptLineChars = 500

const promptTemplate = `Eres un asistente experto en la clasificación de documentos administrativos de la UGEL Ilo, Perú. Tu tarea es leer el siguiente texto extraído de un documento y devolver ÚNICAMENTE un objeto JSON. No incluyas 'json' ni saltos de línea antes o después del objeto.

CATEGORÍAS PERMITIDAS (SOLO estas 8):
- Oficio
- Oficio Múltiple
- Resolución Directorial
- Informe
- Solicitud
- Memorándum
- Acta
- Varios (SOLO si no encaja en ninguna anterior)

PROHIBIDO crear nuevas categorías. Si no puedes clasificar con certeza en las primeras 7 categorías, usa "Varios".

El objeto JSON debe tener la siguiente estructura exacta:
{
  "tipo_documento": "String (SOLO una de las 8 categorías listadas arriba)",
  "tema_principal": "String (Un título corto y descriptivo del contenido)",
  "fecha_documento": "String (Formato YYYY-MM-DD, si se encuentra)",
  "entidades_clave": ["Array de strings (Nombres de personas, oficinas o colegios mencionados)"],
  "resumen_corto": "String (Un resumen de 2 frases del propósito del documento)"
}

Si un campo no se puede determinar, devuelve 'null' para ese campo.

Texto del documento para analizar:
---
%s
---
`

// Extractor classifies and summarizes document text through an LLM and
// validates whatever comes back. Invalid fields degrade to absent values
// instead of failing the extraction (fail-soft).
type Extractor struct {
	llm core.LLMProvider
}

func NewExtractor(llm core.LLMProvider) *Extractor {
	return &Extractor{llm: llm}
}

// Extract derives structured metadata from text. Only the first 4000
// characters are submitted. Rate-limit retries happen inside the LLM
// client; a malformed response that survives the repair pass fails the
// whole extraction.
func (e *Extractor) Extract(ctx context.Context, text string) (*models.DocumentMetadata, error) {
	truncated := text
	if runes := []rune(truncated); len(runes) > maxPromptChars {
		truncated = string(runes[:maxPromptChars])
	}
	truncated = dropLongLines(truncated)

	raw, err := e.llm.Generate(ctx, fmt.Sprintf(promptTemplate, truncated))
	if err != nil {
		return nil, fmt.Errorf("metadata generate: %w", err)
	}

	parsed, err := parseResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("metadata parse: %w", err)
	}

	meta := validate(parsed)
	log.Printf("metadata: extracted category=%q topic=%v", meta.Category, deref(meta.Topic))
	return meta, nil
}

// dropLongLines removes empty lines and lines of maxPromptLineChars or
// more. The character-level cleanup happened upstream in the normalizer.
func dropLongLines(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || len([]rune(line)) >= maxPromptLineChars {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.Join(kept, "\n")
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}

func validate(raw *rawMetadata) *models.DocumentMetadata {
	return &models.DocumentMetadata{
		Category: ValidateCategory(raw.Category),
		Topic:    sanitizeString(raw.Topic, 200),
		Date:     ValidateDate(raw.Date),
		Entities: validateEntities(raw.Entities),
		Summary:  sanitizeString(raw.Summary, 500),
	}
}

// ValidateCategory coerces anything outside the closed category set to the
// catch-all value; it never rejects.
func ValidateCategory(category *string) string {
	if category == nil {
		return models.CategoryFallback
	}
	for _, allowed := range models.AllowedCategories {
		if *category == allowed {
			return *category
		}
	}
	log.Printf("metadata: invalid category %q coerced to %q", *category, models.CategoryFallback)
	return models.CategoryFallback
}

// sanitizeString trims and caps a free-text field; empty becomes absent.
func sanitizeString(s *string, maxLen int) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	if runes := []rune(v); len(runes) > maxLen {
		v = string(runes[:maxLen])
	}
	return &v
}

func validateEntities(entities []string) []string {
	var out []string
	for _, ent := range entities {
		ent = strings.TrimSpace(ent)
		if runes := []rune(ent); len(runes) > 100 {
			ent = string(runes[:100])
		}
		if len([]rune(ent)) >= 2 {
			out = append(out, ent)
		}
		if len(out) == 10 {
			break
		}
	}
	return out
}
