package intent

import (
	"fmt"
	"strings"

	"github.com/fwojciec/analyst"
)

// Prompt builds the classification prompt embedding the utterance, the
// context window and every catalog entry.
func Prompt(utterance string, window []analyst.Message, catalog []analyst.SpecialistInfo) string {
	var b strings.Builder

	b.WriteString("Analise a pergunta do usuário e decida qual especialista de dados deve respondê-la.\n\n")

	b.WriteString("CONTEXTO RECENTE:\n")
	if len(window) == 0 {
		b.WriteString("(sem mensagens anteriores)\n")
	}
	for _, m := range window {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}

	fmt.Fprintf(&b, "\nPERGUNTA DO USUÁRIO: %q\n\n", utterance)

	b.WriteString("ESPECIALISTAS DISPONÍVEIS:\n")
	for i, s := range catalog {
		fmt.Fprintf(&b, "%d. %s (tabela: %s)", i+1, s.Ref, s.Table)
		if !s.Bound {
			b.WriteString(" [INDISPONÍVEL]")
		}
		b.WriteString("\n")
		if s.Description != "" {
			fmt.Fprintf(&b, "   - Uso: %s\n", s.Description)
		}
		if len(s.Fields) > 0 {
			fmt.Fprintf(&b, "   - Campos: %s\n", strings.Join(s.Fields, ", "))
		}
		if len(s.Keywords) > 0 {
			fmt.Fprintf(&b, "   - Palavras-chave: %s\n", strings.Join(s.Keywords, ", "))
		}
		for _, ex := range s.Examples {
			fmt.Fprintf(&b, "   - Exemplo: %q\n", ex)
		}
	}

	b.WriteString(`
RESPONDA APENAS COM JSON:
{
  "category": "data_query" | "general_chat",
  "confidence": 0.0-1.0,
  "specialist": "<nome do especialista>" | null,
  "parameters": {
    "query_kind": "select" | "count" | "aggregate" | "filter",
    "table": "<tabela do especialista>",
    "fields": ["campo"],
    "filters": {"campo": "valor"},
    "ranges": {"campo": {"gte": 0, "lte": 100}},
    "aggregations": {"campo": "sum" | "avg" | "min" | "max" | "count"},
    "group_by": "campo" | null,
    "order_by": "campo.desc" | null,
    "limit": 10,
    "period1": "YYYY-MM" | null,
    "period2": "YYYY-MM" | null
  },
  "reasoning": "explicação breve"
}

REGRAS:
- Perguntas sobre números, dados ou métricas são data_query.
- Saudações e explicações conceituais são general_chat, com specialist null.
- Use somente especialistas e campos listados acima.
`)
	return b.String()
}
