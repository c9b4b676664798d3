package synth

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fwojciec/analyst"
)

// SystemPrompt is the analyst persona shared by chat and narrative replies.
const SystemPrompt = `Você é um Analista de Dados de E-commerce especializado.

SUA FUNÇÃO:
- Analisar dados de clientes, receita, margem e clusters
- Responder perguntas sobre negócio e performance
- Fornecer insights acionáveis baseados em dados

CLUSTERS: 1 Premium, 2 Alto Valor, 3 Médio, 4 Baixo, 5 Novos.

ESTILO:
- Objetivo e direto, em português brasileiro
- Use emojis com moderação (📊 💰 📈 🎯 💡)
- Destaque números importantes em negrito`

// ChatPrompt renders a conversational turn with its recent context.
func ChatPrompt(utterance string, window []analyst.Message) string {
	var b strings.Builder
	if len(window) > 0 {
		b.WriteString("CONVERSA RECENTE:\n")
		for _, m := range window {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "USUÁRIO: %s\n\n", utterance)
	b.WriteString("Responda diretamente, sem consultar dados, em no máximo 200 palavras.")
	return b.String()
}

// NarrativePrompt renders the data reply prompt. The data is embedded as
// JSON and is the only permitted source of figures.
func NarrativePrompt(utterance string, resp *analyst.AgentResponse) (string, error) {
	data, err := json.MarshalIndent(resp.Data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode data: %w: %w", analyst.ErrSynthesisUnavailable, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "PERGUNTA DO USUÁRIO: %q\n\n", utterance)
	fmt.Fprintf(&b, "DADOS OBTIDOS:\n%s\n\n", data)
	fmt.Fprintf(&b, "METADADOS:\n- Registros: %d\n- Tipo de consulta: %s\n", resp.Metadata.RowCount, resp.Metadata.QueryKind)
	if t, ok := resp.Metadata.Diagnostics["table"]; ok {
		fmt.Fprintf(&b, "- Visão consultada: %v\n", t)
	}
	b.WriteString(`
ESTRUTURA DA RESPOSTA, nesta ordem:
1. 📊 Números principais: destaque o valor que responde à pergunta.
2. 🔍 Análise: uma interpretação curta do que o número revela.
3. 💡 Insights: 2 a 3 observações concretas apoiadas nos dados.
4. 🎯 Ação recomendada: um próximo passo específico e implementável.

REGRAS:
- Use SOMENTE números presentes em DADOS OBTIDOS. Não invente valores.
- Não mencione termos técnicos como query, JSON ou banco de dados.
- Máximo de 300 palavras.`)
	return b.String(), nil
}
