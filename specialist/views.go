package specialist

import "github.com/fwojciec/analyst"

// Table names of the bound views.
const (
	TableClients = "Visão_cliente"
	TableCluster = "Visão_cluster"
	TableOrders  = "pedidos"
	TableMonthly = "monthly_series"
)

// ClusterLabels names the fixed customer segments.
var ClusterLabels = map[int]string{
	1: "Premium",
	2: "Alto Valor",
	3: "Médio",
	4: "Baixo",
	5: "Novos",
}

// ClientView is the customer-level view.
func ClientView() View {
	return View{
		Ref:         analyst.SpecialistClient,
		Table:       TableClients,
		Description: "análise de clientes: perfil, ranking, cluster, recência",
		Fields: []string{
			"id", "cluster", "pedidos_12m", "recencia_dias",
			"receita_bruta_12m", "receita_liquida_12m", "gm_12m",
			"gm_pct_12m", "mcc", "mcc_pct", "qtde_produtos", "cmv_12m",
		},
		Aliases: map[string]Alias{
			"receita_min": {Field: "receita_bruta_12m", Bound: BoundGTE},
			"margem_min":  {Field: "gm_pct_12m", Bound: BoundGTE},
		},
		Keywords: []string{"cliente", "recência", "recencia"},
		Examples: []string{
			"Top 10 clientes por receita",
			"Clientes do cluster premium",
			"Quais clientes não compram há mais de 90 dias?",
		},
		Metric:       "receita_bruta_12m",
		CountKey:     "total_clientes",
		DefaultOrder: &analyst.OrderBy{Field: "receita_bruta_12m", Direction: analyst.Desc},
	}
}

// ClusterView is the segment-level view.
func ClusterView() View {
	return View{
		Ref:         analyst.SpecialistCluster,
		Table:       TableCluster,
		Description: "comportamento consolidado por cluster de clientes",
		Fields: []string{
			"id", "label", "gm_total", "gm_pct_medio", "clientes",
			"freq_media", "recencia_media", "gm_cv", "tendencia", "updated_at",
		},
		Aliases: map[string]Alias{
			"gm_pct_min":   {Field: "gm_pct_medio", Bound: BoundGTE},
			"clientes_min": {Field: "clientes", Bound: BoundGTE},
		},
		Keywords: []string{"cluster", "segmento", "grupo", "comportamento"},
		Examples: []string{
			"Compare a performance entre clusters",
			"Qual cluster tem maior margem?",
		},
		Metric:       "gm_total",
		CountKey:     "total_clusters",
		DefaultOrder: &analyst.OrderBy{Field: "id", Direction: analyst.Asc},
		Enrich:       labelCluster,
	}
}

func labelCluster(r analyst.Row) {
	if l, ok := r["label"].(string); ok && l != "" {
		return
	}
	id, ok := analyst.Float(r["id"])
	if !ok {
		return
	}
	if l, ok := ClusterLabels[int(id)]; ok {
		r["label"] = l
	}
}

// SaleView is the transaction-level view.
func SaleView() View {
	return View{
		Ref:         analyst.SpecialistSale,
		Table:       TableOrders,
		Description: "análise de vendas e pedidos individuais",
		Fields: []string{
			"id", "pedido_id", "cliente_id", "data",
			"receita_bruta", "margem_bruta", "categoria",
		},
		Aliases: map[string]Alias{
			"data_inicio": {Field: "data", Bound: BoundGTE},
			"data_fim":    {Field: "data", Bound: BoundLTE},
			"receita_min": {Field: "receita_bruta", Bound: BoundGTE},
		},
		Keywords: []string{"venda", "pedido", "transação", "transacao"},
		Examples: []string{
			"Top 20 vendas por receita",
			"Vendas de janeiro",
		},
		Metric:       "receita_bruta",
		CountKey:     "total_vendas",
		DefaultOrder: &analyst.OrderBy{Field: "data", Direction: analyst.Desc},
	}
}

// ProductView is the product-aggregate view over orders, grouped by
// category.
func ProductView() View {
	return View{
		Ref:         analyst.SpecialistProduct,
		Table:       TableOrders,
		Description: "desempenho de produtos e categorias",
		Fields:      []string{"categoria", "receita_bruta", "margem_bruta", "data"},
		Aliases: map[string]Alias{
			"data_inicio": {Field: "data", Bound: BoundGTE},
			"data_fim":    {Field: "data", Bound: BoundLTE},
		},
		Keywords: []string{"produto", "categoria", "item"},
		Examples: []string{
			"Produtos mais vendidos",
			"Categorias com maior margem",
		},
		Metric:       "receita_bruta",
		CountKey:     "total_vendas",
		DefaultOrder: &analyst.OrderBy{Field: "receita_bruta", Direction: analyst.Desc},
		GroupBy:      "categoria",
		DefaultAggregations: map[string]analyst.AggregateOp{
			"receita_bruta": analyst.OpSum,
			"margem_bruta":  analyst.OpSum,
		},
		Enrich: marginPct,
	}
}

func marginPct(r analyst.Row) {
	rev, ok1 := analyst.Float(r[AggregateKey("receita_bruta", analyst.OpSum)])
	gm, ok2 := analyst.Float(r[AggregateKey("margem_bruta", analyst.OpSum)])
	if ok1 && ok2 && rev > 0 {
		r["margem_pct"] = analyst.Round2(gm / rev * 100)
	}
}
