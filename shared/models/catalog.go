package models

// CatalogSummary - элемент списка каталога (имя + ссылка на детальный ресурс).
// Список кешируется целиком под одним ключом и заменяется только целиком.
type CatalogSummary struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	ResourceURL string `json:"resource_url"`
}

// StatValue - одна базовая характеристика покемона (name -> value).
type StatValue struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// CatalogDetail - полная карточка покемона, собранная из двух запросов к PokeAPI
// (основной ресурс + species). Кешируется по ключу catalog:detail:{id} без TTL:
// устаревшие данные считаются допустимыми.
type CatalogDetail struct {
	ID                int         `json:"id"`
	Name              string      `json:"name"`
	Types             []string    `json:"types"`
	Abilities         []string    `json:"abilities"`
	Stats             []StatValue `json:"stats"`
	ImageURL          string      `json:"image_url"`
	Weight            float64     `json:"weight"`
	Height            float64     `json:"height"`
	FlavorText        string      `json:"flavor_text,omitempty"`
	EvolutionChainURL string      `json:"evolution_chain_url,omitempty"`
}
