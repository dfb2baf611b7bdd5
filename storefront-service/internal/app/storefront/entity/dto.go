package entity

// CategoryPageQuery - query параметры страницы категории
type CategoryPageQuery struct {
	SortBy       string `form:"sortBy" validate:"omitempty,oneof=featured price-asc price-desc name-asc"`
	Availability string `form:"availability" validate:"omitempty,max=200"`
}

// ItemListQuery - query параметры списка товаров
type ItemListQuery struct {
	Type         string `form:"type" validate:"omitempty,oneof=PRODUCT SERVICE ARTICLE"`
	Category     string `form:"category" validate:"omitempty,max=200"`
	SortBy       string `form:"sortBy" validate:"omitempty,oneof=featured price-asc price-desc name-asc"`
	Availability string `form:"availability" validate:"omitempty,max=200"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type CategoryListResponse struct {
	Categories []Category `json:"categories"`
	Total      int        `json:"total"`
}

type CategoryTreeResponse struct {
	Tree []CategoryNode `json:"tree"`
}

type ItemListResponse struct {
	Items []Item `json:"items"`
	Total int    `json:"total"`
}

// SeedCategory - категория во входном JSON сидера, дочерние категории вложены
type SeedCategory struct {
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Description string         `json:"description"`
	Image       string         `json:"image"`
	Type        CategoryType   `json:"type"`
	Children    []SeedCategory `json:"children"`
}

// SeedItem - товар во входном JSON сидера
// CategorySlug поддерживается для совместимости со старым форматом с одной категорией
type SeedItem struct {
	Name          string   `json:"name"`
	Slug          string   `json:"slug"`
	Description   string   `json:"description"`
	Type          ItemType `json:"type"`
	Price         float64  `json:"price"`
	SalePrice     *float64 `json:"salePrice"`
	Availability  string   `json:"availability"`
	Vendor        string   `json:"vendor"`
	SKU           string   `json:"sku"`
	CategorySlug  string   `json:"categorySlug"`
	CategorySlugs []string `json:"categorySlugs"`
}

// SeedContent - корневой документ сидера
type SeedContent struct {
	Categories []SeedCategory `json:"categories"`
	Items      []SeedItem     `json:"items"`
}

// SeedResult - итог импорта
type SeedResult struct {
	CategoriesCreated int      `json:"categories_created"`
	ItemsCreated      int      `json:"items_created"`
	ItemsSkipped      []string `json:"items_skipped"`
}
