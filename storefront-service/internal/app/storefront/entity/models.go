package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategoryType различает категории товаров и услуг
type CategoryType string

const (
	CategoryTypeProduct CategoryType = "PRODUCT"
	CategoryTypeService CategoryType = "SERVICE"
)

// Category - узел дерева категорий
// ParentID - слабая обратная ссылка на родителя, nil у корневых категорий
type Category struct {
	ID          uuid.UUID    `json:"id" db:"id" gorm:"type:uuid;primaryKey"`
	Slug        string       `json:"slug" db:"slug"`
	Name        string       `json:"name" db:"name"`
	Description *string      `json:"description,omitempty" db:"description"`
	Image       *string      `json:"image,omitempty" db:"image"`
	Type        CategoryType `json:"type" db:"type"`
	ParentID    *uuid.UUID   `json:"parent_id,omitempty" db:"parent_id" gorm:"type:uuid"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}

// TableName указывает имя таблицы для GORM
func (Category) TableName() string {
	return "categories"
}

// IsRoot возвращает true для категорий верхнего уровня
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// ItemType - тип элемента контента
type ItemType string

const (
	ItemTypeProduct ItemType = "PRODUCT"
	ItemTypeService ItemType = "SERVICE"
	ItemTypeArticle ItemType = "ARTICLE"
)

// Статусы наличия
const (
	AvailabilityInStock    = "in-stock"
	AvailabilityOutOfStock = "out-of-stock"
	AvailabilityPreOrder   = "pre-order"
)

// Item - товар, услуга или статья каталога
// CategoryIDs хранится в таблице item_categories, порядок задается колонкой position
type Item struct {
	ID           uuid.UUID           `json:"id" gorm:"type:uuid;primaryKey"`
	Slug         string              `json:"slug" gorm:"uniqueIndex;not null"`
	Name         string              `json:"name" gorm:"not null"`
	Description  string              `json:"description"`
	Type         ItemType            `json:"type" gorm:"type:varchar(20);not null"`
	Price        decimal.Decimal     `json:"price" gorm:"type:decimal(12,2);not null"`
	SalePrice    decimal.NullDecimal `json:"sale_price" gorm:"type:decimal(12,2)"`
	Availability string              `json:"availability" gorm:"type:varchar(32);not null"`
	Vendor       *string             `json:"vendor,omitempty"`
	SKU          *string             `json:"sku,omitempty" gorm:"column:sku"`
	CreatedAt    time.Time           `json:"created_at"`
	CategoryIDs  []uuid.UUID         `json:"category_ids" gorm:"-"`
}

// TableName указывает имя таблицы для GORM
func (Item) TableName() string {
	return "items"
}

// EffectivePrice - цена с учетом скидки
func (i *Item) EffectivePrice() decimal.Decimal {
	if i.SalePrice.Valid {
		return i.SalePrice.Decimal
	}
	return i.Price
}

// PrimaryCategoryID - первая категория в порядке хранилища, источник хлебных крошек товара
func (i *Item) PrimaryCategoryID() *uuid.UUID {
	if len(i.CategoryIDs) == 0 {
		return nil
	}
	id := i.CategoryIDs[0]
	return &id
}

// ItemCategory - строка связи many-to-many между товарами и категориями
type ItemCategory struct {
	ItemID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	CategoryID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position   int       `gorm:"not null"`
}

// TableName указывает имя таблицы для GORM
func (ItemCategory) TableName() string {
	return "item_categories"
}

// SortOption - порядок выдачи товаров
type SortOption string

const (
	SortFeatured  SortOption = "featured"
	SortPriceAsc  SortOption = "price-asc"
	SortPriceDesc SortOption = "price-desc"
	SortNameAsc   SortOption = "name-asc"
)

// ParseSortOption разбирает параметр сортировки, пустая строка означает featured
func ParseSortOption(raw string) (SortOption, bool) {
	switch SortOption(raw) {
	case "", SortFeatured:
		return SortFeatured, true
	case SortPriceAsc, SortPriceDesc, SortNameAsc:
		return SortOption(raw), true
	default:
		return "", false
	}
}

// ItemFilter - фильтры выборки товаров
type ItemFilter struct {
	Availability []string
	Type         *ItemType
}

// CategoryPageResult - данные страницы категории, вычисляются на каждый запрос
type CategoryPageResult struct {
	Category     Category          `json:"category"`
	Items        []Item            `json:"items"`
	Breadcrumbs  []Category        `json:"breadcrumbs"`
	GroupedItems map[string][]Item `json:"grouped_items"`
}

// ProductPageResult - данные страницы товара
type ProductPageResult struct {
	Item        Item       `json:"item"`
	Breadcrumbs []Category `json:"breadcrumbs"`
}

// CategoryNode - узел навигационного дерева
type CategoryNode struct {
	Category
	Children []CategoryNode `json:"children"`
}

// ItemQuery - параметры списка товаров
type ItemQuery struct {
	Type         *ItemType
	CategorySlug string
	SortBy       string
	Availability []string
}
