package entity

import (
	"time"

	"github.com/google/uuid"
)

// IntegrityKind - вид нарушения целостности графа категорий
type IntegrityKind string

const (
	IntegrityCycle          IntegrityKind = "cycle"
	IntegritySelfParent     IntegrityKind = "self_parent"
	IntegrityDanglingParent IntegrityKind = "dangling_parent"
)

// IntegrityWarning описывает обнаруженный цикл или висячую ссылку на родителя.
// Это не ошибка: запрос завершается с усеченными хлебными крошками
type IntegrityWarning struct {
	Kind       IntegrityKind `json:"kind"`
	CategoryID uuid.UUID     `json:"category_id"`
	ParentID   *uuid.UUID    `json:"parent_id,omitempty"`
	Operation  string        `json:"operation"`
	DetectedAt time.Time     `json:"detected_at"`
}

// IntegrityEvent - событие для топика catalog_integrity
type IntegrityEvent struct {
	EventType string           `json:"event_type"` // CATALOG_INTEGRITY_WARNING
	Warning   IntegrityWarning `json:"warning"`
	Timestamp time.Time        `json:"timestamp"`
}

// AuditReport - результат полной проверки графа категорий
type AuditReport struct {
	CategoriesScanned int                `json:"categories_scanned"`
	Warnings          []IntegrityWarning `json:"warnings"`
	StartedAt         time.Time          `json:"started_at"`
	FinishedAt        time.Time          `json:"finished_at"`
}

// Типы событий каталога, публикуемых сервисом управления каталогом
const (
	EventCategoryCreated = "CATEGORY_CREATED"
	EventCategoryUpdated = "CATEGORY_UPDATED"
	EventCategoryDeleted = "CATEGORY_DELETED"
	EventItemCreated     = "ITEM_CREATED"
	EventItemUpdated     = "ITEM_UPDATED"
	EventItemDeleted     = "ITEM_DELETED"
)

// CatalogEvent - событие изменения каталога из топика catalog_events
type CatalogEvent struct {
	EventType string    `json:"event_type"`
	EntityID  uuid.UUID `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
}

// IsCategoryEvent возвращает true для событий, меняющих дерево категорий
func (e *CatalogEvent) IsCategoryEvent() bool {
	switch e.EventType {
	case EventCategoryCreated, EventCategoryUpdated, EventCategoryDeleted:
		return true
	default:
		return false
	}
}
