package domain

import (
	"context"
	"time"
)

// SearchHistory 一次搜索事件；ClickedResult 仅允许 NULL → 值 一次
type SearchHistory struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Query         string    `gorm:"size:200;not null;index" json:"query"`
	ResultCount   int       `gorm:"not null;default:0" json:"resultCount"`
	ClickedResult *string   `gorm:"size:255" json:"clickedResult"`
	CreatedAt     time.Time `gorm:"index" json:"timestamp"`
}

func (SearchHistory) TableName() string { return "search_history" }

// SearchAnalytics 按清洗后的查询词聚合
type SearchAnalytics struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Query        string     `gorm:"uniqueIndex;size:200;not null" json:"query"`
	SearchCount  int64      `gorm:"not null;default:0" json:"searchCount"`
	ClickCount   int64      `gorm:"not null;default:0" json:"clickCount"`
	AvgResults   float64    `gorm:"not null;default:0" json:"avgResults"`
	LastSearched *time.Time `json:"lastSearched"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func (SearchAnalytics) TableName() string { return "search_analytics" }

// ClickThroughRate 点击率，未搜索过时为 0
func (a SearchAnalytics) ClickThroughRate() float64 {
	if a.SearchCount == 0 {
		return 0
	}
	return float64(a.ClickCount) / float64(a.SearchCount)
}

type SearchRepository interface {
	// IncrementSearch 不存在则插入 searchCount=1，存在则原子递增并重算 avgResults
	IncrementSearch(ctx context.Context, key string, results int, at time.Time) error
	// IncrementClick 不存在则插入 searchCount=0, clickCount=1
	IncrementClick(ctx context.Context, key string) error
	AppendHistory(ctx context.Context, h *SearchHistory) error
	// AttributeClick 只更新 clickedResult 仍为 NULL 的行，返回受影响行数
	AttributeClick(ctx context.Context, key, label string) (int64, error)

	Analytics(ctx context.Context, key string) (*SearchAnalytics, error)
	TopQueries(ctx context.Context, limit int) ([]SearchAnalytics, error)
	RecentHistory(ctx context.Context, limit int) ([]SearchHistory, error)
}
