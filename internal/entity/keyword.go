package entity

import "time"

// Keyword is a weighted phrase used to score candidate posts. Rules are
// loaded fresh at the start of every scan; duplicate phrases are allowed and
// accumulate weight independently when both match.
type Keyword struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Phrase    string    `gorm:"not null" json:"phrase"`
	Category  string    `gorm:"not null" json:"category"`
	Weight    float64   `gorm:"not null;default:1.0" json:"weight"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Keyword) TableName() string {
	return "keywords"
}
