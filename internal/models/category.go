package models

import "time"

// Category groups challenges and carries the display metadata the UI uses.
type Category struct {
	ID          string    `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `json:"name" bson:"name" gorm:"type:varchar(50);uniqueIndex;not null"`
	Emoji       string    `json:"emoji" bson:"emoji" gorm:"type:varchar(32);not null"`
	Color       string    `json:"color" bson:"color" gorm:"type:varchar(7);not null"`
	Description string    `json:"description,omitempty" bson:"description,omitempty" gorm:"type:varchar(200)"`
	IsActive    bool      `json:"isActive" bson:"isActive" gorm:"index"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

type CategoryPatch struct {
	Name        *string
	Emoji       *string
	Color       *string
	Description *string
	IsActive    *bool
}

func (c *Category) Apply(p CategoryPatch) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Emoji != nil {
		c.Emoji = *p.Emoji
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
}
