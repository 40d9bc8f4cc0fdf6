package domain

import (
	"github.com/google/uuid"
)

type TagName string

const (
	TagCropProtection TagName = "CROP_PROTECTION"
	TagFertilization  TagName = "FERTILIZATION"
	TagIrrigation     TagName = "IRRIGATION"
	TagSoilHealth     TagName = "SOIL_HEALTH"
	TagLivestock      TagName = "LIVESTOCK"
	TagHarvest        TagName = "HARVEST"
)

func (t TagName) IsValid() bool {
	switch t {
	case TagCropProtection, TagFertilization, TagIrrigation,
		TagSoilHealth, TagLivestock, TagHarvest:
		return true
	}
	return false
}

// AllTagNames returns the full tag vocabulary, used to seed the tags table.
func AllTagNames() []TagName {
	return []TagName{
		TagCropProtection,
		TagFertilization,
		TagIrrigation,
		TagSoilHealth,
		TagLivestock,
		TagHarvest,
	}
}

type Tag struct {
	ID   uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Name TagName   `gorm:"type:varchar(50);unique;not null" json:"name"`

	Conversations []Conversation `gorm:"many2many:conversation_tags" json:"-"`
}
