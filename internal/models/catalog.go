package models

type Ingredient struct {
	ID              uint   `gorm:"primarykey" json:"id"`
	Name            string `gorm:"size:150;uniqueIndex;not null" json:"name"`
	MeasurementUnit string `gorm:"size:10;not null" json:"measurement_unit"`
}

type Tag struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Name  string `gorm:"size:256;not null" json:"name"`
	Color string `gorm:"size:7;not null" json:"color"`
	Slug  string `gorm:"size:200;uniqueIndex;not null" json:"slug"`
}
