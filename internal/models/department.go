package models

import "time"

type Department struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name     string `gorm:"size:64;not null;uniqueIndex" json:"name"`
	Label    string `gorm:"size:128;not null" json:"label"`
	Order    int    `gorm:"column:sort_order;not null;default:0" json:"order"`
	IsActive bool   `gorm:"not null;default:true" json:"isActive"`
}

// DefaultDepartments: начальный набор для departments init.
var DefaultDepartments = []Department{
	{Name: "firstprod", Label: "1ST PROD", Order: 0, IsActive: true},
	{Name: "secondprod", Label: "2ND PROD", Order: 1, IsActive: true},
	{Name: "hr", Label: "HR", Order: 2, IsActive: true},
	{Name: "do", Label: "D.O.", Order: 3, IsActive: true},
	{Name: "watneyrobotics", Label: "WATNEY ROBOTICS", Order: 4, IsActive: true},
	{Name: "workforcefirstprod", Label: "WORKFORCE (1ST PROD)", Order: 5, IsActive: true},
	{Name: "workforcesecondprod", Label: "WORKFORCE (2ND PROD)", Order: 6, IsActive: true},
}
