package models

import (
	"strings"
	"time"
)

const (
	IndustryUnclassified = "미분류"
	DefaultCountry       = "KR"
)

type Location struct {
	Address string
	City    string
	Country string
}

// NewLocation derives the city as the first whitespace-delimited token of the address.
func NewLocation(address string) Location {
	address = strings.TrimSpace(address)
	return Location{
		Address: address,
		City:    CityOf(address),
		Country: DefaultCountry,
	}
}

func CityOf(address string) string {
	fields := strings.Fields(address)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

type Company struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;not null"`
	Industry  string
	Location  Location `gorm:"embedded;embeddedPrefix:location_"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
