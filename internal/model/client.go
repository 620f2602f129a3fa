package model

import "github.com/google/uuid"

type Client struct {
	ID             uuid.UUID
	Name           string
	Address        string
	PostalCode     string
	City           string
	Phone          string
	Tag            string
	MonthlyInvoice bool // billed via a separate monthly run, excluded from previews
	Active         bool
}
