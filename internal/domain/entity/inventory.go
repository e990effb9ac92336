package entity

import "time"

// Branch sucursal de la empresa.
type Branch struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Inventory ubicación física de stock; una por sucursal.
type Inventory struct {
	ID           string
	Name         string
	BranchID     string
	SupervisorID string
	LastUpdate   time.Time
	LastUpdater  string
}
