package domain

import "time"

// EntityKind discriminates the two assignable entity kinds.
type EntityKind string

const (
	EntityKindDepartment EntityKind = "DEPARTMENT"
	EntityKindLocation   EntityKind = "LOCATION"
)

// Valid reports whether the kind is a known discriminator value.
func (k EntityKind) Valid() bool {
	return k == EntityKindDepartment || k == EntityKindLocation
}

// Department is a central organizational unit tickets can be assigned to.
type Department struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location is a physical field site (market). It carries a back-reference
// to the security report created for it in the current reporting week.
type Location struct {
	ID              string
	Name            string
	CurrentReportID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EntityRef is a resolved view of either kind, used when a read needs the
// name behind an assignedTo reference.
type EntityRef struct {
	ID   string
	Kind EntityKind
	Name string
}
