package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   primitive.ObjectID
	Role Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
