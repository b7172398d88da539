// Package models holds the entities, request and response shapes shared by the
// storage backends, the service layer and the HTTP router.
package models

// Additional is the secondary record owned by exactly one User.
type Additional struct {
	ID     string `json:"id"`
	Art    string `json:"arte"`
	Music  string `json:"musica"`
	Cinema string `json:"cine"`
}

// User is the primary record. AdditionalID references the owned Additional
// record; it is set once at creation and never repointed.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Names        string `json:"nombres"`
	LastNames    string `json:"apellidos"`
	Phone        string `json:"telefono"`
	Address      string `json:"direccion"`
	AdditionalID string `json:"-"`
}

// UserWithAdditional is a User with its Additional record resolved inline.
// Additional is nil when the reference is dangling.
type UserWithAdditional struct {
	User
	Additional *Additional `json:"adicional"`
}

// NewUser carries the already validated fields of a user registration.
type NewUser struct {
	Email     string
	Names     string
	LastNames string
	Phone     string
	Address   string
	Art       string
	Music     string
	Cinema    string
}

// UserPatch carries the optional fields of a user update.
type UserPatch struct {
	Names     OptionalString
	LastNames OptionalString
	Address   OptionalString
	Phone     OptionalString
	Music     OptionalString
	Art       OptionalString
	Cinema    OptionalString
}

const (
	StorageTypeUnknown = iota
	StorageTypeMongo
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)
