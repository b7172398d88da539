package models

// CreateUserRequest is the body of POST /user.
type CreateUserRequest struct {
	Email     OptionalString `json:"email" validate:"isstring,email"`
	Phone     OptionalString `json:"telefono" validate:"isstring,mobilephone"`
	Address   OptionalString `json:"direccion" validate:"isstring,min=4"`
	Names     OptionalString `json:"nombres" validate:"isstring,min=4"`
	LastNames OptionalString `json:"apellidos" validate:"isstring,min=4"`
	Art       OptionalString `json:"arte" validate:"isstring,min=1"`
	Music     OptionalString `json:"musica" validate:"isstring,min=1"`
	Cinema    OptionalString `json:"cine" validate:"isstring,min=1"`
}

// ToNewUser converts a validated request.
func (r *CreateUserRequest) ToNewUser() NewUser {
	return NewUser{
		Email:     r.Email.Value,
		Names:     r.Names.Value,
		LastNames: r.LastNames.Value,
		Phone:     r.Phone.Value,
		Address:   r.Address.Value,
		Art:       r.Art.Value,
		Music:     r.Music.Value,
		Cinema:    r.Cinema.Value,
	}
}

// UpdateUserRequest is the body of PUT /user/{email}. Every field is optional.
type UpdateUserRequest struct {
	Names     OptionalString `json:"nombres" validate:"optstring"`
	LastNames OptionalString `json:"apellidos" validate:"optstring"`
	Address   OptionalString `json:"direccion" validate:"optstring"`
	Phone     OptionalString `json:"telefono" validate:"optstring"`
	Music     OptionalString `json:"musica" validate:"optstring"`
	Art       OptionalString `json:"arte" validate:"optstring"`
	Cinema    OptionalString `json:"cine" validate:"optstring"`
}

// ToPatch converts a validated request.
func (r *UpdateUserRequest) ToPatch() UserPatch {
	return UserPatch{
		Names:     r.Names,
		LastNames: r.LastNames,
		Address:   r.Address,
		Phone:     r.Phone,
		Music:     r.Music,
		Art:       r.Art,
		Cinema:    r.Cinema,
	}
}
