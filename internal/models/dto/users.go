package dto

type CreateUserRequest struct {
	Username  string   `json:"username"`
	Nombre    string   `json:"nombre"`
	Apellidos string   `json:"apellidos"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Roles     []string `json:"roles,omitempty"`
}

// UpdateUserRequest carries a partial update; nil fields are left untouched.
type UpdateUserRequest struct {
	Username  *string `json:"username,omitempty"`
	Nombre    *string `json:"nombre,omitempty"`
	Apellidos *string `json:"apellidos,omitempty"`
	Email     *string `json:"email,omitempty"`
	Password  *string `json:"password,omitempty"`
}

type RolesResponse struct {
	Roles []string `json:"rol"`
}
