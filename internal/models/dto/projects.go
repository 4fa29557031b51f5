package dto

type CreateProjectRequest struct {
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion"`
}

// UpdateProjectRequest carries a partial update; nil fields are left untouched.
type UpdateProjectRequest struct {
	Nombre      *string `json:"nombre,omitempty"`
	Descripcion *string `json:"descripcion,omitempty"`
}
