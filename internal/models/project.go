package models

import "time"

// Project is a unit of work owned by exactly one user.
type Project struct {
	ID                string    `json:"id"`
	Nombre            string    `json:"nombre"`
	Descripcion       string    `json:"descripcion"`
	FechaCreacion     time.Time `json:"fecha_creacion"`
	FechaModificacion time.Time `json:"fecha_modificacion"`
	UsuarioID         string    `json:"usuario_id"`
}
