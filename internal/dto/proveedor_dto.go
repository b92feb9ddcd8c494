package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearProveedorRequest struct {
	Nombre    string  `json:"nombre"    validate:"required,min=2,max=120"`
	Contacto  *string `json:"contacto"  validate:"omitempty,max=120"`
	Telefono  *string `json:"telefono"  validate:"omitempty,max=40"`
	Email     *string `json:"email"     validate:"omitempty,email"`
	Direccion *string `json:"direccion" validate:"omitempty,max=255"`
	Notas     *string `json:"notas"     validate:"omitempty,max=1000"`
}

type ActualizarProveedorRequest struct {
	Nombre    *string `json:"nombre"    validate:"omitempty,min=2,max=120"`
	Contacto  *string `json:"contacto"  validate:"omitempty,max=120"`
	Telefono  *string `json:"telefono"  validate:"omitempty,max=40"`
	Email     *string `json:"email"     validate:"omitempty,email"`
	Direccion *string `json:"direccion" validate:"omitempty,max=255"`
	Notas     *string `json:"notas"     validate:"omitempty,max=1000"`
	Activo    *bool   `json:"activo"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProveedorResponse struct {
	ID        string  `json:"id"`
	Nombre    string  `json:"nombre"`
	Contacto  *string `json:"contacto"`
	Telefono  *string `json:"telefono"`
	Email     *string `json:"email"`
	Direccion *string `json:"direccion"`
	Notas     *string `json:"notas"`
	Activo    bool    `json:"activo"`
}
