package database

// Tablas externas de solo lectura: gestiones, campaigns, users, contactos,
// telefonos y gestiones_resultado. Sólo dashboard_snapshots pertenece a este
// servicio (ver internal/provisioning).

// Campaign representa una campaña (tabla campaigns)
type Campaign struct {
	ID     int64  `json:"id"`
	Codigo string `json:"codigo"`
	Nombre string `json:"nombre"`
}

// Agent representa un operador o broker (tabla users)
type Agent struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Nombre   string `json:"nombre"`
	Apellido string `json:"apellido"`
}

// Contacto representa una persona contactable con hasta cuatro teléfonos
type Contacto struct {
	ID        int64   `json:"id"`
	CI        string  `json:"ci"`
	Nombre    string  `json:"nombre"`
	Apellido  string  `json:"apellido"`
	Telefono1 *string `json:"telefono_1"`
	Telefono2 *string `json:"telefono_2"`
	Celular1  *string `json:"celular_1"`
	Celular2  *string `json:"celular_2"`
}

// Gestion es una gestión con los nombres de contacto y resultado resueltos.
// Resultado es nil cuando la gestión todavía no tiene resultado cargado.
type Gestion struct {
	ID               int64   `json:"id"`
	Timestamp        string  `json:"timestamp"`
	CampaignID       int64   `json:"id_campaign"`
	BrokerID         int64   `json:"id_broker"`
	ContactoID       int64   `json:"id_contacto"`
	ContactoCI       string  `json:"ci"`
	ContactoNombre   string  `json:"contacto_nombre"`
	ContactoApellido string  `json:"contacto_apellido"`
	ResultadoID      *int64  `json:"id_resultado"`
	Resultado        *string `json:"resultado"`
	Observaciones    string  `json:"observaciones"`
}

// NullableString convierte un valor escaneado a puntero, nil si es NULL.
func NullableString(valid bool, s string) *string {
	if !valid {
		return nil
	}
	return &s
}
