package entity

// Claves de cat_estado usadas por la aplicación.
const (
	EstadoActivo  = "act"
	EstadoBorrado = "del"
)
