package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
)

// ConfigurationError indica un error de configuración del tenant o del
// despliegue (ej: tipo de documento sin proveedor registrado). No es un
// error del usuario: se reporta como 5xx y debe alertar a operaciones.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "configuración inválida: " + e.Msg
}

// GenerationError indica que no se pudo reservar el folio del documento.
// Solo ocurre por indisponibilidad del storage; nunca se entrega un número
// sin haberlo reservado de forma durable.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return "no se pudo generar el folio: " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error { return e.Err }

// PersistenceError indica un fallo al escribir el documento PENDING y sus líneas.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "no se pudo persistir el documento: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ProviderError es un rechazo del emisor externo (validación o duplicado del
// lado del proveedor). Code trae el código que devolvió el proveedor para que
// el mensaje de fallo persistido sea accionable en soporte.
type ProviderError struct {
	Provider string
	Code     string
	Msg      string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("proveedor %s rechazó el documento [%s]: %s", e.Provider, e.Code, e.Msg)
	}
	return fmt.Sprintf("proveedor %s rechazó el documento: %s", e.Provider, e.Msg)
}

// NetworkError es un fallo transitorio de red hacia el emisor externo
// (timeout, conexión caída). Se distingue de ProviderError para que el mensaje
// persistido deje claro que el reintento con un documento nuevo tiene sentido.
type NetworkError struct {
	Provider string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("error de red con proveedor %s: %v", e.Provider, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
