package afip

import (
	"fmt"
	"time"
)

// Formatos de fecha/hora que esperan los web services de AFIP.
const (
	// DateLayout es el formato AAAAMMDD de CbteFch y FchVto.
	DateLayout = "20060102"
	// TRATimeLayout es el formato de generationTime/expirationTime del TRA,
	// en hora local con offset explícito (AFIP valida contra hora argentina).
	TRATimeLayout = "2006-01-02T15:04:05-07:00"
)

// FormatDate formatea una fecha al AAAAMMDD que esperan CbteFch y FchVtoPago.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate interpreta una fecha AAAAMMDD de una respuesta WSFE.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("fecha AFIP inválida %q: %w", s, err)
	}
	return t, nil
}

// FormatTRATime formatea un instante para el TRA en hora local con offset.
func FormatTRATime(t time.Time) string {
	return t.Format(TRATimeLayout)
}
