package dto

import (
	"bytes"
	"encoding/json"
)

// Opcional is a patch field that tells an absent key from an explicit null.
// Set is true whenever the key was present; Valor is nil for null.
type Opcional[T any] struct {
	Set   bool
	Valor *T
}

// Con returns a present Opcional holding v.
func Con[T any](v T) Opcional[T] {
	return Opcional[T]{Set: true, Valor: &v}
}

// Nulo returns a present Opcional holding null.
func Nulo[T any]() Opcional[T] {
	return Opcional[T]{Set: true}
}

func (o *Opcional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Valor = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Valor = &v
	return nil
}

func (o Opcional[T]) MarshalJSON() ([]byte, error) {
	if o.Valor == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Valor)
}
