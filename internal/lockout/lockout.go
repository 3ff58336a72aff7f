// Package lockout implements the failed-login counter and temporary account
// lock. It is pure: callers load the state, apply a transition and persist it.
package lockout

import "time"

const (
	// MaxIntentos is the number of consecutive failures that locks an account.
	MaxIntentos = 5
	// DuracionBloqueo is how long a lock lasts.
	DuracionBloqueo = 15 * time.Minute
)

// Estado is the lock-related slice of a user record.
type Estado struct {
	IntentosFallidos int
	UltimoIntento    *time.Time
	BloqueadoHasta   *time.Time
}

// Bloqueado reports whether the lock is still in force at now.
func (e Estado) Bloqueado(now time.Time) bool {
	return e.BloqueadoHasta != nil && e.BloqueadoHasta.After(now)
}

// MinutosRestantes returns the whole minutes left on the lock, truncated.
// A lock with 59 seconds left reports 0.
func (e Estado) MinutosRestantes(now time.Time) int {
	if !e.Bloqueado(now) {
		return 0
	}
	segundos := int(e.BloqueadoHasta.Sub(now) / time.Second)
	return segundos / 60
}

// RegistrarFallo counts a wrong password and locks the account when the
// threshold is reached. It returns true when the account ends up locked.
//
// The counter is not reset when a previous lock expires, so the first failure
// after an expired lock locks the account again.
func (e *Estado) RegistrarFallo(now time.Time) bool {
	e.IntentosFallidos++
	t := now
	e.UltimoIntento = &t
	if e.IntentosFallidos >= MaxIntentos {
		hasta := now.Add(DuracionBloqueo)
		e.BloqueadoHasta = &hasta
		return true
	}
	return false
}

// RegistrarExito clears the counter and any lock.
func (e *Estado) RegistrarExito() {
	e.IntentosFallidos = 0
	e.BloqueadoHasta = nil
}
