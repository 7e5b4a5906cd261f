// Package middleware wraps a SessionStore with at-rest transforms such as
// transcript encryption and PII masking. A gym-coach transcript routinely
// carries health details the operator must not store in the clear.
package middleware

import "github.com/androfit/agent/pkg/ports"

// Middleware wraps a SessionStore to add behavior.
type Middleware func(ports.SessionStore) ports.SessionStore

// Chain applies middlewares so the first listed runs outermost on Save.
func Chain(store ports.SessionStore, mws ...Middleware) ports.SessionStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
