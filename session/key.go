package session

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrNoIdentity reports a key component that has no stable object identity
var ErrNoIdentity = errors.New("value has no object identity")

// Key addresses one tabulation within a session. Element and Points are
// compared by object identity, which is only meaningful while the session
// is alive; keys are never persisted or compared across sessions.
type Key struct {
	Element    any
	Points     any
	Derivative string
	Entity     string // empty for the whole cell
}

// NewKey builds a cache key. element and points must be non-nil pointers
// so that map comparison of the interface values is an identity check.
func NewKey(element, points any, derivative, entity string) (Key, error) {
	if err := checkIdentity("element", element); err != nil {
		return Key{}, err
	}
	if err := checkIdentity("point set", points); err != nil {
		return Key{}, err
	}
	return Key{
		Element:    element,
		Points:     points,
		Derivative: derivative,
		Entity:     entity,
	}, nil
}

func checkIdentity(what string, v any) error {
	if v == nil {
		return fmt.Errorf("%s: %w: nil", what, ErrNoIdentity)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%s: %w: %T is not a non-nil pointer", what, ErrNoIdentity, v)
	}
	return nil
}

// String renders the key with the object addresses, unique while both
// objects are reachable
func (k Key) String() string {
	return fmt.Sprintf("%p|%p|%s|%s", k.Element, k.Points, k.Derivative, k.Entity)
}
