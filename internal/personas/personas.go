// SPDX-License-Identifier: AGPL-3.0-only
package personas

import "fmt"

// Persona is a fixed, non-human identity that publishes and engages with
// feed content. Pure data, read-only after startup.
type Persona struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// DefaultRoster mirrors the production roster. Order matters only for
// deterministic iteration.
var DefaultRoster = []Persona{
	{ID: "luna", Name: "Luna", Avatar: "/images/background/1.jpg"},
	{ID: "stella", Name: "Stella", Avatar: "/images/background/2.jpg"},
	{ID: "aurora", Name: "Aurora", Avatar: "/images/background/3.jpg"},
	{ID: "nova", Name: "Nova", Avatar: "/images/background/4.jpg"},
	{ID: "ivy", Name: "Ivy", Avatar: "/images/background/5.jpg"},
	{ID: "scarlet", Name: "Scarlet", Avatar: "/images/background/6.jpg"},
}

type Registry struct {
	all    []Persona
	byID   map[string]Persona
	byName map[string]Persona
}

func NewRegistry(roster []Persona) (*Registry, error) {
	if len(roster) == 0 {
		return nil, fmt.Errorf("persona roster must not be empty")
	}
	r := &Registry{
		all:    make([]Persona, len(roster)),
		byID:   make(map[string]Persona, len(roster)),
		byName: make(map[string]Persona, len(roster)),
	}
	copy(r.all, roster)
	for _, p := range roster {
		if p.ID == "" || p.Name == "" {
			return nil, fmt.Errorf("persona entries require both id and name, got %+v", p)
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate persona id %q", p.ID)
		}
		r.byID[p.ID] = p
		r.byName[p.Name] = p
	}
	return r, nil
}

// All returns the roster as a copy so callers cannot mutate the registry.
func (r *Registry) All() []Persona {
	out := make([]Persona, len(r.all))
	copy(out, r.all)
	return out
}

func (r *Registry) ByID(id string) (Persona, bool) {
	p, ok := r.byID[id]
	return p, ok
}

func (r *Registry) IsPersonaName(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Others returns every persona except the one with the given id.
func (r *Registry) Others(id string) []Persona {
	out := make([]Persona, 0, len(r.all))
	for _, p := range r.all {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.all)
}
