// Package views names the cached page renders a mutation can make stale.
package views

import (
	"sort"

	"github.com/google/uuid"
)

type View string

const (
	Ciclo      View = "ciclo"
	Revisoes   View = "revisoes"
	Calendario View = "calendario"
	Dashboard  View = "dashboard"
	Concursos  View = "concursos"
	Paginas    View = "paginas"
	Tarefas    View = "tarefas"
	Anotacoes  View = "anotacoes"
	Documentos View = "documentos"
	Biblioteca View = "biblioteca"
	Flashcards View = "flashcards"
)

// Set is the collection of views an action invalidated.
type Set map[View]struct{}

func Of(vs ...View) Set {
	s := make(Set, len(vs))
	for _, v := range vs {
		s[v] = struct{}{}
	}
	return s
}

// Schedule is what every study-cycle scheduling action touches.
func Schedule() Set {
	return Of(Ciclo, Revisoes, Calendario, Dashboard)
}

func (s Set) Has(v View) bool {
	_, ok := s[v]
	return ok
}

func (s Set) Union(other Set) Set {
	out := make(Set, len(s)+len(other))
	for v := range s {
		out[v] = struct{}{}
	}
	for v := range other {
		out[v] = struct{}{}
	}
	return out
}

// List returns the views sorted by name.
func (s Set) List() []View {
	out := make([]View, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CacheKey is the Redis key holding a user's cached payload for a view.
func CacheKey(userID uuid.UUID, v View) string {
	return "view:" + userID.String() + ":" + string(v)
}

// Channel is the pub/sub channel carrying live updates for a user.
func Channel(userID uuid.UUID) string {
	return "user_updates:" + userID.String()
}
