package main

// Roster is the room's participant collection in join order. It is shared by
// reference with every subsystem; only the room worker mutates it.
type Roster struct {
	list []*Entity
	byID map[string]*Entity
}

// NewRoster creates an empty roster
func NewRoster() *Roster {
	return &Roster{byID: make(map[string]*Entity)}
}

// Add appends an entity at the end of the join order
func (r *Roster) Add(e *Entity) {
	if _, ok := r.byID[e.ID]; ok {
		return
	}
	r.list = append(r.list, e)
	r.byID[e.ID] = e
}

// Remove deletes an entity and returns it, or nil if unknown
func (r *Roster) Remove(id string) *Entity {
	e, ok := r.byID[id]
	if !ok {
		return nil
	}
	delete(r.byID, id)
	for i, x := range r.list {
		if x == e {
			r.list = append(r.list[:i], r.list[i+1:]...)
			break
		}
	}
	return e
}

// Get looks up an entity by id
func (r *Roster) Get(id string) *Entity {
	return r.byID[id]
}

// All returns the entities in join order. Callers must not modify the slice.
func (r *Roster) All() []*Entity {
	return r.list
}

// Len returns the number of participants
func (r *Roster) Len() int {
	return len(r.list)
}

// First returns the earliest-joined remaining participant
func (r *Roster) First() *Entity {
	if len(r.list) == 0 {
		return nil
	}
	return r.list[0]
}
