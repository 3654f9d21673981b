package ecs

// smallest returns the entity list of the smaller of two stores, which is the
// cheaper one to drive a join from.
func smallest[A, B any](a *sparseSet[A], b *sparseSet[B]) []Entity {
	if a.size() <= b.size() {
		return a.entities()
	}
	return b.entities()
}
