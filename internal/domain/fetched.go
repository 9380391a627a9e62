package domain

// Fetched is a decoded upstream batch. Undecodable counts the items that were
// dropped because their JSON did not fit the record type.
type Fetched[T any] struct {
	Items       []T
	Undecodable int
}
