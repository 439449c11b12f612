package utils

import "github.com/google/uuid"

// UUIDGenerator produces record ids. Ids are UUIDv7 so that records created
// on the client sort roughly by creation time in the remote store.
type UUIDGenerator struct {
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// Generate returns a new id. It falls back to a random v4 id when the v7
// clock sequence cannot be read.
func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}

// Fill returns id unchanged when it is set, otherwise a freshly generated id.
func (g *UUIDGenerator) Fill(id string) string {
	if id != "" {
		return id
	}
	return g.Generate()
}
