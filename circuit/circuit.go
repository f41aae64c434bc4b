package circuit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/consensys/gnark/frontend"
	"github.com/kysee/zkk/attest"
)

type Backend string

const (
	Groth16 Backend = "groth16"
	Plonk   Backend = "plonk"
)

func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(s)) {
	case Groth16:
		return Groth16, nil
	case Plonk:
		return Plonk, nil
	}
	return "", fmt.Errorf("unknown backend: %s", s)
}

// Definition binds a circuit ID to its gnark circuit and to the attest.Input layout.
type Definition interface {
	ID() string
	// Placeholder returns an unassigned circuit, used for compilation.
	Placeholder() frontend.Circuit
	// Assign returns a full assignment (secret and public) for in.
	Assign(in *attest.Input) (frontend.Circuit, error)
	// NbPublic is the number of public signals the circuit exposes.
	NbPublic() int
}

const DefaultID = Secp256k1ID

var registry = map[string]Definition{}

func register(def Definition) {
	registry[def.ID()] = def
}

func init() {
	register(KeyHash{})
	register(Secp256k1{})
}

func Lookup(id string) (Definition, error) {
	def, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("unknown circuit %q (known: %s)", id, strings.Join(IDs(), ", "))
	}
	return def, nil
}

func IDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
