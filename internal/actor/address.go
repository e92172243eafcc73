package actor

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Address is the location of an actor within a local actor system. It is distinct
// from a transport.PID, which addresses a process over the network; an Address only
// ever resolves within the System that created it.
type Address struct {
	path string
}

var rootAddress = Address{path: "/"}

// Addr builds an address out of URL-safe path components.
func Addr(rawPath ...interface{}) Address {
	if len(rawPath) == 0 {
		panic("must have a non-empty address")
	}
	parts := make([]string, 0, len(rawPath))
	for _, rawPart := range rawPath {
		part := fmt.Sprint(rawPart)
		if strings.ContainsAny(part, "/") {
			panic("address path parts cannot contain a slash")
		}
		parts = append(parts, part)
	}
	parsed, err := url.Parse("/" + strings.Join(parts, "/"))
	if err != nil {
		panic(err)
	}
	return Address{path: parsed.String()}
}

func (a Address) String() string {
	return a.path
}

// Parent returns the address of this address's parent.
func (a Address) Parent() Address {
	return Address{path: path.Dir(a.path)}
}

// Child returns the address of a child with the given local id.
func (a Address) Child(id interface{}) Address {
	local := fmt.Sprint(id)
	if strings.ContainsAny(local, "/") {
		panic("address path parts cannot contain a slash")
	}
	return Address{path: path.Join(a.path, local)}
}

// Local returns the local id of the actor, relative to its parent.
func (a Address) Local() string {
	return path.Base(a.path)
}

// MarshalJSON implements json.Marshaler.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.path)
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Address) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &a.path)
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.path), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	a.path = string(text)
	return nil
}
