package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrueAndFalse(t *testing.T) {
	assert.NoError(t, True(1 == 1))
	assert.Error(t, True(1 == 2))
	assert.NoError(t, False(1 == 2))
	assert.Error(t, False(1 == 1))
}

func TestInAcceptsMember(t *testing.T) {
	assert.NoError(t, In("process", []string{"process", "container", "stub"}))
	assert.Error(t, In("qemu", []string{"process", "container", "stub"}))
}

type nested struct {
	Name string
}

func (n nested) Validate() []error {
	if n.Name == "" {
		return []error{assertErr("name required")}
	}
	return nil
}

type outer struct {
	Nested  nested
	Ptr     *nested
	Many    []nested
	ByKey   map[string]nested
}

func TestValidateRecursesIntoNestedValidatableFields(t *testing.T) {
	assert.NoError(t, Validate(outer{Nested: nested{Name: "ok"}}))

	err := Validate(outer{Nested: nested{}})
	assert.Error(t, err)
}

func TestValidateRecursesIntoPointersSlicesAndMaps(t *testing.T) {
	err := Validate(outer{
		Nested: nested{Name: "ok"},
		Ptr:    &nested{},
		Many:   []nested{{Name: "ok"}, {}},
		ByKey:  map[string]nested{"a": {}},
	})
	assert.Error(t, err)
}

func TestValidateIgnoresNilPointer(t *testing.T) {
	assert.NoError(t, Validate(outer{Nested: nested{Name: "ok"}, Ptr: nil}))
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
