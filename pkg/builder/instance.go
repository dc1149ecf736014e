package builder

// Value is one field of a built instance.
type Value struct {
	Name  string
	Value any
}

// Instance is a fully populated record produced by a Finalizer.
type Instance struct {
	Record string
	Fields []Value
}

// Get returns the value stored for the named field.
func (i Instance) Get(name string) (any, bool) {
	for _, field := range i.Fields {
		if field.Name == name {
			return field.Value, true
		}
	}
	return nil, false
}

// Map returns the instance fields keyed by name.
func (i Instance) Map() map[string]any {
	out := make(map[string]any, len(i.Fields))
	for _, field := range i.Fields {
		out[field.Name] = field.Value
	}
	return out
}
