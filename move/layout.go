package move

// StructField is one named field of a struct layout
type StructField struct {
	Name string
	Type TypeTag
}

// StructLayout is the ordered field list defining a struct's binary
// shape. Immutable once built; safe to share across goroutines.
type StructLayout struct {
	Fields []StructField
}

// Field get a field and its declared position by name
func (l *StructLayout) Field(name string) (*StructField, bool) {
	for i := range l.Fields {
		if l.Fields[i].Name == name {
			return &l.Fields[i], true
		}
	}
	return nil, false
}
