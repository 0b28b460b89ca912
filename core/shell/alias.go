package shell

import "sort"

// Aliases maps alias names to their replacement text.
type Aliases map[string]string

// Get returns the replacement text for name.
func (a Aliases) Get(name string) (string, bool) {
	value, ok := a[name]
	return value, ok
}

// Set creates or overwrites an alias.
func (a Aliases) Set(name, value string) {
	a[name] = value
}

// Remove deletes an alias, reporting whether it existed.
func (a Aliases) Remove(name string) bool {
	if _, ok := a[name]; !ok {
		return false
	}
	delete(a, name)
	return true
}

// Names returns the alias names in sorted order.
func (a Aliases) Names() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
