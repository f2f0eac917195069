package plugin

import "fmt"

// Stores is a global map of StoreAdapter plugins.
var Stores = map[string]func(path string) (StoreAdapter, error){
	"badger": func(path string) (StoreAdapter, error) {
		bs, err := NewBadgerStore(path)
		if err != nil {
			return nil, err
		}
		return bs, nil
	},
}

func StoreLookup(name, path string) (StoreAdapter, error) {
	factory, ok := Stores[name]
	if !ok {
		return nil, fmt.Errorf("unknown store: %s", name)
	}
	return factory(path)
}
