// Package factory provides a small generic registry used to instantiate modules
// from configuration. Modules are defined by a type string and a map of raw
// settings. Factories decode the settings into typed structs and return the
// concrete implementation.
//
// Example usage:
//
//	reg := factory.NewRegistry[grid.Provider]()
//	reg.Register("file", func(conf map[string]any) (grid.Provider, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return grid.NewFileProvider(c.Path), nil
//	})
//	p, err := reg.Create(factory.ModuleConfig{Type: "file", Conf: map[string]any{"path": "mix.json"}})
package factory
