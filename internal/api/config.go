package api

import "github.com/danielgtaylor/huma/v2"

// NewConfig returns the huma configuration shared by the server and its
// tests. serverURL may be empty.
func NewConfig(serverURL string) huma.Config {
	cfg := huma.DefaultConfig("plat-rawan API", "1.0.0")
	cfg.Info.Description = "Hazard location (lokasi rawan) API for the fire department map editor."
	if serverURL != "" {
		cfg.Servers = []*huma.Server{{URL: serverURL, Description: "Local server"}}
	}
	// Disable $schema property in responses (cleaner JSON)
	cfg.CreateHooks = []func(huma.Config) huma.Config{}
	cfg.Transformers = append(cfg.Transformers, LinkTransformer())
	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		SecurityScheme: {Type: "http", Scheme: "bearer", Description: "Viewer or admin token"},
	}
	return cfg
}
