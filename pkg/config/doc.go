// Package config builds the configuration handle used by the rest of the
// tool.
//
// # Overview
//
// A Facade combines three pieces: the built-in default schema, at most one
// external source found by a source.Loader, and the merge engine. The first
// read loads the source, merges it over the defaults and freezes the result.
// Every later read is served from that frozen map; there is no reload.
//
// # Components
//
// DefaultSchema: The baseline mapping. Every key in it is guaranteed to be
// present in the merged configuration.
//
// Facade: Load-once wrapper around loader, merger and freezer. Construct one
// per process and pass it to the components that need configuration.
//
// Settings: Typed view of the keys the tool consumes, read from a Facade.
//
// # Usage Example
//
//	opts, err := source.ResolveOptions(source.Options{})
//	if err != nil {
//		return err
//	}
//	facade := config.New(source.NewDefaultLoader(opts, logger), config.WithLogger(logger))
//
//	base, err := facade.Get("base")
//	if err != nil {
//		return err
//	}
//
//	settings, err := config.LoadSettings(ctx, facade)
//	if err != nil {
//		return err
//	}
//	fmt.Println(settings.Domain)
package config
