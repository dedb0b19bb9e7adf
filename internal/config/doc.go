// Package config loads, validates, and normalizes the fotoprotokoll
// configuration.
//
// Configuration lives in a TOML file (default ~/.config/fotoprotokoll/
// config.toml, or fotoprotokoll.toml in the working directory). All path
// fields are expanded and made absolute during Load, and derived project
// paths (cache, output, processed photos) are exposed as methods so no other
// package concatenates path segments by hand.
//
// The Config value is constructed once per run and passed explicitly into
// every component; nothing in this repository reads configuration from
// process-global state.
package config
