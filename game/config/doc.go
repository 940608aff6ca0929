// Package config provides map file management and server settings.
//
// Maps are JSON files in a map directory. Manager loads them by name (with
// or without the .json extension), validates them with the engine's map
// rules, caches them, and picks a default map: default.json when present,
// else the first valid map, else a small built-in two-team map.
//
// Usage:
//
//	maps, err := config.NewManager("maps")
//	world, err := maps.LoadMap("arena")
//	infos, err := maps.ListMaps()
//
// Settings are layered: built-in defaults, then an optional YAML file, then
// BATTLECODE_* environment variables (a .env file is honoured). Command line
// flags are applied on top by the caller.
package config
