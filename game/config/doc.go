// Package config provides preset management for the sea battle server.
//
// A preset is a JSON file in the configs directory describing one match
// setup: mode, board size, enemy strategy and the ship table. The file name
// without its extension is the config ID used when creating sessions.
//
//	{
//	  "name": "classic",
//	  "mode": "secondary",
//	  "width": 10,
//	  "height": 10,
//	  "strategy": "hunt",
//	  "ships": {"1": 2, "2": 2, "3": 2, "4": 1}
//	}
//
// Presets are validated with the same rules the engine applies before
// combat, so a preset that loads is always startable.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//	preset, err := manager.LoadConfig("small")
//	presets, err := manager.ListConfigs()
//	fallback := manager.GetDefault()
//
// The default is classic.json when present, otherwise the first valid file,
// otherwise a built-in classic preset.
package config
