// Package api provides the HTTP REST API for sea battle sessions.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session from a configuration ({"config_id": "classic"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Setup:
//   - GET /api/sessions/{id}/state - Current game state
//   - POST /api/sessions/{id}/setup - Change mode, board size, fleet or strategy
//   - POST /api/sessions/{id}/place - Place one ship ({"x":0,"y":0,"size":3,"direction":"h"})
//   - POST /api/sessions/{id}/start - Start combat
//   - POST /api/sessions/{id}/stop - Stop combat
//
// Combat:
//   - POST /api/sessions/{id}/shoot - Fire at the enemy board ({"x":3,"y":4})
//   - POST /api/sessions/{id}/command - Run a console command line ({"line":"shot 3 4"})
//   - GET /api/sessions/{id}/ships - Human fleet
//   - GET /api/sessions/{id}/shots - Shot log
//
// Saves, configuration and history:
//   - POST /api/sessions/{id}/save, POST /api/sessions/{id}/load ({"name":"slot1"})
//   - GET /api/saves
//   - GET /api/configs, POST /api/configs, GET /api/configs/{name}
//   - GET /api/history?limit=N
//
// Live updates are pushed on /ws?session={id} and the browser client is
// served from /.
//
// Errors are returned as {"error": "message"}. Phase and turn conflicts map
// to 409, unknown sessions and configurations to 404, rejected setup or
// placement to 400.
package api
