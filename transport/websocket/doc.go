// Package websocket pushes live match updates to browser clients.
//
// A central Hub tracks connections per session. Each client has a read pump
// that only watches for disconnects and a write pump that sends one JSON
// message per frame.
//
// Message Protocol:
//
// Every outgoing message names its session and event:
//
//	{"session_id": "a1b2", "event": "state_update", "game_state": {...}}
//	{"session_id": "a1b2", "event": "turn", "data": [{"side": "enemy", "x": 3, "y": 4, "result": "miss"}]}
//	{"session_id": "a1b2", "event": "match_over", "data": {"commitment": {...}, "verified": true}}
//
// Clients subscribe with /ws?session=a1b2 and only receive messages for
// that session. Clients that fall behind are dropped.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run()
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
package websocket
