// Package session keeps the live sea battle sessions of a server.
//
// Each session owns one engine instance plus the bookkeeping of its current
// match (start time, published fleet commitment, whether the result has been
// recorded). Sessions use short random hex IDs and are looked up
// case-insensitively.
//
// Manager is safe for concurrent use. It does not lock the sessions it hands
// out; callers serialize access to a session's engine and fields. With a
// SessionPersistence attached it stores new sessions, saves on request and
// lazily reloads sessions that are not in memory, so a restarted server
// resumes matches where they stopped.
//
// FilePersistence stores one JSON document per session. The document carries
// the setup (mode, size, ship table, strategy) and a snapshot of both boards
// in the engine's save format:
//
//	persistence, _ := session.NewFilePersistence("sessions", configManager)
//	manager := session.NewManager(session.WithPersistence(persistence))
//	if err := manager.Restore(); err != nil {
//		log.Fatal(err)
//	}
//
// Idle sessions are dropped from memory by Expire; their files stay on disk
// and are reloaded on the next Get.
package session
