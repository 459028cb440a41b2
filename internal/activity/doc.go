// Package activity is the append-only log of assistant outcomes.
//
// Log.Record is fire-and-forget: a store failure is logged and counted but
// never returned, so reporting can never break scheduling. Records are
// kept in one of the Store implementations: in memory, SQLite, PostgreSQL
// or Firestore.
package activity
