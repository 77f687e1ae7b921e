/*
Package session serializes access to planning sessions.

Each session is processed by one goroutine at a time: a reference-counted
in-process mutex guards the session locally, and an optional distributed
locker extends the guarantee across replicas. Sessions never share state.
*/
package session
