/*
Package session keeps a render pipeline per client session.

Every session owns its own Previewer, so "new content" is always relative to what
that client last saw. Access to a session is serialised in-process with
reference-counted locks, and optionally across replicas with a ports.DistributedLocker.
*/
package session
