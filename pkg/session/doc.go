/*
Package session orchestrates access to the persisted path state.

It serializes operations on the state of one instrument, in process with
reference-counted mutexes and, optionally, across processes with a
ports.DistributedLocker, in front of any ports.StateStore.
*/
package session
