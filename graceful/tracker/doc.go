// Package tracker keeps the two identity-keyed sets a graceful shutdown needs:
// the sockets accepted by a server and the responses still being produced.
//
// ConnectionRegistry forgets a socket as soon as it closes and can end every
// remaining socket in one pass. ResponseTracker forgets a response when it
// finishes and publishes a drained signal each time the last pending response
// goes away.
//
// Both types are safe for concurrent use. Observers registered on sockets and
// responses, and the drained subscribers, are always invoked without any
// internal lock held.
package tracker
