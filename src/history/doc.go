// Package history keeps a record of every network generation the engine has
// played.
//
// The InmemStore only retains the last generations in a rolling window. The
// BadgerStore writes every record to a Badger database and uses an InmemStore
// as a cache in front of it, so that a restarted process can carry on counting
// generations where the previous one stopped.
package history
