// Package storage defines persistence contracts for companion lifecycle state.
//
// The daily batch reads companions and their activity through these
// contracts and writes each processed day back through a single SaveDay call,
// so the store decides how to make that write atomic.
package storage
