// Package session provides per-browser conversation persistence.
//
// A session is identified by a random UUID that the browser keeps in a
// ClientStore (cookie or local storage). Its State, the selected model and the
// ordered list of turns, is stored as one blob per ID in a shared directory.
//
// Components:
//   - FileStore: one file per session, atomic replace on save
//   - Manager: hint resolution, persistence, reset and statistics
//   - Interaction: a resolved session carried through one request
//
// Resolution:
//  1. Take the hint from the client store if it is a canonical UUID
//  2. Restore the stored state when a blob exists for it
//  3. Otherwise generate a fresh ID with empty state
//  4. Write the resolved ID back to the client store
//
// A blob that exists but cannot be decoded is logged and replaced by a fresh
// session unless the manager runs in strict mode.
//
// Example Usage:
//
//	store, err := session.NewFileStore(dir, session.FileStoreOptions{})
//	manager := session.NewManager(store, logger)
//	in, err := manager.Begin(ctx, cookies)
//	in.State().Append(session.RoleUser, "Hi")
//	err = in.Commit(ctx)
package session
